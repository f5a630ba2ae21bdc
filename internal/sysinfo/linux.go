//go:build linux

package sysinfo

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/exmap-go/exmap/internal/rangeset"
	"github.com/sirupsen/logrus"
)

// ProcRoot returns the process directory root. It checks EXMAP_PROC_ROOT
// first (useful for testing against a fixture tree), then falls back to
// /proc, following the CLK_TCK/PAGE_SIZE-style env-override convention.
func ProcRoot() string {
	if v := os.Getenv("EXMAP_PROC_ROOT"); v != "" {
		return v
	}
	return "/proc"
}

// PageInfoPath returns the path to the kernel page-info control
// endpoint. Overridable via EXMAP_PAGEINFO_PATH for testing.
func PageInfoPath() string {
	if v := os.Getenv("EXMAP_PAGEINFO_PATH"); v != "" {
		return v
	}
	return "/proc/exmap/pageinfo"
}

// Linux reads process information from a process directory (normally
// /proc) and page records from the kernel's page-info control endpoint.
type Linux struct {
	root         string
	pageInfoPath string
	ownPID       int
}

// NewLinux returns a Linux source rooted at ProcRoot()/PageInfoPath().
func NewLinux() *Linux {
	return &Linux{root: ProcRoot(), pageInfoPath: PageInfoPath(), ownPID: os.Getpid()}
}

// SanityCheck verifies the process root is readable and the page-info
// endpoint exists.
func (l *Linux) SanityCheck() error {
	if fi, err := os.Stat(l.root); err != nil || !fi.IsDir() {
		return fmt.Errorf("sysinfo: process root %s not accessible: %w", l.root, err)
	}
	if _, err := os.Stat(l.pageInfoPath); err != nil {
		return fmt.Errorf("sysinfo: page-info endpoint %s not accessible: %w", l.pageInfoPath, err)
	}
	return nil
}

// OwnPID returns the observer's own PID.
func (l *Linux) OwnPID() int { return l.ownPID }

// PIDs enumerates numeric subdirectories of the process root whose
// maps pseudo-file is readable.
func (l *Linux) PIDs() ([]int, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		return nil, err
	}
	var pids []int
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		if _, err := os.Open(filepath.Join(l.root, e.Name(), "maps")); err != nil {
			continue
		}
		pids = append(pids, pid)
	}
	return pids, nil
}

// Cmdline returns the raw contents of <pid>/cmdline.
func (l *Linux) Cmdline(pid int) (string, error) {
	b, err := os.ReadFile(filepath.Join(l.root, strconv.Itoa(pid), "cmdline"))
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(b), "\x00"), nil
}

// VMAs parses <pid>/maps: one line per VMA, columns
// <start>-<end> <perms> <offset> <dev> <inode> [path-or-tag], split on
// whitespace; the filename (if any) is everything after the fifth field.
func (l *Linux) VMAs(pid int) ([]VMALine, error) {
	f, err := os.Open(filepath.Join(l.root, strconv.Itoa(pid), "maps"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []VMALine
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line, ok := parseMapsLine(sc.Text())
		if !ok {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}

// parseMapsLine splits on whitespace rather than a fixed column: the
// address field's width varies with the process's address space size
// (32-bit vs. 64-bit, PIE vs. non-PIE), so every field after it shifts.
func parseMapsLine(line string) (VMALine, bool) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return VMALine{}, false
	}

	addrs := strings.SplitN(fields[0], "-", 2)
	if len(addrs) != 2 {
		return VMALine{}, false
	}
	start, err := strconv.ParseUint(addrs[0], 16, 64)
	if err != nil {
		return VMALine{}, false
	}
	end, err := strconv.ParseUint(addrs[1], 16, 64)
	if err != nil {
		return VMALine{}, false
	}
	offset, err := strconv.ParseUint(fields[2], 16, 64)
	if err != nil {
		return VMALine{}, false
	}

	filename := "[anon]"
	if len(fields) > 5 {
		if f := strings.TrimSpace(strings.Join(fields[5:], " ")); f != "" {
			filename = f
		}
	}

	return VMALine{Range: rangeset.New(start, end), Offset: offset, Filename: filename}, true
}

// PageInfo writes pid to the control endpoint and parses the resulting
// block-structured response: "VMA 0x<hexstart> <npages>" lines open a
// block, each followed by "<resident> <writable> <cookie>" lines.
func (l *Linux) PageInfo(pid int) ([]PageBlock, error) {
	f, err := os.OpenFile(l.pageInfoPath, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%d\n", pid); err != nil {
		return nil, err
	}

	var out []PageBlock
	var cur *PageBlock

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "VMA ") {
			fields := strings.Fields(line)
			if len(fields) < 2 {
				logrus.WithField("line", line).Warn("sysinfo: malformed VMA header, skipping")
				continue
			}
			start, err := strconv.ParseUint(strings.TrimPrefix(fields[1], "0x"), 16, 64)
			if err != nil {
				logrus.WithField("line", line).Warn("sysinfo: malformed VMA header address, skipping")
				continue
			}
			out = append(out, PageBlock{VMAStart: start})
			cur = &out[len(out)-1]
			continue
		}

		if len(line) < 3 {
			logrus.WithField("line", line).Warn("sysinfo: short page line, skipping")
			continue
		}
		if cur == nil {
			logrus.WithField("line", line).Warn("sysinfo: page line before any VMA header, skipping")
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			logrus.WithField("line", line).Warn("sysinfo: short page line, skipping")
			continue
		}
		cookie, err := strconv.ParseUint(fields[2], 16, 64)
		if err != nil {
			logrus.WithField("line", line).Warn("sysinfo: malformed page cookie, skipping")
			continue
		}
		cur.Pages = append(cur.Pages, PageRecord{
			Resident: fields[0] == "1",
			Writable: fields[1] == "1",
			Cookie:   cookie,
		})
	}
	return out, sc.Err()
}
