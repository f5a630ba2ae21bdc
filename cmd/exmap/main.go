//go:build linux

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/exmap-go/exmap/internal/memacct"
	"github.com/exmap-go/exmap/internal/sysinfo"
)

// processReport is the raw, unscaled, unsorted per-process output this
// command emits. Display scaling, sorting, and interactive presentation
// are a front-end's job, not this one's.
type processReport struct {
	PID     int               `json:"pid"`
	Cmdline string            `json:"cmdline"`
	Sizes   map[string]uint64 `json:"sizes"`
}

type snapshotReport struct {
	PageSize  uint64          `json:"page_size"`
	Processes []processReport `json:"processes"`
}

func main() {
	var verbose bool

	root := &cobra.Command{
		Use:   "exmap",
		Short: "Per-process, sharing-aware memory accounting",
		Long: `exmap reconstructs every readable process's virtual memory map from
/proc and a kernel page-info source, correlates it against the ELF images
backing it, and reports seven sharing-aware size measures per process.

This command performs one load and dumps the raw, byte-denominated result
as JSON. It does not scale units, sort processes, or format a terminal
display — pipe its output into whatever does.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
			return run()
		},
	}

	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	if err := root.Execute(); err != nil {
		logrus.WithError(err).Error("exmap: fatal")
		os.Exit(1)
	}
}

func run() error {
	src := sysinfo.NewLinux()

	snap, err := memacct.Load(src, pageSize(), nil)
	if err != nil {
		return fmt.Errorf("exmap: load snapshot: %w", err)
	}

	out := snapshotReport{PageSize: snap.PageSize}
	pool := snap.PagePool()
	for _, proc := range snap.Processes() {
		sizes := proc.Sizes(pool)
		report := processReport{
			PID:     proc.PID,
			Cmdline: proc.Cmdline,
			Sizes:   make(map[string]uint64, int(memacct.NumMeasures())),
		}
		for _, m := range memacct.AllMeasures() {
			report.Sizes[m.Name()] = sizes.Get(m)
		}
		out.Processes = append(out.Processes, report)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// pageSize reads the runtime page size the same way the teacher's
// system-info layer does, via os.Getpagesize rather than a fixed
// constant, so the accounting stays correct on non-4KiB-page kernels.
func pageSize() uint64 {
	return uint64(os.Getpagesize())
}
