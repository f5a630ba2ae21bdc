//go:build linux

package elf

import (
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// openAsOwner opens path for reading. If the calling process is uid 0
// and the file belongs to another uid, it temporarily assumes that
// uid's effective identity for the duration of the open — this copes
// with root-squashed network mounts where root has no special access.
// Best-effort: failure to drop or restore privilege is logged but never
// fails the open itself.
func openAsOwner(path string) (*os.File, error) {
	origEUID := unix.Geteuid()
	newEUID := -1

	if origEUID == 0 {
		var st unix.Stat_t
		if err := unix.Stat(path, &st); err == nil && int(st.Uid) != 0 {
			newEUID = int(st.Uid)
		}
	}

	if newEUID >= 0 {
		if err := unix.Seteuid(newEUID); err != nil {
			logrus.WithFields(logrus.Fields{"path": path, "euid": newEUID}).
				Warn("elf: failed to drop privilege before open, continuing as original uid")
			newEUID = -1
		}
	}

	f, openErr := os.Open(path)

	if newEUID >= 0 {
		if err := unix.Seteuid(origEUID); err != nil {
			logrus.WithFields(logrus.Fields{"euid": origEUID}).
				Warn("elf: failed to restore privilege after open")
		}
	}

	return f, openErr
}
