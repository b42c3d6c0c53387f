//go:build unix && !linux && !darwin

package platformfs

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// statTimes falls back to the portable os.Lstat modtime on BSD variants
// whose Stat_t field names this package does not special-case; atime
// is approximated as mtime rather than guessing a field layout.
func statTimes(path string, _ *unix.Stat_t) (atime, mtime time.Time) {
	fi, err := os.Lstat(path)
	if err != nil {
		return time.Time{}, time.Time{}
	}
	return fi.ModTime(), fi.ModTime()
}

func statFlags(*unix.Stat_t) uint32 { return 0 }

func (unixFS) Clone(existing, _ string) error {
	return classify("clone", existing, unix.ENOTSUP)
}

func (unixFS) SetFlags(path string, _ uint32) error {
	return classify("chflags", path, unix.ENOTSUP)
}

func (unixFS) SupportsClone() bool    { return false }
func (unixFS) SupportsFlags() bool    { return false }
func (unixFS) CompressedMask() uint32 { return 0 }
