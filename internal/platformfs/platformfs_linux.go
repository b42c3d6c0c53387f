//go:build linux

package platformfs

import (
	"time"

	"golang.org/x/sys/unix"
)

func statTimes(_ string, st *unix.Stat_t) (atime, mtime time.Time) {
	return time.Unix(st.Atim.Sec, st.Atim.Nsec), time.Unix(st.Mtim.Sec, st.Mtim.Nsec)
}

// statFlags returns 0: Linux has no BSD-style st_flags word.
func statFlags(*unix.Stat_t) uint32 { return 0 }

// Clone creates a reflink copy via the FICLONE ioctl, supported on
// btrfs, xfs (with reflink=1) and a handful of other copy-on-write
// filesystems. Open calls are kept to a minimum: O_CREAT|O_EXCL so we
// never clone onto an existing path by surprise.
func (unixFS) Clone(existing, newPath string) error {
	src, err := unix.Open(existing, unix.O_RDONLY, 0)
	if err != nil {
		return classify("open", existing, err)
	}
	defer unix.Close(src)

	dst, err := unix.Open(newPath, unix.O_CREAT|unix.O_WRONLY|unix.O_EXCL, 0o600)
	if err != nil {
		return classify("open", newPath, err)
	}
	defer unix.Close(dst)

	if err := unix.IoctlFileClone(dst, src); err != nil {
		_ = unix.Unlink(newPath)
		return classify("ficlone", newPath, err)
	}
	return nil
}

// SetFlags is unsupported on Linux; the compression-flag reconciliation
// in the clone path only matters on filesystems with a visible
// per-file compression attribute, which this facade does not expose.
func (unixFS) SetFlags(path string, _ uint32) error {
	return classify("chflags", path, unix.ENOTSUP)
}

func (unixFS) SupportsClone() bool { return true }
func (unixFS) SupportsFlags() bool { return false }
func (unixFS) CompressedMask() uint32 { return 0 }
