//go:build darwin

package platformfs

import (
	"time"

	"golang.org/x/sys/unix"
)

func statTimes(_ string, st *unix.Stat_t) (atime, mtime time.Time) {
	return time.Unix(st.Atimespec.Sec, st.Atimespec.Nsec), time.Unix(st.Mtimespec.Sec, st.Mtimespec.Nsec)
}

func statFlags(st *unix.Stat_t) uint32 { return st.Flags }

// Clone creates an APFS clonefile(): extents alias until one side is
// written. clonefile refuses to overwrite an existing destination, which
// is exactly the semantics the atomic replacement core relies on.
func (unixFS) Clone(existing, newPath string) error {
	if err := unix.Clonefile(existing, newPath, 0); err != nil {
		return classify("clonefile", newPath, err)
	}
	return nil
}

// SetFlags sets BSD st_flags (chflags). Used to reconcile the UF_COMPRESSED
// bit after a clone so cloned extents stay readable under the source's
// compression regime.
func (unixFS) SetFlags(path string, flags uint32) error {
	if err := unix.Chflags(path, int(flags)); err != nil {
		return classify("chflags", path, err)
	}
	return nil
}

func (unixFS) SupportsClone() bool    { return true }
func (unixFS) SupportsFlags() bool    { return true }
func (unixFS) CompressedMask() uint32 { return unix.UF_COMPRESSED }
