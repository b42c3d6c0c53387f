//go:build unix

package platformfs

import (
	"errors"
	"io/fs"
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// unixFS implements FS using POSIX syscalls common to every unix target.
// OS-specific pieces (timestamps, clone, flag bits) are supplied by the
// per-OS statTimes/statFlags helpers and Clone/SetFlags/Supports*/
// CompressedMask methods defined alongside this file.
type unixFS struct{}

func newPlatformFS() FS { return unixFS{} }

func (unixFS) Stat(path string) (StatSnapshot, error) {
	var lst unix.Stat_t
	if err := unix.Lstat(path, &lst); err != nil {
		return StatSnapshot{}, classify("stat", path, err)
	}
	isSymlink := lst.Mode&unix.S_IFMT == unix.S_IFLNK

	// Follow the link for everything but the symlink determination itself,
	// matching the spec's "lstat semantics for IsSymlink only" contract.
	st := lst
	if isSymlink {
		var fst unix.Stat_t
		if err := unix.Stat(path, &fst); err == nil {
			st = fst
		}
	}

	atime, mtime := statTimes(path, &st)
	return StatSnapshot{
		Size:       st.Size,
		Dev:        uint64(st.Dev), //nolint:unconvert // width differs per platform
		Ino:        st.Ino,
		Nlink:      uint32(st.Nlink),
		Mode:       fs.FileMode(st.Mode & 0o7777),
		ModTime:    mtime,
		AccessTime: atime,
		Flags:      statFlags(&st),
		IsSymlink:  isSymlink,
	}, nil
}

func (unixFS) Writable(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}

func (unixFS) Rename(from, to string) error {
	if err := os.Rename(from, to); err != nil {
		return classify("rename", from, err)
	}
	return nil
}

func (unixFS) Unlink(path string) error {
	if err := unix.Unlink(path); err != nil {
		return classify("unlink", path, err)
	}
	return nil
}

func (unixFS) Hardlink(existing, newPath string) error {
	if err := unix.Link(existing, newPath); err != nil {
		return classify("link", newPath, err)
	}
	return nil
}

func (unixFS) Symlink(targetText, newPath string) error {
	if err := unix.Symlink(targetText, newPath); err != nil {
		return classify("symlink", newPath, err)
	}
	return nil
}

func (unixFS) CopyMetadata(from, to string) error {
	fi, err := os.Lstat(from)
	if err != nil {
		return classify("stat", from, err)
	}
	if err := os.Chmod(to, fi.Mode()); err != nil {
		return classify("chmod", to, err)
	}
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		if err := os.Chown(to, int(st.Uid), int(st.Gid)); err != nil && !errors.Is(err, os.ErrPermission) {
			return classify("chown", to, err)
		}
	}
	if err := copyXattrs(from, to); err != nil && !errors.Is(err, os.ErrPermission) {
		return err
	}
	return os.Chtimes(to, fi.ModTime(), fi.ModTime())
}

// copyXattrs propagates every extended attribute from -> to. Namespaces the
// caller has no permission to read or write (e.g. "trusted.*" as a non-root
// user) are skipped rather than failing the whole copy; a filesystem with
// no xattr support at all (ENOTSUP/EOPNOTSUPP) is treated the same way.
func copyXattrs(from, to string) error {
	size, err := unix.Listxattr(from, nil)
	if err != nil {
		if errors.Is(err, unix.ENOTSUP) || errors.Is(err, unix.EOPNOTSUPP) {
			return nil
		}
		return classify("listxattr", from, err)
	}
	if size == 0 {
		return nil
	}

	buf := make([]byte, size)
	n, err := unix.Listxattr(from, buf)
	if err != nil {
		return classify("listxattr", from, err)
	}

	for _, name := range splitXattrNames(buf[:n]) {
		vsize, err := unix.Getxattr(from, name, nil)
		if err != nil {
			continue
		}
		val := make([]byte, vsize)
		if vsize > 0 {
			if _, err := unix.Getxattr(from, name, val); err != nil {
				continue
			}
		}
		if err := unix.Setxattr(to, name, val, 0); err != nil {
			if errors.Is(err, unix.ENOTSUP) || errors.Is(err, unix.EOPNOTSUPP) ||
				errors.Is(err, unix.EPERM) || errors.Is(err, unix.EACCES) {
				continue
			}
			return classify("setxattr", to, err)
		}
	}
	return nil
}

// splitXattrNames splits the NUL-separated name list Listxattr fills in.
func splitXattrNames(buf []byte) []string {
	var names []string
	start := 0
	for i, b := range buf {
		if b == 0 {
			if i > start {
				names = append(names, string(buf[start:i]))
			}
			start = i + 1
		}
	}
	return names
}

func (unixFS) SetTimes(path string, atime, mtime time.Time) error {
	if err := os.Chtimes(path, atime, mtime); err != nil {
		return classify("chtimes", path, err)
	}
	return nil
}

func classify(op, path string, err error) error {
	kind := ErrIo
	switch {
	case errors.Is(err, os.ErrNotExist), errors.Is(err, unix.ENOENT):
		kind = ErrNotFound
	case errors.Is(err, os.ErrPermission), errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM):
		kind = ErrPermission
	case errors.Is(err, unix.EXDEV):
		kind = ErrCrossDevice
	case errors.Is(err, os.ErrExist), errors.Is(err, unix.EEXIST):
		kind = ErrExist
	case errors.Is(err, unix.ENOTSUP), errors.Is(err, unix.EOPNOTSUPP):
		kind = ErrNoSupport
	}
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}
