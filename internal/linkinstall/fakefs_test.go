//go:build unix

package linkinstall

import (
	"fmt"
	"time"

	"github.com/ivoronin/jdupego/internal/platformfs"
)

// fakeInode is the fake filesystem's notion of a distinct on-disk entity:
// hardlinks to the same inode share one of these, exactly like the real
// thing. This is what makes Nlink/Ino-based gate checks (safetygate.go)
// exercisable without a real filesystem.
type fakeInode struct {
	dev, ino   uint64
	nlink      uint32
	content    string
	mode       uint32
	flags      uint32
	modTime    time.Time
	accessTime time.Time
	isSymlink  bool
	target     string // symlink text, when isSymlink
}

// fakeFS is a test-only platformfs.FS with injectable per-path failures,
// standing in for the real unix syscalls so the engine's rollback and
// reconciliation paths can be driven deterministically.
type fakeFS struct {
	paths map[string]*fakeInode
	nextIno uint64

	writable map[string]bool // path -> writable; absent = true

	failRename       map[string]error // keyed by "from"
	failUnlink       map[string]error
	failHardlink     map[string]error // keyed by newPath
	failSymlink      map[string]error // keyed by newPath
	failClone        map[string]error // keyed by newPath
	failCopyMetadata map[string]error // keyed by "to"
	failSetFlags     map[string]error

	supportsClone  bool
	supportsFlags  bool
	compressedMask uint32

	// setFlagsResetsTimes mimics the real clone.go comment: a flag-set
	// call on some platforms clobbers times as a side effect, which is
	// why reconcileCloneMetadata always reapplies SetTimes afterward.
	setFlagsResetsTimes bool
}

func newFakeFS() *fakeFS {
	return &fakeFS{
		paths:            make(map[string]*fakeInode),
		writable:         make(map[string]bool),
		failRename:       make(map[string]error),
		failUnlink:       make(map[string]error),
		failHardlink:     make(map[string]error),
		failSymlink:      make(map[string]error),
		failClone:        make(map[string]error),
		failCopyMetadata: make(map[string]error),
		failSetFlags:     make(map[string]error),
	}
}

func (f *fakeFS) addFile(path, content string) *fakeInode {
	f.nextIno++
	in := &fakeInode{
		dev: 1, ino: f.nextIno, nlink: 1, content: content, mode: 0o644,
		modTime: time.Unix(1000, 0), accessTime: time.Unix(1000, 0),
	}
	f.paths[path] = in
	return in
}

func (f *fakeFS) Stat(path string) (platformfs.StatSnapshot, error) {
	in, ok := f.paths[path]
	if !ok {
		return platformfs.StatSnapshot{}, &platformfs.Error{Kind: platformfs.ErrNotFound, Op: "stat", Path: path}
	}
	return platformfs.StatSnapshot{
		Size:       int64(len(in.content)),
		Dev:        in.dev,
		Ino:        in.ino,
		Nlink:      in.nlink,
		ModTime:    in.modTime,
		AccessTime: in.accessTime,
		Flags:      in.flags,
		IsSymlink:  in.isSymlink,
	}, nil
}

func (f *fakeFS) Writable(path string) bool {
	if w, ok := f.writable[path]; ok {
		return w
	}
	return true
}

func (f *fakeFS) Rename(from, to string) error {
	if err := f.failRename[from]; err != nil {
		return err
	}
	in, ok := f.paths[from]
	if !ok {
		return &platformfs.Error{Kind: platformfs.ErrNotFound, Op: "rename", Path: from}
	}
	delete(f.paths, from)
	f.paths[to] = in
	return nil
}

func (f *fakeFS) Unlink(path string) error {
	if err := f.failUnlink[path]; err != nil {
		return err
	}
	in, ok := f.paths[path]
	if !ok {
		return &platformfs.Error{Kind: platformfs.ErrNotFound, Op: "unlink", Path: path}
	}
	in.nlink--
	delete(f.paths, path)
	return nil
}

func (f *fakeFS) Hardlink(existing, newPath string) error {
	if err := f.failHardlink[newPath]; err != nil {
		return err
	}
	in, ok := f.paths[existing]
	if !ok {
		return &platformfs.Error{Kind: platformfs.ErrNotFound, Op: "link", Path: existing}
	}
	in.nlink++
	f.paths[newPath] = in
	return nil
}

func (f *fakeFS) Symlink(targetText, newPath string) error {
	if err := f.failSymlink[newPath]; err != nil {
		return err
	}
	f.nextIno++
	f.paths[newPath] = &fakeInode{
		dev: 1, ino: f.nextIno, nlink: 1, isSymlink: true, target: targetText,
		modTime: time.Unix(1000, 0), accessTime: time.Unix(1000, 0),
	}
	return nil
}

func (f *fakeFS) Clone(existing, newPath string) error {
	if err := f.failClone[newPath]; err != nil {
		return err
	}
	src, ok := f.paths[existing]
	if !ok {
		return &platformfs.Error{Kind: platformfs.ErrNotFound, Op: "clone", Path: existing}
	}
	f.nextIno++
	f.paths[newPath] = &fakeInode{
		dev: src.dev, ino: f.nextIno, nlink: 1, content: src.content, mode: src.mode,
		modTime: src.modTime, accessTime: src.accessTime,
	}
	return nil
}

func (f *fakeFS) CopyMetadata(from, to string) error {
	if err := f.failCopyMetadata[to]; err != nil {
		return err
	}
	src, ok1 := f.paths[from]
	dst, ok2 := f.paths[to]
	if !ok1 || !ok2 {
		return &platformfs.Error{Kind: platformfs.ErrNotFound, Op: "copy_metadata", Path: to}
	}
	dst.mode = src.mode
	dst.modTime = src.modTime
	dst.accessTime = src.accessTime
	return nil
}

func (f *fakeFS) SetFlags(path string, flags uint32) error {
	if err := f.failSetFlags[path]; err != nil {
		return err
	}
	in, ok := f.paths[path]
	if !ok {
		return &platformfs.Error{Kind: platformfs.ErrNotFound, Op: "chflags", Path: path}
	}
	in.flags = flags
	if f.setFlagsResetsTimes {
		in.modTime = time.Unix(0, 0)
		in.accessTime = time.Unix(0, 0)
	}
	return nil
}

func (f *fakeFS) SetTimes(path string, atime, mtime time.Time) error {
	in, ok := f.paths[path]
	if !ok {
		return &platformfs.Error{Kind: platformfs.ErrNotFound, Op: "chtimes", Path: path}
	}
	in.accessTime = atime
	in.modTime = mtime
	return nil
}

func (f *fakeFS) SupportsClone() bool    { return f.supportsClone }
func (f *fakeFS) SupportsFlags() bool    { return f.supportsFlags }
func (f *fakeFS) CompressedMask() uint32 { return f.compressedMask }

var _ platformfs.FS = (*fakeFS)(nil)

func injectedErr(op, path string) error {
	return &platformfs.Error{Kind: platformfs.ErrIo, Op: op, Path: path, Err: fmt.Errorf("injected failure")}
}
