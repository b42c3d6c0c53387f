//go:build unix

package linkinstall

import (
	"os"
	"syscall"
	"testing"

	"github.com/ivoronin/jdupego/internal/types"
)

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
}

func getFileInfo(t *testing.T, path string) *types.FileInfo {
	t.Helper()
	info, err := os.Lstat(path)
	if err != nil {
		t.Fatalf("failed to stat %s: %v", path, err)
	}
	stat := info.Sys().(*syscall.Stat_t)
	return &types.FileInfo{
		Path:      path,
		Size:      info.Size(),
		ModTime:   info.ModTime(),
		Dev:       uint64(stat.Dev), //nolint:unconvert
		Ino:       stat.Ino,
		Nlink:     uint32(stat.Nlink),
		IsSymlink: info.Mode()&os.ModeSymlink != 0,
	}
}

func sameInode(t *testing.T, a, b string) bool {
	t.Helper()
	return getFileInfo(t, a).Ino == getFileInfo(t, b).Ino
}

func oneClass(groups ...types.SiblingGroup) types.DuplicateGroups {
	return types.NewDuplicateGroups([]types.DuplicateGroup{
		types.NewDuplicateGroup(groups),
	})
}

func singleton(f *types.FileInfo) types.SiblingGroup {
	return types.NewSiblingGroup([]*types.FileInfo{f})
}
