package scanner

import (
	"github.com/ivoronin/jdupego/internal/platformfs"
	"github.com/ivoronin/jdupego/internal/types"
)

var fs = platformfs.New()

// newFileInfo stats path through the platform facade and builds a FileInfo.
// Using the facade here (rather than a raw syscall.Stat_t cast) keeps the
// scanner as platform-agnostic as the link installation engine it feeds.
func newFileInfo(path string) (*types.FileInfo, error) {
	st, err := fs.Stat(path)
	if err != nil {
		return nil, err
	}
	return &types.FileInfo{
		Path:       path,
		Size:       st.Size,
		ModTime:    st.ModTime,
		AccessTime: st.AccessTime,
		Dev:        st.Dev,
		Ino:        st.Ino,
		Nlink:      st.Nlink,
		Flags:      st.Flags,
		IsSymlink:  st.IsSymlink,
	}, nil
}
