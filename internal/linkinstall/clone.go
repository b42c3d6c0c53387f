package linkinstall

import "github.com/ivoronin/jdupego/internal/platformfs"

// reconcileCloneMetadata runs the post-clone steps: restore owner/times/
// xattrs from the aside copy, then force the compression bit to match
// the source so the cloned extents stay readable under the source's
// compression regime, finally reapplying the duplicate's original
// access/modification times since the flag-set step overwrites them as
// a side effect.
func reconcileCloneMetadata(fsys platformfs.FS, aside, dupPath string, capture cloneCapture) error {
	if err := fsys.CopyMetadata(aside, dupPath); err != nil {
		return err
	}

	if !fsys.SupportsFlags() {
		return nil
	}

	mask := fsys.CompressedMask()
	merged := capture.srcPreserved | (capture.dupFlags &^ mask)
	if capture.dupFlags == merged {
		return nil
	}

	if err := fsys.SetFlags(dupPath, merged); err != nil {
		return err
	}
	return fsys.SetTimes(dupPath, capture.dupAtime, capture.dupMtime)
}
