package linkinstall

import (
	"time"

	"github.com/ivoronin/jdupego/internal/platformfs"
	"github.com/ivoronin/jdupego/internal/types"
)

// linkCountCeiling is the per-filesystem hard link ceiling on platforms
// that enforce one (e.g. 1024 on HFS+/APFS-adjacent filesystems).
const linkCountCeiling = 1024

// gateVerdict is what the safety gate decided for a (source, duplicate) pair.
type gateVerdict int

const (
	gateProceed gateVerdict = iota
	gateSkipSilent
	gateSkipWarn
	gatePromote
)

// cloneCapture is the pre-state the clone step needs to restore and
// reconcile afterward: the duplicate's own flags/times, and the bit the
// source wants to force onto the result.
type cloneCapture struct {
	dupFlags     uint32
	dupAtime     time.Time
	dupMtime     time.Time
	srcPreserved uint32
}

// gateResult is the gate's verdict plus anything downstream steps need.
type gateResult struct {
	verdict       gateVerdict
	reason        string
	informational bool
	clone         cloneCapture
}

// runGate executes the precondition checks in order. Each numbered
// comment corresponds to one step of the safety gate.
func runGate(fsys platformfs.FS, linkType LinkType, opts Options, src, dup *types.FileInfo) gateResult {
	if linkType != Symbolic {
		// 1. same device required for hard link / clone.
		if src.Dev != dup.Dev {
			return gateResult{verdict: gateSkipWarn, reason: "cannot hardlink across device boundaries (different device)"}
		}
		// 2. already same inode.
		if src.Ino == dup.Ino {
			if opts.ConsiderHardLinks {
				return gateResult{verdict: gateSkipSilent, informational: true}
			}
			return gateResult{verdict: gateSkipSilent}
		}
	} else {
		// 3. symlink-to-symlink, or a pair that is really the same element.
		if src.IsSymlink && dup.IsSymlink {
			return gateResult{verdict: gateSkipSilent}
		}
		if src == dup {
			return gateResult{verdict: gateSkipSilent}
		}
	}

	// 4. writability of the duplicate.
	if !fsys.Writable(dup.Path) {
		return gateResult{verdict: gateSkipWarn, reason: "target is not writable"}
	}

	if !opts.NoChangeCheck {
		// 5. source changed since scan -> promote, skip this pair.
		if fileChanged(fsys, src) {
			return gateResult{verdict: gatePromote, reason: "source modified since scan"}
		}
		// 6. target changed since scan -> skip, no promotion.
		if fileChanged(fsys, dup) {
			return gateResult{verdict: gateSkipWarn, reason: "target modified since scan"}
		}
	}

	if linkType != Symbolic {
		// 7. link-count ceiling, source side promotes, target side skips.
		srcSt, err := fsys.Stat(src.Path)
		if err != nil {
			return gateResult{verdict: gatePromote, reason: "source stat failed"}
		}
		if srcSt.Nlink >= linkCountCeiling {
			return gateResult{verdict: gatePromote, reason: "source at max link count"}
		}
		dupSt, err := fsys.Stat(dup.Path)
		if err != nil {
			return gateResult{verdict: gateSkipWarn, reason: "target stat failed"}
		}
		if dupSt.Nlink >= linkCountCeiling {
			return gateResult{verdict: gateSkipWarn, reason: "target at max link count"}
		}
	}

	result := gateResult{verdict: gateProceed}
	if linkType == Clone {
		// 8. capture clone-only pre-state for later reconciliation.
		dupSt, err := fsys.Stat(dup.Path)
		if err != nil {
			return gateResult{verdict: gateSkipWarn, reason: "target stat failed"}
		}
		srcSt, err := fsys.Stat(src.Path)
		if err != nil {
			return gateResult{verdict: gatePromote, reason: "source stat failed"}
		}
		result.clone = cloneCapture{
			dupFlags:     dupSt.Flags,
			dupAtime:     dupSt.AccessTime,
			dupMtime:     dupSt.ModTime,
			srcPreserved: srcSt.Flags & fsys.CompressedMask(),
		}
	}
	return result
}

// fileChanged compares a fresh stat against the scan-time snapshot.
func fileChanged(fsys platformfs.FS, f *types.FileInfo) bool {
	st, err := fsys.Stat(f.Path)
	if err != nil {
		return true
	}
	return st.Size != f.Size || st.Dev != f.Dev || st.Ino != f.Ino || !st.ModTime.Equal(f.ModTime)
}
