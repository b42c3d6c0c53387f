package linkinstall

import (
	"io"

	"github.com/ivoronin/jdupego/internal/platformfs"
	"github.com/ivoronin/jdupego/internal/types"
)

// pathBufSize bounds the composed aside path, matching the buffer the
// original tool sized its path work area to.
const pathBufSize = 4096

// asideSuffix is appended to a duplicate's path to produce its rollback
// copy. It must stay unique enough not to collide with real files.
const asideSuffix = ".__jdupes__.tmp"

// InstallLinks is the engine's entry point. It walks classes in order,
// picks a source per class, and replaces every other member with a
// link/clone to that source, reporting one outcome per pair.
func InstallLinks(classes types.DuplicateGroups, linkType LinkType, opts Options, out, errOut io.Writer) *Result {
	return installLinks(platformfs.New(), classes, linkType, opts, out, errOut)
}

// installLinks is InstallLinks with the platform facade passed in, so
// tests can exercise the engine against a fake FS with injectable
// per-call failures instead of the real syscalls.
func installLinks(fsys platformfs.FS, classes types.DuplicateGroups, linkType LinkType, opts Options, out, errOut io.Writer) *Result {
	rep := newReporter(out, errOut, opts.HideProgress)
	result := &Result{}

	if linkType == Clone && !fsys.SupportsClone() {
		rep.warn("clone links are not supported on this platform")
		result.FailureBit = true
		return result
	}

	for _, class := range classes.Items() {
		members := flattenClass(class)
		if len(members) < 2 {
			continue
		}

		result.AnyClassSeen = true

		src, sourceIdx, startIdx, ok := selectInitialSource(members, linkType)
		if !ok {
			continue
		}
		rep.source(src.Path)

		for i := startIdx; i < len(members); i++ {
			if i == sourceIdx {
				continue
			}
			dup := members[i]

			gr := runGate(fsys, linkType, opts, src, dup)
			switch gr.verdict {
			case gateSkipSilent:
				if gr.informational {
					rep.informational(dup.Path)
					result.Pairs = append(result.Pairs, PairOutcome{
						Source: src.Path, Target: dup.Path,
						Kind: outcomeInformational, Glyph: glyphAlreadyLinked,
					})
				}
				continue
			case gateSkipWarn:
				rep.warn("%s: %s", dup.Path, gr.reason)
				rep.skipOrFail(dup.Path)
				result.Pairs = append(result.Pairs, PairOutcome{
					Source: src.Path, Target: dup.Path,
					Kind: outcomeSkippedWarn, Glyph: glyphSkipOrFail, Reason: gr.reason,
				})
				result.FailureBit = true
				continue
			case gatePromote:
				rep.warn("%s: %s, promoting to source", dup.Path, gr.reason)
				result.FailureBit = true
				sourceIdx = i
				src = dup
				rep.source(src.Path)
				continue
			}

			var outcome PairOutcome
			if opts.DryRun {
				outcome = PairOutcome{Source: src.Path, Target: dup.Path, Kind: outcomeSuccess, Glyph: successGlyph(linkType)}
				rep.success(outcome.Glyph, dup.Path)
			} else {
				outcome = installOne(fsys, rep, linkType, src, dup, gr.clone)
			}
			result.Pairs = append(result.Pairs, outcome)
			if outcome.Failed() {
				result.FailureBit = true
			}
		}

		if opts.OnlyFirstClass {
			break
		}
	}

	if !result.AnyClassSeen {
		rep.noDuplicates()
	}
	return result
}

// installOne runs the S1-S5 atomic replacement state machine for one
// pair once the gate has already proceeded.
func installOne(fsys platformfs.FS, rep *reporter, linkType LinkType, src, dup *types.FileInfo, clone cloneCapture) PairOutcome {
	var symTarget string
	if linkType == Symbolic {
		target, sameCanonical, err := relativeLinkTarget(src.Path, dup.Path)
		if err != nil {
			rep.warn("%s: %v", dup.Path, err)
			rep.skipOrFail(dup.Path)
			return PairOutcome{Source: src.Path, Target: dup.Path, Kind: outcomeSkippedWarn, Glyph: glyphSkipOrFail, Reason: err.Error()}
		}
		if sameCanonical {
			return PairOutcome{Source: src.Path, Target: dup.Path, Kind: outcomeSkippedSilent}
		}
		symTarget = target
	}

	// S1: compose the aside path.
	aside := dup.Path + asideSuffix
	if len(aside) > pathBufSize {
		rep.warn("%s: aside path exceeds path buffer limit", dup.Path)
		rep.skipOrFail(dup.Path)
		return PairOutcome{Source: src.Path, Target: dup.Path, Kind: outcomeSkippedWarn, Glyph: glyphSkipOrFail, Reason: "aside path too long"}
	}

	// The aside path must not collide with a preexisting file; a stray
	// leftover from an interrupted prior run blocks this pair rather
	// than silently overwriting whatever the rename would clobber.
	if _, err := fsys.Stat(aside); err == nil {
		rep.warn("%s: aside path %s already exists", dup.Path, aside)
		rep.skipOrFail(dup.Path)
		return PairOutcome{Source: src.Path, Target: dup.Path, Kind: outcomeSkippedWarn, Glyph: glyphSkipOrFail, Reason: "aside path already exists"}
	}

	// S2: rename the duplicate aside.
	if err := fsys.Rename(dup.Path, aside); err != nil {
		_ = fsys.Rename(aside, dup.Path) // defensive: rename may have partially landed
		rep.warn("%s: unable to rename aside: %v", dup.Path, err)
		rep.skipOrFail(dup.Path)
		return PairOutcome{Source: src.Path, Target: dup.Path, Kind: outcomeSkippedWarn, Glyph: glyphSkipOrFail, Reason: "aside rename failed"}
	}

	// S3: create the replacement entity at dup.Path.
	var linkErr error
	switch linkType {
	case Hard:
		linkErr = fsys.Hardlink(src.Path, dup.Path)
	case Symbolic:
		linkErr = fsys.Symlink(symTarget, dup.Path)
	case Clone:
		linkErr = fsys.Clone(src.Path, dup.Path)
	}

	if linkErr != nil {
		// R3: restore the original under its original name.
		rep.warn("%s: unable to link: %v", dup.Path, linkErr)
		if err := fsys.Rename(aside, dup.Path); err != nil {
			rep.warn("%s: couldn't revert (original held at %s): %v", dup.Path, aside, err)
		}
		rep.skipOrFail(dup.Path)
		return PairOutcome{Source: src.Path, Target: dup.Path, Kind: outcomeFailed, Glyph: glyphSkipOrFail, Reason: linkErr.Error()}
	}

	if linkType == Clone {
		if err := reconcileCloneMetadata(fsys, aside, dup.Path, clone); err != nil {
			rep.warn("%s: clone metadata reconciliation failed: %v", dup.Path, err)
			if unlinkErr := fsys.Unlink(aside); unlinkErr != nil {
				rep.warn("%s: cleanup of aside copy failed: %v", dup.Path, unlinkErr)
			}
			rep.skipOrFail(dup.Path)
			return PairOutcome{Source: src.Path, Target: dup.Path, Kind: outcomeFailed, Glyph: glyphSkipOrFail, Reason: "clone metadata reconciliation failed"}
		}
	}

	// S4: cleanup the aside copy.
	if err := fsys.Unlink(aside); err != nil {
		// R4: try to undo the link and restore the original.
		rep.warn("%s: unable to remove aside copy %s: %v", dup.Path, aside, err)
		if err2 := fsys.Unlink(dup.Path); err2 != nil {
			rep.warn("%s: couldn't remove link to restore original: %v", dup.Path, err2)
		} else if err3 := fsys.Rename(aside, dup.Path); err3 != nil {
			rep.warn("%s: couldn't revert after removing link: %v", dup.Path, err3)
		}
		rep.skipOrFail(dup.Path)
		return PairOutcome{Source: src.Path, Target: dup.Path, Kind: outcomeFailed, Glyph: glyphSkipOrFail, Reason: "aside cleanup failed"}
	}

	// S5: done.
	glyph := successGlyph(linkType)
	rep.success(glyph, dup.Path)
	return PairOutcome{Source: src.Path, Target: dup.Path, Kind: outcomeSuccess, Glyph: glyph}
}
