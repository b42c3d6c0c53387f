// Package linkinstall transactionally replaces duplicate files with hard
// links, symbolic links, or copy-on-write clones to a chosen source file.
//
// It is the engine stage that runs after duplicate detection: given
// equivalence classes of files already confirmed byte-identical, it picks
// a source per class, then installs a link at each other member's path
// without ever leaving a class member in a state where its content has
// been lost. Every step that replaces an on-disk entity first renames it
// aside, so a failure at any point can restore the original file under
// its original name.
//
// The engine is single-threaded and synchronous by design: the
// rename-aside/create/cleanup sequence is only safe if nothing else in
// the process is racing the same path, and the filesystem is the only
// arbitrator of races with other processes.
package linkinstall

import "fmt"

// LinkType selects what kind of directory entry replaces a duplicate.
type LinkType int

const (
	Hard LinkType = iota
	Symbolic
	Clone
)

func (t LinkType) String() string {
	switch t {
	case Hard:
		return "hard"
	case Symbolic:
		return "symbolic"
	case Clone:
		return "clone"
	default:
		return "unknown"
	}
}

// Options are the read-only, process-wide knobs the engine consults.
// They replace the original implementation's global flag variable with
// an explicit value passed to the entry point.
type Options struct {
	HideProgress     bool // Suppress per-pair glyph lines; warnings still print.
	ConsiderHardLinks bool // Emit an informational glyph for already-linked pairs.
	NoChangeCheck    bool // Skip the "modified since scan" gate.
	OnlyFirstClass   bool // Process exactly the first eligible class, then stop.
	DryRun           bool // Evaluate the gate but perform no filesystem mutation.
}

// outcomeKind classifies what happened to one (source, duplicate) pair.
type outcomeKind int

const (
	outcomeSuccess outcomeKind = iota
	outcomeInformational // already linked; printed but never a failure
	outcomeSkippedSilent
	outcomeSkippedWarn
	outcomeFailed
)

// PairOutcome is the per-pair result surfaced to callers for reporting
// and testing; it mirrors the spec's Outcome variant.
type PairOutcome struct {
	Source string
	Target string
	Kind   outcomeKind
	Glyph  string // e.g. "---->"; empty when nothing should print
	Reason string // non-empty for skipped/failed outcomes
}

func (o PairOutcome) Failed() bool        { return o.Kind == outcomeFailed }
func (o PairOutcome) Skipped() bool       { return o.Kind == outcomeSkippedWarn || o.Kind == outcomeSkippedSilent }
func (o PairOutcome) Success() bool       { return o.Kind == outcomeSuccess }
func (o PairOutcome) Informational() bool { return o.Kind == outcomeInformational }

func (o PairOutcome) String() string {
	switch o.Kind {
	case outcomeSuccess:
		return fmt.Sprintf("%s %s -> %s", o.Glyph, o.Target, o.Source)
	default:
		return fmt.Sprintf("skip %s: %s", o.Target, o.Reason)
	}
}

// Result aggregates every pair outcome across an InstallLinks call.
type Result struct {
	Pairs        []PairOutcome
	FailureBit   bool // set whenever any non-fatal failure occurred
	AnyClassSeen bool // true iff at least one class had 2+ members
}

// Succeeded reports the count of pairs that completed with a new link.
func (r *Result) Succeeded() int {
	n := 0
	for _, p := range r.Pairs {
		if p.Success() {
			n++
		}
	}
	return n
}
