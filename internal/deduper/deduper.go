// Package deduper drives the link installation engine from the CLI.
//
// It is a thin adapter: take the linkinstall.Options the CLI built from its
// flags, hand them and the confirmed duplicate groups to
// linkinstall.InstallLinks, and render a
// progress-bar summary of what the engine reported. All link mechanics
// (source selection, safety checks, atomic replacement, rollback) live
// in internal/linkinstall; this package owns none of it.
package deduper

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ivoronin/jdupego/internal/linkinstall"
	"github.com/ivoronin/jdupego/internal/progress"
	"github.com/ivoronin/jdupego/internal/types"
)

// Deduper installs links in place of confirmed duplicates.
//
// The deduper is designed for single-use: create with New(), call Run() once.
type Deduper struct {
	groups       types.DuplicateGroups
	linkType     linkinstall.LinkType
	opts         linkinstall.Options
	showProgress bool
	out, errOut  io.Writer
}

// New creates a Deduper for the given confirmed duplicate groups.
func New(groups types.DuplicateGroups, linkType linkinstall.LinkType, opts linkinstall.Options, showProgress bool, out, errOut io.Writer) *Deduper {
	return &Deduper{
		groups:       groups,
		linkType:     linkType,
		opts:         opts,
		showProgress: showProgress,
		out:          out,
		errOut:       errOut,
	}
}

// stats tracks the running summary shown in the progress bar.
type stats struct {
	totalSets  int
	succeeded  int
	savedBytes int64
	startTime  time.Time
}

func (s *stats) String() string {
	return fmt.Sprintf("Installed %d links across %d sets, saved %s in %.1fs",
		s.succeeded, s.totalSets,
		humanize.IBytes(uint64(s.savedBytes)),
		time.Since(s.startTime).Seconds())
}

// Run executes the engine over every duplicate group and returns its result.
func (d *Deduper) Run() *linkinstall.Result {
	bar := progress.New(d.showProgress, -1)
	st := &stats{totalSets: d.groups.Len(), startTime: time.Now()}
	bar.Describe(st)

	result := linkinstall.InstallLinks(d.groups, d.linkType, d.opts, d.out, d.errOut)

	sizeByPath := sizeIndex(d.groups)
	for _, pair := range result.Pairs {
		if pair.Success() {
			st.succeeded++
			st.savedBytes += sizeByPath[pair.Target]
		}
	}

	bar.Finish(st)
	return result
}

// sizeIndex maps every known file path to its scanned size, so bytes
// saved can be tallied from the engine's path-only outcomes.
func sizeIndex(groups types.DuplicateGroups) map[string]int64 {
	idx := make(map[string]int64)
	for _, class := range groups.Items() {
		for _, siblings := range class.Items() {
			for _, f := range siblings.Items() {
				idx[f.Path] = f.Size
			}
		}
	}
	return idx
}
