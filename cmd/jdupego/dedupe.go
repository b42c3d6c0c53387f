package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/ivoronin/jdupego/internal/cache"
	"github.com/ivoronin/jdupego/internal/deduper"
	"github.com/ivoronin/jdupego/internal/linkinstall"
	"github.com/ivoronin/jdupego/internal/scanner"
	"github.com/ivoronin/jdupego/internal/screener"
	"github.com/ivoronin/jdupego/internal/verifier"
	"github.com/spf13/cobra"
)

// dedupeOptions holds CLI flags for the dedupe command.
type dedupeOptions struct {
	minSizeStr            string
	excludes              []string
	workers               int
	noProgress            bool
	dryRun                bool
	linkTypeStr           string
	considerHardLinks     bool
	noChangeCheck         bool
	onlyFirstClass        bool
	trustDeviceBoundaries bool
	cacheFile             string
}

// newDedupeCmd creates the dedupe subcommand.
func newDedupeCmd() *cobra.Command {
	opts := &dedupeOptions{
		minSizeStr:  "1",
		workers:     runtime.NumCPU(),
		linkTypeStr: "hard",
	}

	cmd := &cobra.Command{
		Use:   "dedupe [paths...]",
		Short: "Find duplicate files and install links in their place",
		Long: `Scans for duplicates and transactionally replaces them with hard links,
symbolic links, or copy-on-write clones to one chosen source per class.

--link-type selects the replacement kind:
  hard     same-device hard links (default)
  symlink  symbolic links; crosses device boundaries; the copy whose
           path sorts first keeps real data, the others become links
  clone    copy-on-write clones where the filesystem supports them

For example:
  jdupego dedupe /primary /secondary --link-type symlink
keeps files in /primary (which sorts before /secondary), with /secondary
containing symlinks pointing to them.

Use --dry-run to preview without making changes.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runDedupe(args, opts)
		},
	}

	// Bind flags to options
	cmd.Flags().StringVarP(&opts.minSizeStr, "min-size", "m", opts.minSizeStr, "Minimum file size (e.g., 100, 1K, 10M, 1G)")
	cmd.Flags().StringSliceVarP(&opts.excludes, "exclude", "e", nil, "Glob patterns to exclude")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", opts.workers, "Number of parallel workers")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "Disable progress output")
	cmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "n", false, "Preview changes without executing")
	cmd.Flags().StringVar(&opts.linkTypeStr, "link-type", opts.linkTypeStr, "Link type to install: hard, symlink, or clone")
	cmd.Flags().BoolVar(&opts.considerHardLinks, "consider-hard-links", false, "Report pairs that are already hardlinked to each other")
	cmd.Flags().BoolVar(&opts.noChangeCheck, "no-change-check", false, "Skip the modified-since-scan safety check")
	cmd.Flags().BoolVar(&opts.onlyFirstClass, "only-first-class", false, "Process only the first duplicate class, then stop")
	cmd.Flags().BoolVar(&opts.trustDeviceBoundaries, "trust-device-boundaries", false,
		"Assume devices have independent inode spaces. WARNING: Unsafe if the same filesystem is mounted at multiple paths (e.g., NFS)")
	cmd.Flags().StringVar(&opts.cacheFile, "cache-file", "", "Path to hash cache file (enables caching)")

	return cmd
}

// parseLinkType maps the --link-type flag value to a linkinstall.LinkType.
func parseLinkType(s string) (linkinstall.LinkType, error) {
	switch s {
	case "hard":
		return linkinstall.Hard, nil
	case "symlink":
		return linkinstall.Symbolic, nil
	case "clone":
		return linkinstall.Clone, nil
	default:
		return 0, fmt.Errorf("invalid --link-type %q (want hard, symlink, or clone)", s)
	}
}

// drainErrors consumes errors from a channel and writes them to stderr.
// Clears progress bar line before printing to avoid visual collision.
func drainErrors(errs <-chan error) {
	for err := range errs {
		fmt.Fprintf(os.Stderr, "\r\033[Kerror: %v\n", err)
	}
}

// runDedupe executes the dedupe pipeline: scan → screen → verify → dedupe.
func runDedupe(paths []string, opts *dedupeOptions) error {
	minSize, err := parseSize(opts.minSizeStr)
	if err != nil {
		return fmt.Errorf("invalid --min-size: %w", err)
	}

	if err := validateGlobPatterns(opts.excludes); err != nil {
		return fmt.Errorf("invalid --exclude: %w", err)
	}

	linkType, err := parseLinkType(opts.linkTypeStr)
	if err != nil {
		return err
	}

	showProgress := !opts.noProgress

	// Create shared error channel
	errors := make(chan error, 100)
	go drainErrors(errors)
	defer close(errors)

	// Phase 1: Scan filesystem. Symbolic runs need symlinks recorded
	// (flagged, not skipped) so a rerun recognizes links a prior pass
	// already left behind and the symbolic planner's "no non-symlink
	// source" rule can fire correctly.
	includeSymlinks := linkType == linkinstall.Symbolic
	files := scanner.New(paths, minSize, opts.excludes, opts.workers, includeSymlinks, showProgress, errors).Run()

	if len(files) == 0 {
		return nil
	}

	// Phase 2: Screen for duplicate candidates
	candidates := screener.New(files, showProgress, opts.trustDeviceBoundaries).Run()
	if candidates.Len() == 0 {
		return nil
	}

	// Phase 3: Open cache (if enabled) and verify duplicates
	hashCache, err := cache.Open(opts.cacheFile)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer func() { _ = hashCache.Close() }()

	duplicates := verifier.New(candidates, opts.workers, showProgress, errors, hashCache).Run()

	// Phase 4: install links in place of duplicates
	linkOpts := linkinstall.Options{
		HideProgress:      !showProgress,
		ConsiderHardLinks: opts.considerHardLinks,
		NoChangeCheck:     opts.noChangeCheck,
		OnlyFirstClass:    opts.onlyFirstClass,
		DryRun:            opts.dryRun,
	}
	result := deduper.New(duplicates, linkType, linkOpts, showProgress, os.Stdout, os.Stderr).Run()
	if result.FailureBit {
		return fmt.Errorf("one or more files could not be deduplicated")
	}

	return nil
}
