package linkinstall

import (
	"path/filepath"
)

// relativeLinkTarget computes the text a symlink at dupPath should carry
// so that it resolves to srcPath, expressed relative to dupPath's
// directory. Collapsing the common prefix keeps the link portable if the
// pair is later moved as a unit (e.g. the whole tree rsynced elsewhere).
//
// sameCanonical is true when both paths resolve to the same location
// after cleaning; the caller treats that as a skip, not an error.
func relativeLinkTarget(srcPath, dupPath string) (target string, sameCanonical bool, err error) {
	srcAbs, err := filepath.Abs(srcPath)
	if err != nil {
		return "", false, err
	}
	dupAbs, err := filepath.Abs(dupPath)
	if err != nil {
		return "", false, err
	}

	if filepath.Clean(srcAbs) == filepath.Clean(dupAbs) {
		return "", true, nil
	}

	rel, err := filepath.Rel(filepath.Dir(dupAbs), srcAbs)
	if err != nil {
		// Rel only fails when one path is relative and the other
		// isn't, which can't happen here since both were made
		// absolute above; fall back to the absolute path regardless.
		return srcAbs, false, nil
	}
	return rel, false, nil
}
