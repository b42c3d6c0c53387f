package linkinstall

import "github.com/ivoronin/jdupego/internal/types"

// flattenClass lays a DuplicateGroup out as a single dense slice of its
// member files, in sibling-group order then path order. This is the
// "index_of_class / slice_of_members" layout the design notes call for
// in place of the original pointer-chain traversal, and it needs no
// scratch array sized to the largest class: the slice already is one.
func flattenClass(class types.DuplicateGroup) []*types.FileInfo {
	var members []*types.FileInfo
	for _, siblings := range class.Items() {
		members = append(members, siblings.Items()...)
	}
	return members
}

// selectInitialSource picks the starting source and the index at which
// pair iteration should begin, per link-type-specific rules.
//
//   - Hard/Clone: source is member #1 (index 0); iteration starts at
//     member #2 (index 1).
//   - Symbolic: source is the first member that is not itself a
//     symlink; iteration starts at index 0 and skips the source's own
//     index. If every member is a symlink, ok is false and the whole
//     class is skipped.
func selectInitialSource(members []*types.FileInfo, linkType LinkType) (source *types.FileInfo, sourceIdx, startIdx int, ok bool) {
	if linkType != Symbolic {
		return members[0], 0, 1, true
	}

	for i, m := range members {
		if !m.IsSymlink {
			return m, i, 0, true
		}
	}
	return nil, -1, -1, false
}
