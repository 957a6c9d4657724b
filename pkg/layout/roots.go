package layout

import "errors"

// ErrNoRoots reports a store in which every definition is referenced,
// which only happens when references form cycles.
var ErrNoRoots = errors.New("no root definitions")

// FindRoots returns the definitions that no definition references, in
// creation order. A store whose references form only cycles has no roots;
// callers report that as [ErrNoRoots].
func FindRoots(s *Store) []CellDefID {
	referenced := make([]bool, len(s.defs))
	for i := range s.defs {
		for _, ref := range s.defs[i].CellRefs {
			if j, ok := slot(ref.Target, len(s.defs)); ok {
				referenced[j] = true
			}
		}
	}

	var roots []CellDefID
	for i, ref := range referenced {
		if !ref {
			roots = append(roots, CellDefID(i+1))
		}
	}
	return roots
}
