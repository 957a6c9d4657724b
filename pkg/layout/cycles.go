package layout

// FindCycle searches the references reachable from root for a cycle and
// returns it as a path that starts and ends with the same definition, or
// nil if the reachable graph is acyclic.
func FindCycle(s *Store, root CellDefID) []CellDefID {
	const (
		white = iota
		gray
		black
	)

	if _, ok := slot(root, len(s.defs)); !ok {
		return nil
	}

	color := make([]uint8, len(s.defs))
	var stack []CellDefID
	var cycle []CellDefID

	var dfs func(id CellDefID) bool
	dfs = func(id CellDefID) bool {
		color[id-1] = gray
		stack = append(stack, id)
		for _, ref := range s.defs[id-1].CellRefs {
			switch color[ref.Target-1] {
			case white:
				if dfs(ref.Target) {
					return true
				}
			case gray:
				for i, on := range stack {
					if on == ref.Target {
						cycle = append(append(cycle, stack[i:]...), ref.Target)
						return true
					}
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[id-1] = black
		return false
	}

	dfs(root)
	return cycle
}
