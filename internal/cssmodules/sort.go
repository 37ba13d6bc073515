package icm

// SortDependencies returns record names in an order where every dependency
// comes before its dependents. Records must be given in registration
// order; unrelated records keep that order. Dependencies that are not
// among records are treated as already satisfied.
//
// A dependency cycle yields a *CyclicDependencyError.
func SortDependencies(records []*StyleRecord) ([]string, error) {
	byName := make(map[string]*StyleRecord, len(records))
	for _, rec := range records {
		byName[rec.Name] = rec
	}

	// Depth-first search with two mark sets:
	// permanent: emitted, with all of its dependencies before it.
	// temporary: on the current path; meeting one again is a cycle.
	permanent := make(map[string]bool, len(records))
	temporary := make(map[string]bool)
	var path []string
	sorted := make([]string, 0, len(records))

	var visit func(rec *StyleRecord) error
	visit = func(rec *StyleRecord) error {
		if permanent[rec.Name] {
			return nil
		}
		if temporary[rec.Name] {
			return &CyclicDependencyError{Cycle: cycleFrom(path, rec.Name)}
		}

		temporary[rec.Name] = true
		path = append(path, rec.Name)

		for _, dep := range rec.Dependencies {
			depRec, ok := byName[dep]
			if !ok {
				continue // not loaded (yet)
			}
			if err := visit(depRec); err != nil {
				return err
			}
		}

		path = path[:len(path)-1]
		delete(temporary, rec.Name)
		permanent[rec.Name] = true
		sorted = append(sorted, rec.Name)
		return nil
	}

	for _, rec := range records {
		if err := visit(rec); err != nil {
			return nil, err
		}
	}
	return sorted, nil
}

func cycleFrom(path []string, name string) []string {
	for i, n := range path {
		if n == name {
			cycle := make([]string, 0, len(path)-i+1)
			cycle = append(cycle, path[i:]...)
			return append(cycle, name)
		}
	}
	return []string{name, name}
}
