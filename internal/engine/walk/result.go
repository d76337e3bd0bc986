package walk

import "slices"

// ResultSet holds unique paths. Sequential traversals keep first-discovery
// order; concurrent traversals return it sorted.
type ResultSet []string

func (r ResultSet) Len() int {
	return len(r)
}

// Sorted returns a lexicographically sorted copy.
func (r ResultSet) Sorted() ResultSet {
	out := slices.Clone(r)
	slices.Sort(out)
	return out
}
