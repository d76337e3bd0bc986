package walk

import "strings"

// Separator joins path segments, root first.
const Separator = `\`

// JoinPath derives a child's path from its parent's path and the child name.
func JoinPath(parent, name string) string {
	var b strings.Builder
	b.Grow(len(parent) + len(Separator) + len(name))
	b.WriteString(parent)
	b.WriteString(Separator)
	b.WriteString(name)
	return b.String()
}

// SplitPath is the inverse of JoinPath applied repeatedly from a root.
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, Separator)
}
