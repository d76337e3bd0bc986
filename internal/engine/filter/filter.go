// Package filter selects which traversal results are shown. It never affects
// what a traversal discovers or counts.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gobwas/glob"

	"reggie/internal/core/errors"
)

// Matcher combines an optional case-insensitive regular expression and an
// optional case-insensitive glob. A path matches when every configured
// pattern matches.
//
// Globs see paths with the `\` separator rewritten to `/`, so `*` stays
// within one segment, `**` crosses segments, and `\` keeps its meaning as
// the glob escape character.
type Matcher struct {
	re   *regexp.Regexp
	glob glob.Glob
}

func New(pattern, globPattern string) (*Matcher, error) {
	m := &Matcher{}
	if pattern != "" {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError, fmt.Sprintf("invalid filter %q", pattern))
		}
		m.re = re
	}
	if globPattern != "" {
		g, err := glob.Compile(strings.ToLower(globPattern), '/')
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError, fmt.Sprintf("invalid glob %q", globPattern))
		}
		m.glob = g
	}
	return m, nil
}

// Active reports whether any pattern is configured.
func (m *Matcher) Active() bool {
	return m != nil && (m.re != nil || m.glob != nil)
}

func (m *Matcher) Match(path string) bool {
	if m == nil {
		return true
	}
	if m.re != nil && !m.re.MatchString(path) {
		return false
	}
	if m.glob != nil && !m.glob.Match(strings.ToLower(strings.ReplaceAll(path, `\`, "/"))) {
		return false
	}
	return true
}

// Apply returns the matching paths in their original order.
func (m *Matcher) Apply(paths []string) []string {
	if !m.Active() {
		return paths
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if m.Match(p) {
			out = append(out, p)
		}
	}
	return out
}
