package ui

import (
	"fmt"
	"strings"

	"github.com/vanderheijden86/clustermap/pkg/hierarchy"
)

// SearchModel is the incremental cluster search driven by the `/` key.
// Matching is case-insensitive over name and id, in pre-order tree order, so
// jumping with n/N follows the outline top to bottom. Match state survives
// leaving search mode until the next search or a reload.
type SearchModel struct {
	theme Theme

	root    *hierarchy.ClusterNode
	active  bool
	query   string
	matches []*hierarchy.ClusterNode
	cursor  int
}

// NewSearchModel creates an inactive search over the hierarchy.
func NewSearchModel(root *hierarchy.ClusterNode, theme Theme) *SearchModel {
	return &SearchModel{theme: theme, root: root}
}

// SetRoot swaps the tree after a reload and drops stale matches.
func (s *SearchModel) SetRoot(root *hierarchy.ClusterNode) {
	s.root = root
	s.matches = nil
	s.cursor = 0
	s.query = ""
	s.active = false
}

// Active reports whether keystrokes should feed the query.
func (s *SearchModel) Active() bool { return s.active }

// Start enters search mode with a fresh query.
func (s *SearchModel) Start() {
	s.active = true
	s.query = ""
	s.matches = nil
	s.cursor = 0
}

// Cancel exits search mode and clears results.
func (s *SearchModel) Cancel() {
	s.active = false
	s.query = ""
	s.matches = nil
	s.cursor = 0
}

// Finish exits search mode but keeps results for n/N navigation.
func (s *SearchModel) Finish() {
	s.active = false
}

// Query returns the current query text.
func (s *SearchModel) Query() string { return s.query }

// MatchCount returns the number of matches.
func (s *SearchModel) MatchCount() int { return len(s.matches) }

// AppendChar adds a character to the query and re-runs the match.
func (s *SearchModel) AppendChar(ch rune) {
	s.query += string(ch)
	s.updateMatches()
}

// Backspace removes the last query character and re-runs the match.
func (s *SearchModel) Backspace() {
	if len(s.query) == 0 {
		return
	}
	runes := []rune(s.query)
	s.query = string(runes[:len(runes)-1])
	s.updateMatches()
}

func (s *SearchModel) updateMatches() {
	s.matches = nil
	s.cursor = 0
	if s.query == "" {
		return
	}
	query := strings.ToLower(s.query)
	hierarchy.Walk(s.root, func(n *hierarchy.ClusterNode) bool {
		if hierarchy.IsSyntheticRoot(n.ID) {
			return true
		}
		if strings.Contains(strings.ToLower(n.Name), query) ||
			strings.Contains(strings.ToLower(n.ID), query) {
			s.matches = append(s.matches, n)
		}
		return true
	})
}

// Current returns the match under the cursor, or nil.
func (s *SearchModel) Current() *hierarchy.ClusterNode {
	if len(s.matches) == 0 {
		return nil
	}
	return s.matches[s.cursor]
}

// Next advances to the next match, wrapping around.
func (s *SearchModel) Next() *hierarchy.ClusterNode {
	if len(s.matches) == 0 {
		return nil
	}
	s.cursor = (s.cursor + 1) % len(s.matches)
	return s.matches[s.cursor]
}

// Prev steps back to the previous match, wrapping around.
func (s *SearchModel) Prev() *hierarchy.ClusterNode {
	if len(s.matches) == 0 {
		return nil
	}
	s.cursor--
	if s.cursor < 0 {
		s.cursor = len(s.matches) - 1
	}
	return s.matches[s.cursor]
}

// Bar renders the query line shown while search mode is active.
func (s *SearchModel) Bar() string {
	searchStyle := s.theme.Renderer.NewStyle().
		Foreground(s.theme.Primary).
		Bold(true)

	matchInfo := ""
	if len(s.matches) > 0 {
		matchInfo = fmt.Sprintf(" [%d/%d]", s.cursor+1, len(s.matches))
	} else if s.query != "" {
		matchInfo = " [no matches]"
	}
	return searchStyle.Render(fmt.Sprintf("/%s%s", s.query, matchInfo))
}
