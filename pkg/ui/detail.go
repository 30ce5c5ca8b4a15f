package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"

	"github.com/vanderheijden86/clustermap/pkg/hierarchy"
	"github.com/vanderheijden86/clustermap/pkg/topics"
)

// detailWordWrap is the glamour wrap column for the detail pane.
const detailWordWrap = 60

// DetailModel renders the selected cluster as markdown in a scrollable
// viewport. Content is rebuilt only when the selection or its topic entry
// changes; scrolling reuses the rendered text.
type DetailModel struct {
	theme Theme

	root      *hierarchy.ClusterNode
	cache     *topics.Cache
	hasTopics bool

	nodeID  string
	lastKey string

	vp viewport.Model
	md *glamour.TermRenderer

	width  int
	height int
}

// NewDetailModel creates the detail pane. cache may be nil.
func NewDetailModel(root *hierarchy.ClusterNode, cache *topics.Cache, hasTopics bool, theme Theme) *DetailModel {
	var md *glamour.TermRenderer
	md, _ = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(detailWordWrap),
	)

	return &DetailModel{
		theme:     theme,
		root:      root,
		cache:     cache,
		hasTopics: hasTopics && cache != nil,
		vp:        viewport.New(40, 10),
		md:        md,
	}
}

// SetRoot swaps the tree after a reload.
func (d *DetailModel) SetRoot(root *hierarchy.ClusterNode) {
	d.root = root
	d.lastKey = ""
}

// SetNode points the pane at a cluster. Empty id shows the placeholder.
func (d *DetailModel) SetNode(id string) {
	d.nodeID = id
}

// SetSize resizes the pane.
func (d *DetailModel) SetSize(width, height int) {
	d.width = width
	d.height = height
}

// ScrollDown scrolls the rendered markdown.
func (d *DetailModel) ScrollDown(lines int) {
	d.vp.LineDown(lines)
}

// ScrollUp scrolls the rendered markdown.
func (d *DetailModel) ScrollUp(lines int) {
	d.vp.LineUp(lines)
}

// detailKey captures everything the rendered content depends on, so a
// settled topic fetch re-renders the open pane.
func (d *DetailModel) detailKey() string {
	if d.nodeID == "" {
		return "_none_"
	}
	key := d.nodeID
	if d.hasTopics {
		if entry, ok := d.cache.Get(d.nodeID); ok {
			key += "/" + entry.Status.String() + fmt.Sprintf("/%d", len(entry.Topics))
		}
	}
	return key
}

// View renders the pane at its current size.
func (d *DetailModel) View() string {
	if d.width <= 0 || d.height <= 0 {
		return ""
	}

	d.vp.Width = d.width
	d.vp.Height = d.height

	if key := d.detailKey(); key != d.lastKey {
		d.lastKey = key
		content := d.buildMarkdown()
		rendered := content
		if d.md != nil {
			if md, err := d.md.Render(content); err == nil {
				rendered = md
			}
		}
		d.vp.SetContent(rendered)
		d.vp.GotoTop()
	}

	scrollPercent := d.vp.ScrollPercent()
	if scrollPercent < 1.0 || d.vp.YOffset > 0 {
		d.vp.Height = d.height - 1
		hint := d.theme.Renderer.NewStyle().
			Foreground(d.theme.Secondary).
			Italic(true).
			Render(fmt.Sprintf("─ %d%% ─ ctrl+j/k", int(scrollPercent*100)))
		return d.vp.View() + "\n" + hint
	}
	return d.vp.View()
}

func (d *DetailModel) buildMarkdown() string {
	node := hierarchy.Find(d.root, d.nodeID)
	if node == nil {
		return "## No selection\n\nMove the cursor in the outline or click a bubble on the map to inspect a cluster here."
	}

	var content strings.Builder
	content.WriteString(fmt.Sprintf("## %s\n\n", node.Name))

	path := hierarchy.AncestorPath(d.root, node.ID)
	if len(path) > 1 {
		names := make([]string, 0, len(path)-1)
		for _, anc := range path[:len(path)-1] {
			names = append(names, anc.Name)
		}
		content.WriteString(fmt.Sprintf("**Path:** %s\n\n", strings.Join(names, " › ")))
	}

	weightLine := fmt.Sprintf("**Level:** %s · **Conversations:** %s",
		strings.ToUpper(node.Level.String()), formatCount(node.Weight))
	if len(path) > 1 {
		parent := path[len(path)-2]
		if share := weightShare(node.Weight, parent.Weight); share > 0 {
			weightLine += fmt.Sprintf(" (%d%% of %s)", int(share*100+0.5), parent.Name)
		}
	}
	content.WriteString(weightLine + "\n\n")

	if node.Description != "" {
		content.WriteString("---\n\n")
		content.WriteString(node.Description)
		content.WriteString("\n\n")
	}

	if node.HasChildren() {
		d.writeChildren(&content, node)
	} else if d.hasTopics {
		d.writeTopics(&content, node.ID)
	}
	return content.String()
}

// writeChildren lists the largest sub-clusters. The tail is summarised so a
// thousand-leaf category does not scroll forever.
func (d *DetailModel) writeChildren(content *strings.Builder, node *hierarchy.ClusterNode) {
	const maxListed = 8
	content.WriteString(fmt.Sprintf("**Sub-clusters: %d**\n\n", len(node.Children)))
	for i, c := range node.Children {
		if i == maxListed {
			content.WriteString(fmt.Sprintf("- *… and %d more*\n", len(node.Children)-maxListed))
			break
		}
		content.WriteString(fmt.Sprintf("- %s · %s\n", c.Name, formatCount(c.Weight)))
	}
	content.WriteString("\n")
}

func (d *DetailModel) writeTopics(content *strings.Builder, leafID string) {
	entry, ok := d.cache.Get(leafID)
	if !ok {
		content.WriteString("*Topics not loaded. Expand this leaf in the outline to fetch them.*\n")
		return
	}
	switch entry.Status {
	case topics.StatusLoading:
		content.WriteString("*Loading topics…*\n")
	case topics.StatusError:
		content.WriteString(fmt.Sprintf("**Topic fetch failed:** %s\n", entry.Err))
	default:
		if len(entry.Topics) == 0 {
			content.WriteString("*No topics recorded for this cluster.*\n")
			return
		}
		content.WriteString(fmt.Sprintf("**Topics: %d**\n\n", len(entry.Topics)))
		for _, tp := range entry.Topics {
			content.WriteString(fmt.Sprintf("- %s\n", tp.Text))
		}
	}
}
