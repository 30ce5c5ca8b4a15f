package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/clustermap/pkg/hierarchy"
	"github.com/vanderheijden86/clustermap/pkg/metrics"
	"github.com/vanderheijden86/clustermap/pkg/navigation"
	"github.com/vanderheijden86/clustermap/pkg/topics"
)

type outlineRowKind int

const (
	rowNode outlineRowKind = iota
	rowTopic
	rowTopicStatus
)

// outlineRow is one visible line of the flattened tree.
type outlineRow struct {
	kind outlineRowKind

	// rowNode
	node       *hierarchy.ClusterNode
	depth      int
	expandable bool
	expanded   bool
	share      float64 // weight as fraction of parent

	// rowTopic / rowTopicStatus
	leafID string
	topic  topics.Topic
	status topics.Status
	errMsg string
}

// OutlineModel is the collapsible tree beside the map. It flattens the
// hierarchy pre-order, honouring three expansion sources in priority order:
// the user's explicit open/close choices, the navigation store's additive
// auto-open set, and the default of top-level categories starting open.
// Topic rows appear under open leaves when the data source serves topics.
type OutlineModel struct {
	theme Theme

	root      *hierarchy.ClusterNode
	cache     *topics.Cache
	hasTopics bool

	// expanded holds explicit user choices; absent ids fall through to
	// autoOpen and then the level default.
	expanded map[string]bool
	autoOpen map[string]bool

	rows       []outlineRow
	cursor     int
	scroll     int
	selectedID string

	width  int
	height int

	spinner spinner.Model
}

// NewOutlineModel creates an outline over the hierarchy. cache may be nil
// when the source has no topics side.
func NewOutlineModel(root *hierarchy.ClusterNode, cache *topics.Cache, hasTopics bool, theme Theme) *OutlineModel {
	spin := spinner.New()
	spin.Spinner = spinner.MiniDot
	spin.Style = theme.InfoText

	o := &OutlineModel{
		theme:     theme,
		root:      root,
		cache:     cache,
		hasTopics: hasTopics && cache != nil,
		expanded:  make(map[string]bool),
		autoOpen:  make(map[string]bool),
		spinner:   spin,
	}
	o.reflatten()
	return o
}

// SetSize resizes the outline pane.
func (o *OutlineModel) SetSize(width, height int) {
	o.width = width
	o.height = height
}

// SetState applies a navigation snapshot: fresh tree after a reload, the
// map-side selection for highlighting, and the auto-open set. Newly
// auto-opened leaves override an earlier manual collapse; old entries do
// not, so a leaf the user closed stays closed. Returns leaf ids that are
// now open on screen with no cached topics, for the caller to fetch.
func (o *OutlineModel) SetState(st navigation.State) []string {
	o.root = st.Root
	o.selectedID = st.SelectedID

	for id := range st.ExpandedL0 {
		if !o.autoOpen[id] {
			delete(o.expanded, id)
		}
		o.autoOpen[id] = true
	}
	for id := range o.autoOpen {
		if !st.ExpandedL0[id] {
			delete(o.autoOpen, id)
		}
	}

	o.reflatten()
	return o.pendingTopicFetches()
}

// RevealNode expands ancestors so the node's row is visible, then moves the
// cursor to it. Sync mode routes map selections through here. Unknown ids
// are a no-op.
func (o *OutlineModel) RevealNode(id string) bool {
	path := hierarchy.AncestorPath(o.root, id)
	if path == nil {
		return false
	}
	for _, anc := range path[:len(path)-1] {
		o.expanded[anc.ID] = true
	}
	o.reflatten()
	for i, row := range o.rows {
		if row.kind == rowNode && row.node.ID == id {
			o.cursor = i
			return true
		}
	}
	return false
}

// MoveUp moves the cursor one row up.
func (o *OutlineModel) MoveUp() {
	if o.cursor > 0 {
		o.cursor--
	}
}

// MoveDown moves the cursor one row down.
func (o *OutlineModel) MoveDown() {
	if o.cursor < len(o.rows)-1 {
		o.cursor++
	}
}

// PageUp moves the cursor half a pane up.
func (o *OutlineModel) PageUp() {
	o.cursor -= o.pageStep()
	if o.cursor < 0 {
		o.cursor = 0
	}
}

// PageDown moves the cursor half a pane down.
func (o *OutlineModel) PageDown() {
	o.cursor += o.pageStep()
	if o.cursor > len(o.rows)-1 {
		o.cursor = len(o.rows) - 1
	}
}

func (o *OutlineModel) pageStep() int {
	step := o.height / 2
	if step < 1 {
		step = 1
	}
	return step
}

// ExpandOrDescend is the right-arrow contract: a closed expandable row
// opens; an open one moves the cursor to its first child row. Returns leaf
// ids needing a topic fetch.
func (o *OutlineModel) ExpandOrDescend() []string {
	row := o.currentRow()
	if row == nil || row.kind != rowNode {
		return nil
	}
	if !row.expandable {
		return nil
	}
	if !row.expanded {
		o.expanded[row.node.ID] = true
		o.reflatten()
		return o.pendingTopicFetches()
	}
	// Pre-order: the first child row immediately follows its parent.
	if o.cursor < len(o.rows)-1 {
		o.cursor++
	}
	return nil
}

// CollapseOrAscend is the left-arrow contract: an open expandable row
// closes; anything else jumps to its parent row.
func (o *OutlineModel) CollapseOrAscend() {
	row := o.currentRow()
	if row == nil {
		return
	}
	if row.kind != rowNode {
		o.jumpToLeaf(row.leafID)
		return
	}
	if row.expandable && row.expanded {
		o.expanded[row.node.ID] = false
		o.reflatten()
		return
	}
	o.jumpToParent(row.depth)
}

// ToggleExpand flips the current row's expansion. Returns leaf ids needing
// a topic fetch.
func (o *OutlineModel) ToggleExpand() []string {
	row := o.currentRow()
	if row == nil || row.kind != rowNode || !row.expandable {
		return nil
	}
	o.expanded[row.node.ID] = !row.expanded
	o.reflatten()
	if o.expanded[row.node.ID] {
		return o.pendingTopicFetches()
	}
	return nil
}

// jumpToParent moves the cursor to the nearest earlier row one level up.
func (o *OutlineModel) jumpToParent(depth int) {
	for i := o.cursor - 1; i >= 0; i-- {
		if o.rows[i].kind == rowNode && o.rows[i].depth == depth-1 {
			o.cursor = i
			return
		}
	}
}

// jumpToLeaf moves the cursor from a topic row back to its owning leaf.
func (o *OutlineModel) jumpToLeaf(leafID string) {
	for i := o.cursor - 1; i >= 0; i-- {
		if o.rows[i].kind == rowNode && o.rows[i].node.ID == leafID {
			o.cursor = i
			return
		}
	}
}

// CursorNode returns the node under the cursor, or nil on a topic row.
func (o *OutlineModel) CursorNode() *hierarchy.ClusterNode {
	row := o.currentRow()
	if row == nil || row.kind != rowNode {
		return nil
	}
	return row.node
}

// CursorLeafID returns the owning leaf when the cursor sits on a topic row.
func (o *OutlineModel) CursorLeafID() string {
	row := o.currentRow()
	if row == nil || row.kind == rowNode {
		return ""
	}
	return row.leafID
}

// RowCount returns the number of flattened rows.
func (o *OutlineModel) RowCount() int {
	return len(o.rows)
}

func (o *OutlineModel) currentRow() *outlineRow {
	if o.cursor < 0 || o.cursor >= len(o.rows) {
		return nil
	}
	return &o.rows[o.cursor]
}

// HasLoadingRows reports whether any visible topic row is still loading,
// which keeps the spinner tick armed.
func (o *OutlineModel) HasLoadingRows() bool {
	for _, row := range o.rows {
		if row.kind == rowTopicStatus && row.status == topics.StatusLoading {
			return true
		}
	}
	return false
}

// UpdateSpinner advances the loading spinner on its tick.
func (o *OutlineModel) UpdateSpinner(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	o.spinner, cmd = o.spinner.Update(msg)
	return cmd
}

// SpinnerTick returns the command that starts the spinner.
func (o *OutlineModel) SpinnerTick() tea.Cmd {
	return o.spinner.Tick
}

// Refresh re-flattens after a topic fetch settled.
func (o *OutlineModel) Refresh() {
	o.reflatten()
}

// PendingTopicFetches lists the open leaves whose topics have never been
// requested. The root model turns these into fetch commands after every
// outline reshape; the cache deduplicates, so over-asking is harmless.
func (o *OutlineModel) PendingTopicFetches() []string {
	return o.pendingTopicFetches()
}

// pendingTopicFetches lists open on-screen leaves with no cache entry.
func (o *OutlineModel) pendingTopicFetches() []string {
	if !o.hasTopics {
		return nil
	}
	var ids []string
	for _, row := range o.rows {
		if row.kind != rowNode || row.node.Level != hierarchy.LevelL0 || !row.expanded {
			continue
		}
		if _, ok := o.cache.Get(row.node.ID); !ok {
			ids = append(ids, row.node.ID)
		}
	}
	return ids
}

func (o *OutlineModel) effectiveOpen(n *hierarchy.ClusterNode) bool {
	if v, ok := o.expanded[n.ID]; ok {
		return v
	}
	if o.autoOpen[n.ID] {
		return true
	}
	return n.Level == hierarchy.LevelL2
}

// reflatten rebuilds the visible rows pre-order and clamps the cursor.
func (o *OutlineModel) reflatten() {
	o.rows = o.rows[:0]
	if o.root != nil {
		tops := o.root.Children
		if !hierarchy.IsSyntheticRoot(o.root.ID) {
			tops = []*hierarchy.ClusterNode{o.root}
		}
		var total int
		for _, top := range tops {
			total += top.Weight
		}
		for _, top := range tops {
			o.flattenNode(top, 0, total)
		}
	}
	if o.cursor > len(o.rows)-1 {
		o.cursor = len(o.rows) - 1
	}
	if o.cursor < 0 {
		o.cursor = 0
	}
}

func (o *OutlineModel) flattenNode(n *hierarchy.ClusterNode, depth, parentWeight int) {
	expandable := n.HasChildren() || (n.Level == hierarchy.LevelL0 && o.hasTopics)
	open := expandable && o.effectiveOpen(n)

	o.rows = append(o.rows, outlineRow{
		kind:       rowNode,
		node:       n,
		depth:      depth,
		expandable: expandable,
		expanded:   open,
		share:      weightShare(n.Weight, parentWeight),
	})
	if !open {
		return
	}

	if n.HasChildren() {
		for _, c := range n.Children {
			o.flattenNode(c, depth+1, n.Weight)
		}
		return
	}
	o.flattenTopics(n, depth+1)
}

// flattenTopics appends the cache's view of one open leaf: a loading or
// error line while unsettled, the topic list when ready.
func (o *OutlineModel) flattenTopics(leaf *hierarchy.ClusterNode, depth int) {
	entry, ok := o.cache.Get(leaf.ID)
	if !ok || entry.Status == topics.StatusLoading {
		o.rows = append(o.rows, outlineRow{
			kind:   rowTopicStatus,
			leafID: leaf.ID,
			depth:  depth,
			status: topics.StatusLoading,
		})
		return
	}
	if entry.Status == topics.StatusError {
		o.rows = append(o.rows, outlineRow{
			kind:   rowTopicStatus,
			leafID: leaf.ID,
			depth:  depth,
			status: topics.StatusError,
			errMsg: entry.Err,
		})
		return
	}
	if len(entry.Topics) == 0 {
		o.rows = append(o.rows, outlineRow{
			kind:   rowTopicStatus,
			leafID: leaf.ID,
			depth:  depth,
			status: topics.StatusReady,
		})
		return
	}
	for _, tp := range entry.Topics {
		o.rows = append(o.rows, outlineRow{
			kind:   rowTopic,
			leafID: leaf.ID,
			depth:  depth,
			topic:  tp,
		})
	}
}

// View renders the visible window of rows.
func (o *OutlineModel) View() string {
	defer metrics.Timer(metrics.OutlineRender)()

	if o.width <= 0 || o.height <= 0 {
		return ""
	}
	if len(o.rows) == 0 {
		return o.theme.Renderer.NewStyle().
			Width(o.width).
			Height(o.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(o.theme.Secondary).
			Render("No clusters")
	}

	visible := o.height
	overflow := len(o.rows) > visible
	if overflow {
		visible-- // last line becomes the scroll indicator
		if visible < 1 {
			visible = 1
		}
	}

	start := o.scroll
	if o.cursor < start {
		start = o.cursor
	} else if o.cursor >= start+visible {
		start = o.cursor - visible + 1
	}
	o.scroll = start

	end := start + visible
	if end > len(o.rows) {
		end = len(o.rows)
	}

	lines := make([]string, 0, o.height)
	for i := start; i < end; i++ {
		lines = append(lines, o.renderRow(i))
	}

	if overflow {
		info := fmt.Sprintf("(%d-%d of %d)", start+1, end, len(o.rows))
		lines = append(lines, o.theme.Renderer.NewStyle().
			Foreground(o.theme.Secondary).
			Italic(true).
			Width(o.width).
			Align(lipgloss.Center).
			Render(info))
	}
	return strings.Join(lines, "\n")
}

func (o *OutlineModel) renderRow(i int) string {
	t := o.theme
	row := &o.rows[i]
	isCursor := i == o.cursor

	var line string
	switch row.kind {
	case rowNode:
		line = o.renderNodeRow(row, isCursor)
	case rowTopic:
		text := truncate(row.topic.Text, o.width-row.depth*2-3)
		line = strings.Repeat("  ", row.depth) + t.SecondaryText.Render("· "+text)
	default:
		line = o.renderTopicStatusRow(row)
	}

	if isCursor {
		// Selected's left border sits outside the lipgloss width.
		return t.Selected.Width(o.width - 1).MaxHeight(1).Render(line)
	}
	return t.Renderer.NewStyle().Width(o.width).MaxHeight(1).Render(line)
}

func (o *OutlineModel) renderNodeRow(row *outlineRow, isCursor bool) string {
	t := o.theme

	arrow := " "
	if row.expandable {
		if row.expanded {
			arrow = "▾"
		} else {
			arrow = "▸"
		}
	}

	indent := strings.Repeat("  ", row.depth)
	badge := RenderLevelBadge(row.node.Level)
	count := t.MutedText.Render(formatCount(row.node.Weight))
	bar := RenderWeightBar(row.share, 4, t)

	right := bar + " " + count
	rightW := lipgloss.Width(right)

	// indent + arrow + space + badge + space
	usedLeft := len(indent) + 2 + 1 + 1
	nameW := o.width - usedLeft - rightW - 2
	if nameW < 4 {
		nameW = 4
	}
	name := truncate(row.node.Name, nameW)

	nameStyle := t.Base
	if row.node.ID == o.selectedID {
		nameStyle = t.PrimaryBold
	}

	left := indent + t.MutedText.Render(arrow) + " " + badge + " " + nameStyle.Render(name)

	pad := o.width - lipgloss.Width(left) - rightW
	if isCursor {
		// The selected style adds its own left border and padding.
		pad -= 2
	}
	if pad < 1 {
		pad = 1
	}
	return left + strings.Repeat(" ", pad) + right
}

func (o *OutlineModel) renderTopicStatusRow(row *outlineRow) string {
	t := o.theme
	indent := strings.Repeat("  ", row.depth)
	switch row.status {
	case topics.StatusError:
		msg := truncate("✗ "+row.errMsg, o.width-len(indent)-10)
		return indent + t.DangerText.Render(msg) + t.MutedText.Render("  r retry")
	case topics.StatusReady:
		return indent + t.MutedText.Render("(no topics)")
	default:
		return indent + o.spinner.View() + t.InfoText.Render(" loading topics…")
	}
}
