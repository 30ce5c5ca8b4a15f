package ui

import (
	"image/color"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/clustermap/internal/datasource"
	"github.com/vanderheijden86/clustermap/pkg/config"
	"github.com/vanderheijden86/clustermap/pkg/debug"
	"github.com/vanderheijden86/clustermap/pkg/navigation"
	"github.com/vanderheijden86/clustermap/pkg/scene"
	"github.com/vanderheijden86/clustermap/pkg/topics"
	"github.com/vanderheijden86/clustermap/pkg/watcher"
)

// focusRegion identifies which pane receives movement keys.
type focusRegion int

const (
	focusMap focusRegion = iota
	focusOutline
	focusDetail
)

const crumbMaxWidth = 24

// Model is the root bubbletea model: the map, outline, and detail panes plus
// the overlays, wired to the shared navigation store. Sub-models own their
// rendering; this model owns dispatch, pane geometry, and the tick commands
// that drive animation.
type Model struct {
	snapshot *DataSnapshot
	sess     *datasource.Session
	store    *navigation.Store
	cache    *topics.Cache
	watcher  *watcher.Watcher
	cfg      config.Config
	theme    Theme

	mapView *MapModel
	outline *OutlineModel
	detail  *DetailModel
	search  *SearchModel

	exportModal     ExportModal
	showExportModal bool

	width  int
	height int
	ready  bool

	// Pane geometry, recomputed on resize.
	mapWidth      int
	rightWidth    int
	bodyHeight    int
	outlineHeight int
	detailHeight  int

	focused     focusRegion
	showDetail  bool
	showHelp    bool
	confirmQuit bool

	statusMsg     string
	statusIsError bool

	palette []color.RGBA

	// Zoom and pulse ticks are armed once and re-armed by their own
	// messages until the animation or selection ends.
	zoomTicking  bool
	pulseTicking bool
}

// NewModel wires the full interface around a loaded snapshot. The session
// and watcher may be nil (static data, watch disabled); the cache may be nil
// when the source has no topics.
func NewModel(snapshot *DataSnapshot, sess *datasource.Session, cache *topics.Cache, w *watcher.Watcher, cfg config.Config) Model {
	r := lipgloss.DefaultRenderer()
	ApplyThemePreference(r, cfg.UI.Theme)
	theme := DefaultTheme(r)

	root := snapshot.Root
	hasTopics := snapshot.HasTopics && cache != nil

	store := navigation.NewStore(root)
	store.SetSyncMode(cfg.SyncEnabled())

	mapView := NewMapModel(theme)
	mapView.SetZoomDuration(cfg.ZoomDuration())
	mapView.SetShowLabels(cfg.LabelsEnabled())
	mapView.SetFeatures(snapshot.Features())

	var palette []color.RGBA
	if len(cfg.UI.Palette) > 0 {
		p, err := scene.ParsePalette(cfg.UI.Palette)
		if err != nil {
			debug.Log("ui: ignoring config palette: %v", err)
		} else {
			palette = p
			mapView.SetPalette(p)
		}
	}

	return Model{
		snapshot: snapshot,
		sess:     sess,
		store:    store,
		cache:    cache,
		watcher:  w,
		cfg:      cfg,
		theme:    theme,
		mapView:  mapView,
		outline:  NewOutlineModel(root, cache, hasTopics, theme),
		detail:   NewDetailModel(root, cache, hasTopics, theme),
		search:   NewSearchModel(root, theme),
		palette:  palette,
		focused:  focusOutline,
	}
}

func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.watcher != nil {
		cmds = append(cmds, WatchFileCmd(m.watcher))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// The export modal owns every message while it is open.
	if m.showExportModal {
		return m.updateExportModal(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		first := !m.ready
		m.applyWindowSize(msg)
		if first {
			return m, tea.Batch(m.syncFromStore(time.Now())...)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case FileChangedMsg:
		debug.Log("ui: data source changed on disk")
		cmds := []tea.Cmd{WatchFileCmd(m.watcher)}
		if m.sess != nil {
			cmds = append(cmds, reloadCmd(m.sess))
		}
		return m, tea.Batch(cmds...)

	case reloadDoneMsg:
		return m.handleReloadDone(msg)

	case zoomTickMsg:
		if m.mapView.StepZoom(msg.at) {
			m.zoomTicking = false
			return m, nil
		}
		return m, zoomTickCmd()

	case pulseTickMsg:
		if m.store.State().SelectedID == "" {
			m.pulseTicking = false
			return m, nil
		}
		return m, pulseTickCmd()

	case spinner.TickMsg:
		cmd := m.outline.UpdateSpinner(msg)
		if m.outline.HasLoadingRows() {
			return m, cmd
		}
		return m, nil

	case topicsFetchedMsg:
		debug.Log("ui: topics for %s: %s", msg.ID, msg.Entry.Status)
		m.outline.Refresh()
		return m, nil

	case exportDoneMsg:
		if msg.err != nil {
			m.setStatus("✗ Export failed: "+msg.err.Error(), true)
			return m, nil
		}
		m.setStatus("✓ Exported "+strings.Join(msg.paths, ", "), false)
		return m, nil
	}

	return m, nil
}

// updateExportModal forwards everything to the modal and acts on its
// save/cancel flags.
func (m Model) updateExportModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		m.applyWindowSize(ws)
	}

	var cmd tea.Cmd
	m.exportModal, cmd = m.exportModal.Update(msg)

	if m.exportModal.IsCancelRequested() {
		m.exportModal.ClearRequests()
		m.showExportModal = false
		return m, cmd
	}
	if m.exportModal.IsSaveRequested() {
		m.exportModal.ClearRequests()
		opts, err := m.exportModal.BuildExportOptions()
		if err != nil {
			m.setStatus("✗ "+err.Error(), true)
			return m, cmd
		}
		m.showExportModal = false

		st := m.store.State()
		opts.Root = m.snapshot.Root
		if st.CurrentRoot != nil {
			opts.ViewRootID = st.CurrentRoot.ID
		}
		opts.SelectedID = st.SelectedID
		opts.Palette = m.palette
		opts.ShowLabels = m.mapView.ShowLabels()
		m.setStatus("Exporting…", false)
		return m, tea.Batch(cmd, exportSnapshotCmd(opts))
	}
	return m, cmd
}

func (m *Model) applyWindowSize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true
	m.layoutPanes()
	m.exportModal.SetSize(m.width, m.height)
}

// layoutPanes splits the window: one header line, the body, one footer line.
// The map takes the left ~62%, then a one-column separator, then the outline
// (optionally stacked on the detail pane) takes the rest.
func (m *Model) layoutPanes() {
	m.bodyHeight = max(m.height-2, 5)

	m.mapWidth = m.width * 62 / 100
	if m.mapWidth < 20 {
		m.mapWidth = max(m.width-20, 10)
	}
	m.rightWidth = max(m.width-m.mapWidth-1, 10)

	if m.showDetail {
		m.detailHeight = m.bodyHeight * 45 / 100
		m.outlineHeight = max(m.bodyHeight-m.detailHeight-1, 3)
	} else {
		m.detailHeight = m.bodyHeight
		m.outlineHeight = m.bodyHeight
	}

	m.mapView.SetSize(m.mapWidth, m.bodyHeight)
	m.outline.SetSize(m.rightWidth, m.outlineHeight)
	m.detail.SetSize(m.rightWidth, m.detailHeight)
}

// handleKey runs the overlay guard chain, then global keys, then the focused
// pane's keys.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.statusMsg != "" {
		m.statusMsg = ""
		m.statusIsError = false
	}

	if m.confirmQuit {
		switch msg.String() {
		case "esc", "y", "Y", "enter":
			return m, tea.Quit
		default:
			m.confirmQuit = false
			return m, nil
		}
	}

	if m.showHelp {
		switch msg.String() {
		case "?", "esc", "q":
			m.showHelp = false
		}
		return m, nil
	}

	if m.search.Active() {
		return m.handleSearchKey(msg)
	}

	switch msg.String() {
	case "ctrl+c", "q":
		m.confirmQuit = true
		return m, nil

	case "?":
		m.showHelp = true
		return m, nil

	case "tab":
		m.cycleFocus(1)
		return m, nil

	case "shift+tab":
		m.cycleFocus(-1)
		return m, nil

	case "/":
		m.search.Start()
		return m, nil

	case "n":
		if node := m.search.Next(); node != nil {
			return m.navigateTo(node.ID)
		}
		return m, nil

	case "N":
		if node := m.search.Prev(); node != nil {
			return m.navigateTo(node.ID)
		}
		return m, nil

	case "s":
		if m.store.ToggleSyncMode() {
			m.setStatus("✓ Sync on", false)
		} else {
			m.setStatus("✓ Sync off", false)
		}
		return m.afterNav()

	case "L":
		on := !m.mapView.ShowLabels()
		m.mapView.SetShowLabels(on)
		if on {
			m.setStatus("✓ Labels on", false)
		} else {
			m.setStatus("✓ Labels off", false)
		}
		return m, nil

	case "d":
		m.showDetail = !m.showDetail
		if !m.showDetail && m.focused == focusDetail {
			m.focused = focusOutline
		}
		m.layoutPanes()
		return m, nil

	case "ctrl+j":
		m.detail.ScrollDown(3)
		return m, nil

	case "ctrl+k":
		m.detail.ScrollUp(3)
		return m, nil

	case "e":
		if m.snapshot.IsEmpty() {
			m.setStatus("✗ Nothing to export", true)
			return m, nil
		}
		m.exportModal = NewExportModal(m.cfg.Export, m.theme)
		m.exportModal.SetSize(m.width, m.height)
		m.showExportModal = true
		return m, nil

	case "y":
		return m.copyCursorID()

	case "r", "ctrl+r":
		return m.reloadOrRetry()

	case "0":
		m.store.NavigateBreadcrumb(-1)
		return m.afterNav()

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		index := int(msg.String()[0] - '1')
		if index < m.store.State().Depth() {
			m.store.NavigateBreadcrumb(index)
			return m.afterNav()
		}
		return m, nil

	case "esc":
		// Up one level; at the root this clears the selection.
		m.store.NavigateBreadcrumb(m.store.State().Depth() - 2)
		return m.afterNav()
	}

	switch m.focused {
	case focusOutline:
		return m.handleOutlineKey(msg)
	case focusMap:
		return m.handleMapKey(msg)
	case focusDetail:
		return m.handleDetailKey(msg)
	}
	return m, nil
}

// handleSearchKey feeds keys into an active search. Every printable rune
// extends the query; matches update live and Enter jumps to the current one.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.search.Cancel()
		return m, nil
	case "enter":
		node := m.search.Current()
		m.search.Finish()
		if node != nil {
			return m.navigateTo(node.ID)
		}
		return m, nil
	case "backspace":
		m.search.Backspace()
		return m, nil
	default:
		if len(msg.Runes) == 1 {
			m.search.AppendChar(msg.Runes[0])
		}
		return m, nil
	}
}

func (m Model) handleOutlineKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.outline.MoveUp()
		return m.afterCursorMove()
	case "down", "j":
		m.outline.MoveDown()
		return m.afterCursorMove()
	case "pgup", "ctrl+u":
		m.outline.PageUp()
		return m.afterCursorMove()
	case "pgdown", "ctrl+d":
		m.outline.PageDown()
		return m.afterCursorMove()
	case "right", "l":
		return m, m.topicCmds(m.outline.ExpandOrDescend())
	case "left", "h":
		m.outline.CollapseOrAscend()
		return m.afterCursorMove()
	case " ", "space":
		return m, m.topicCmds(m.outline.ToggleExpand())
	case "enter":
		if id := m.outlineCursorID(); id != "" {
			return m.navigateTo(id)
		}
	}
	return m, nil
}

func (m Model) handleMapKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "h", "k":
		m.mapView.CycleHover(-1)
		return m, nil
	case "l", "j":
		m.mapView.CycleHover(1)
		return m, nil
	case "left":
		m.mapView.NudgePan(-1, 0)
		return m, nil
	case "right":
		m.mapView.NudgePan(1, 0)
		return m, nil
	case "up":
		m.mapView.NudgePan(0, -1)
		return m, nil
	case "down":
		m.mapView.NudgePan(0, 1)
		return m, nil
	case "-", "_":
		m.mapView.NudgeZoom(-1)
		return m, nil
	case "=", "+":
		m.mapView.NudgeZoom(1)
		return m, nil
	case "enter":
		id := m.mapView.HoverID()
		if id == "" {
			id = m.store.State().SelectedID
		}
		if id != "" {
			m.store.SelectAndDrill(id)
			return m.afterNav()
		}
	}
	return m, nil
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "down", "j":
		m.detail.ScrollDown(1)
	case "up", "k":
		m.detail.ScrollUp(1)
	case "pgdown":
		m.detail.ScrollDown(m.detailHeight)
	case "pgup":
		m.detail.ScrollUp(m.detailHeight)
	}
	return m, nil
}

// handleMouse resolves clicks and wheel events against the pane geometry.
// Row 0 is the header (breadcrumb clicks); the body starts one line down.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	relY := msg.Y - 1
	inBody := relY >= 0 && relY < m.bodyHeight
	inMap := inBody && msg.X < m.mapWidth
	inRight := inBody && msg.X > m.mapWidth
	inDetail := inRight && m.showDetail && relY > m.outlineHeight

	switch {
	case msg.Action == tea.MouseActionMotion && msg.Button == tea.MouseButtonNone:
		if !m.snapshot.Features().HoverTracked {
			return m, nil
		}
		if inMap {
			if n := m.mapView.HitAtCell(msg.X, relY); n != nil {
				m.mapView.SetHover(n.Node.ID)
				return m, nil
			}
		}
		m.mapView.SetHover("")
		return m, nil

	case msg.Button == tea.MouseButtonWheelUp:
		switch {
		case inDetail:
			m.detail.ScrollUp(3)
		case inRight:
			m.outline.MoveUp()
		}
		return m, nil

	case msg.Button == tea.MouseButtonWheelDown:
		switch {
		case inDetail:
			m.detail.ScrollDown(3)
		case inRight:
			m.outline.MoveDown()
		}
		return m, nil

	case msg.Button == tea.MouseButtonLeft:
		if msg.Action != tea.MouseActionPress {
			return m, nil
		}
		if msg.Y == 0 {
			for _, reg := range m.breadcrumbRegions() {
				if msg.X >= reg.start && msg.X < reg.end {
					m.store.NavigateBreadcrumb(reg.index)
					return m.afterNav()
				}
			}
			return m, nil
		}
		if inMap {
			m.focused = focusMap
			if n := m.mapView.HitAtCell(msg.X, relY); n != nil {
				m.store.SelectAndDrill(n.Node.ID)
				return m.afterNav()
			}
			return m, nil
		}
		if inDetail {
			m.focused = focusDetail
			return m, nil
		}
		if inRight {
			m.focused = focusOutline
			return m, nil
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleReloadDone(msg reloadDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.setStatus("✗ Reload failed: "+msg.err.Error(), true)
		return m, nil
	}

	m.snapshot = msg.snapshot
	m.store.Reset(msg.snapshot.Root)
	m.mapView.SetFeatures(msg.snapshot.Features())
	m.mapView.Invalidate()
	m.detail.SetRoot(msg.snapshot.Root)
	m.search.SetRoot(msg.snapshot.Root)

	cmds := m.syncFromStore(time.Now())
	m.setStatus("✓ Reloaded: "+msg.diff.Summary(), false)
	return m, tea.Batch(cmds...)
}

// copyCursorID puts the selected (or cursor) cluster id on the clipboard.
func (m Model) copyCursorID() (tea.Model, tea.Cmd) {
	id := m.store.State().SelectedID
	if id == "" {
		id = m.outlineCursorID()
	}
	if id == "" {
		m.setStatus("✗ Nothing selected", true)
		return m, nil
	}
	if err := clipboard.WriteAll(id); err != nil {
		debug.Log("ui: clipboard write failed: %v", err)
		m.setStatus("✗ Copy failed: "+err.Error(), true)
		return m, nil
	}
	m.setStatus("✓ Copied "+id, false)
	return m, nil
}

// reloadOrRetry retries a failed topic fetch when the outline cursor sits on
// one, otherwise reloads the data source.
func (m Model) reloadOrRetry() (tea.Model, tea.Cmd) {
	if m.focused == focusOutline && m.cache != nil {
		if id := m.outlineCursorID(); id != "" {
			if e, ok := m.cache.Get(id); ok && e.Status == topics.StatusError {
				return m, tea.Batch(retryTopicsCmd(m.cache, id), m.outline.SpinnerTick())
			}
		}
	}
	if m.sess == nil {
		m.setStatus("✗ No reloadable source", true)
		return m, nil
	}
	return m, reloadCmd(m.sess)
}

func (m *Model) cycleFocus(delta int) {
	regions := []focusRegion{focusMap, focusOutline}
	if m.showDetail {
		regions = append(regions, focusDetail)
	}
	idx := 0
	for i, r := range regions {
		if r == m.focused {
			idx = i
			break
		}
	}
	m.focused = regions[(idx+delta+len(regions))%len(regions)]
}

// outlineCursorID is the cluster the outline cursor refers to: the node on
// node rows, the owning leaf on topic rows.
func (m Model) outlineCursorID() string {
	if n := m.outline.CursorNode(); n != nil {
		return n.ID
	}
	return m.outline.CursorLeafID()
}

func (m Model) navigateTo(id string) (tea.Model, tea.Cmd) {
	m.store.NavigateToNodeByID(id)
	return m.afterNav()
}

func (m Model) afterNav() (tea.Model, tea.Cmd) {
	return m, tea.Batch(m.syncFromStore(time.Now())...)
}

func (m Model) afterCursorMove() (tea.Model, tea.Cmd) {
	if id := m.outlineCursorID(); id != "" {
		m.detail.SetNode(id)
	}
	return m, nil
}

// syncFromStore pushes the store snapshot into every pane and collects the
// commands the new state needs: the zoom tick when a camera transition
// started, topic fetches for newly opened leaves, the pulse tick while
// something is selected.
func (m *Model) syncFromStore(now time.Time) []tea.Cmd {
	var cmds []tea.Cmd
	st := m.store.State()

	if m.mapView.SetState(st, now) && !m.zoomTicking {
		m.zoomTicking = true
		cmds = append(cmds, zoomTickCmd())
	}

	m.outline.SetState(st)
	if st.SyncMode && st.SelectedID != "" {
		m.outline.RevealNode(st.SelectedID)
	}
	if m.cache != nil {
		pending := m.outline.PendingTopicFetches()
		for _, id := range pending {
			cmds = append(cmds, fetchTopicsCmd(m.cache, id))
		}
		if len(pending) > 0 || m.outline.HasLoadingRows() {
			cmds = append(cmds, m.outline.SpinnerTick())
		}
	}

	m.detail.SetNode(st.SelectedID)

	if st.SelectedID != "" && !m.pulseTicking {
		m.pulseTicking = true
		cmds = append(cmds, pulseTickCmd())
	}
	return cmds
}

func (m Model) topicCmds(ids []string) tea.Cmd {
	if len(ids) == 0 || m.cache == nil {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(ids)+1)
	for _, id := range ids {
		cmds = append(cmds, fetchTopicsCmd(m.cache, id))
	}
	cmds = append(cmds, m.outline.SpinnerTick())
	return tea.Batch(cmds...)
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.statusMsg = msg
	m.statusIsError = isErr
}

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	now := time.Now()

	var body string
	isOverlay := false
	switch {
	case m.confirmQuit:
		body = m.renderQuitConfirm()
		isOverlay = true
	case m.showExportModal:
		body = m.exportModal.View()
		isOverlay = true
	case m.showHelp:
		body = m.renderHelpOverlay()
		isOverlay = true
	default:
		body = m.renderBody(now)
	}

	var sections []string
	if !isOverlay {
		sections = append(sections, m.renderHeader())
	}
	sections = append(sections, body, m.renderFooter())

	finalStyle := m.theme.Renderer.NewStyle().
		Width(m.width).
		Height(m.height).
		MaxHeight(m.height)
	return finalStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m Model) renderBody(now time.Time) string {
	mapPane := m.mapView.View(now)

	sepCell := m.theme.MutedText.Render("│")
	cells := make([]string, m.bodyHeight)
	for i := range cells {
		cells[i] = sepCell
	}
	separator := strings.Join(cells, "\n")

	right := m.outline.View()
	if m.showDetail {
		divider := m.theme.MutedText.Render(strings.Repeat("─", m.rightWidth))
		right = lipgloss.JoinVertical(lipgloss.Left, right, divider, m.detail.View())
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, mapPane, separator, right)
}

func crumbLabel(name string) string {
	return truncate(name, crumbMaxWidth)
}

type crumbRegion struct {
	start, end int
	index      int // breadcrumb index; -1 is home
}

// breadcrumbRegions computes the clickable header spans. Must mirror the
// label layout renderHeader produces.
func (m Model) breadcrumbRegions() []crumbRegion {
	st := m.store.State()

	x := lipgloss.Width(m.theme.Header.Render("clustermap")) + 1
	sepW := lipgloss.Width(" › ")

	regions := make([]crumbRegion, 0, len(st.Breadcrumb)+1)
	homeW := lipgloss.Width("home")
	regions = append(regions, crumbRegion{start: x, end: x + homeW, index: -1})
	x += homeW

	for i, c := range st.Breadcrumb {
		x += sepW
		w := lipgloss.Width(crumbLabel(c.Name))
		regions = append(regions, crumbRegion{start: x, end: x + w, index: i})
		x += w
	}
	return regions
}

func (m Model) renderHeader() string {
	t := m.theme
	st := m.store.State()

	title := t.Header.Render("clustermap")

	sep := t.CrumbSep.Render(" › ")
	parts := make([]string, 0, len(st.Breadcrumb)+1)
	if st.AtRoot() {
		parts = append(parts, t.PrimaryBold.Render("home"))
	} else {
		parts = append(parts, t.SecondaryText.Render("home"))
	}
	for i, c := range st.Breadcrumb {
		label := crumbLabel(c.Name)
		if i == len(st.Breadcrumb)-1 {
			parts = append(parts, t.PrimaryBold.Render(label))
		} else {
			parts = append(parts, t.SecondaryText.Render(label))
		}
	}
	left := title + " " + strings.Join(parts, sep)

	var sync string
	if st.SyncMode {
		sync = t.SyncOn.Render("SYNC")
	} else {
		sync = t.SyncOff.Render("sync off")
	}
	right := sync
	if m.snapshot.LargeDatasetWarning != "" {
		right = t.MutedText.Render(m.snapshot.LargeDatasetWarning) + " " + sync
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) renderFooter() string {
	t := m.theme

	if m.search.Active() {
		return m.search.Bar()
	}

	if m.statusMsg != "" {
		barStyle := t.Renderer.NewStyle().
			Bold(true).
			Padding(0, 2).
			Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"})
		if m.statusIsError {
			barStyle = barStyle.Background(t.Danger)
		} else {
			barStyle = barStyle.Background(t.Success)
		}
		msgSection := barStyle.Render(m.statusMsg)
		filler := ""
		if pad := m.width - lipgloss.Width(msgSection); pad > 0 {
			filler = strings.Repeat(" ", pad)
		}
		return lipgloss.JoinHorizontal(lipgloss.Bottom, msgSection, filler)
	}

	type hint struct {
		key   string
		label string
	}
	var hints []hint
	switch m.focused {
	case focusOutline:
		hints = []hint{
			{"↑↓", "move"},
			{"→←", "expand"},
			{"↵", "drill"},
			{"esc", "up"},
		}
	case focusMap:
		hints = []hint{
			{"←→", "pick"},
			{"↵", "drill"},
			{"esc", "up"},
		}
	case focusDetail:
		hints = []hint{
			{"↑↓", "scroll"},
			{"esc", "up"},
		}
	}
	hints = append(hints,
		hint{"/", "search"},
		hint{"s", "sync"},
		hint{"e", "export"},
		hint{"?", "help"},
		hint{"q", "quit"},
	)

	keyStyle := t.Renderer.NewStyle().Foreground(t.Primary).Bold(true)
	labelStyle := t.Renderer.NewStyle().Foreground(t.Subtext)

	rendered := make([]string, 0, len(hints))
	for _, h := range hints {
		rendered = append(rendered, keyStyle.Render(h.key)+":"+labelStyle.Render(h.label))
	}
	return " " + strings.Join(rendered, "  ")
}

func (m Model) renderQuitConfirm() string {
	t := m.theme

	boxStyle := t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Danger).
		Padding(1, 3).
		Align(lipgloss.Center)

	titleStyle := t.Renderer.NewStyle().
		Foreground(t.Danger).
		Bold(true)

	textStyle := t.Renderer.NewStyle().
		Foreground(t.Base.GetForeground())

	keyStyle := t.Renderer.NewStyle().
		Foreground(t.Primary).
		Bold(true)

	content := titleStyle.Render("Quit cm?") + "\n\n" +
		textStyle.Render("Press ") + keyStyle.Render("Esc") + textStyle.Render(" or ") + keyStyle.Render("Y") + textStyle.Render(" to quit\n") +
		textStyle.Render("Press any other key to cancel")

	box := boxStyle.Render(content)

	return lipgloss.Place(
		m.width,
		m.height-1,
		lipgloss.Center,
		lipgloss.Center,
		box,
	)
}

func (m Model) renderHelpOverlay() string {
	t := m.theme

	type helpEntry struct {
		key  string
		desc string
	}
	type helpPanel struct {
		title   string
		entries []helpEntry
	}

	panels := []helpPanel{
		{"Navigate", []helpEntry{
			{"enter", "drill into cluster"},
			{"esc", "up one level"},
			{"0", "back to root"},
			{"1-9", "jump to breadcrumb"},
			{"tab", "cycle pane focus"},
		}},
		{"Outline", []helpEntry{
			{"↑/↓ j/k", "move cursor"},
			{"→ l", "expand, descend"},
			{"← h", "collapse, ascend"},
			{"space", "toggle expand"},
			{"pgup/pgdn", "page"},
		}},
		{"Map", []helpEntry{
			{"h/l", "pick bubble"},
			{"enter", "drill picked"},
			{"arrows", "pan"},
			{"-/=", "zoom out, in"},
			{"click", "select or drill"},
			{"L", "toggle labels"},
		}},
		{"Search", []helpEntry{
			{"/", "start search"},
			{"enter", "jump to match"},
			{"n/N", "next, previous"},
			{"esc", "cancel"},
		}},
		{"Data", []helpEntry{
			{"r", "reload source"},
			{"e", "export snapshot"},
			{"y", "copy cluster id"},
		}},
		{"Panes", []helpEntry{
			{"d", "toggle detail"},
			{"ctrl+j/k", "scroll detail"},
			{"s", "toggle sync mode"},
			{"q", "quit"},
		}},
	}

	headerStyle := t.Renderer.NewStyle().Foreground(t.Primary).Bold(true)
	keyStyle := t.Renderer.NewStyle().Foreground(t.Info).Width(11)
	descStyle := t.Renderer.NewStyle().Foreground(t.Base.GetForeground())
	panelStyle := t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 1).
		Width(34)

	renderPanel := func(p helpPanel) string {
		var b strings.Builder
		b.WriteString(headerStyle.Render(p.title))
		for _, e := range p.entries {
			b.WriteString("\n")
			b.WriteString(keyStyle.Render(e.key))
			b.WriteString(descStyle.Render(e.desc))
		}
		return panelStyle.Render(b.String())
	}

	columns := 3
	if m.width < 120 {
		columns = 2
	}
	if m.width < 80 {
		columns = 1
	}

	cols := make([][]string, columns)
	for i, p := range panels {
		cols[i%columns] = append(cols[i%columns], renderPanel(p))
	}
	rendered := make([]string, 0, columns)
	for _, col := range cols {
		if len(col) > 0 {
			rendered = append(rendered, lipgloss.JoinVertical(lipgloss.Left, col...))
		}
	}

	title := headerStyle.Render("clustermap keys")
	hint := t.Renderer.NewStyle().Foreground(t.Subtext).Italic(true).Render("? or esc to close")
	content := lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		"",
		lipgloss.JoinHorizontal(lipgloss.Top, rendered...),
		"",
		hint,
	)

	box := t.Renderer.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(t.Primary).
		Padding(1, 2).
		Render(content)

	return lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, box)
}
