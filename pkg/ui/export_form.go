package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/clustermap/pkg/config"
	"github.com/vanderheijden86/clustermap/pkg/export"
)

type exportFieldType int

const (
	exportFieldText exportFieldType = iota
	exportFieldSelect
)

// exportField is a single input row in the export modal.
type exportField struct {
	Label    string
	Type     exportFieldType
	Input    textinput.Model // for text fields
	Options  []string        // for select fields
	Selected int
}

// ExportModal collects snapshot settings before an in-app export. The map's
// current drill position, selection, and label toggle are taken as-is; the
// modal only asks for what the file should look like.
type ExportModal struct {
	fields          []exportField
	focusedField    int
	width           int
	height          int
	theme           Theme
	saveRequested   bool
	cancelRequested bool
}

// NewExportModal creates the modal seeded from the config's export section.
func NewExportModal(cfg config.ExportConfig, theme Theme) ExportModal {
	dir := cfg.Dir
	if dir == "" {
		dir = "snapshots"
	}
	fields := []exportField{
		makeExportSelect("Format", []string{"png", "svg", "both"}, "png"),
		makeExportText("Size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height)),
		makeExportText("Directory", dir),
		makeExportText("Filename", ""),
	}
	fields[0].Selected = 0

	return ExportModal{
		fields:       fields,
		focusedField: 0,
		theme:        theme,
	}
}

func makeExportText(label, value string) exportField {
	ti := textinput.New()
	ti.SetValue(value)
	ti.CharLimit = 200
	ti.Width = 40

	return exportField{
		Label: label,
		Type:  exportFieldText,
		Input: ti,
	}
}

func makeExportSelect(label string, options []string, value string) exportField {
	selected := 0
	for i, opt := range options {
		if opt == value {
			selected = i
			break
		}
	}
	return exportField{
		Label:    label,
		Type:     exportFieldSelect,
		Options:  options,
		Selected: selected,
	}
}

// Update handles input for the export modal
func (m ExportModal) Update(msg tea.Msg) (ExportModal, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+s", "enter":
			m.saveRequested = true
			return m, nil

		case "esc":
			m.cancelRequested = true
			return m, nil

		case "tab", "down":
			m.fields[m.focusedField] = blurExportField(m.fields[m.focusedField])
			m.focusedField = (m.focusedField + 1) % len(m.fields)
			m.fields[m.focusedField] = focusExportField(m.fields[m.focusedField])
			return m, nil

		case "shift+tab", "up":
			m.fields[m.focusedField] = blurExportField(m.fields[m.focusedField])
			m.focusedField = (m.focusedField - 1 + len(m.fields)) % len(m.fields)
			m.fields[m.focusedField] = focusExportField(m.fields[m.focusedField])
			return m, nil

		case "left":
			if m.fields[m.focusedField].Type == exportFieldSelect {
				field := &m.fields[m.focusedField]
				field.Selected = (field.Selected - 1 + len(field.Options)) % len(field.Options)
				return m, nil
			}

		case "right":
			if m.fields[m.focusedField].Type == exportFieldSelect {
				field := &m.fields[m.focusedField]
				field.Selected = (field.Selected + 1) % len(field.Options)
				return m, nil
			}
		}

		// Pass key to focused field
		field := &m.fields[m.focusedField]
		if field.Type == exportFieldText {
			field.Input, cmd = field.Input.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

func focusExportField(field exportField) exportField {
	if field.Type == exportFieldText {
		field.Input.Focus()
	}
	return field
}

func blurExportField(field exportField) exportField {
	if field.Type == exportFieldText {
		field.Input.Blur()
	}
	return field
}

// SetSize sets the modal dimensions
func (m *ExportModal) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// IsSaveRequested returns true if the user confirmed the export
func (m ExportModal) IsSaveRequested() bool {
	return m.saveRequested
}

// IsCancelRequested returns true if esc was pressed
func (m ExportModal) IsCancelRequested() bool {
	return m.cancelRequested
}

// ClearRequests resets the save/cancel flags so the modal can be reopened.
func (m *ExportModal) ClearRequests() {
	m.saveRequested = false
	m.cancelRequested = false
}

// BuildExportOptions assembles the file-shape half of an export request.
// The caller fills in the hierarchy, drill position, and palette.
func (m ExportModal) BuildExportOptions() (export.Options, error) {
	var opts export.Options

	switch m.fields[0].Options[m.fields[0].Selected] {
	case "both":
		opts.Formats = []string{"png", "svg"}
	case "svg":
		opts.Formats = []string{"svg"}
	default:
		opts.Formats = []string{"png"}
	}

	sizeStr := m.fields[1].Input.Value()
	width, height, ok := export.ParseSize(sizeStr)
	if !ok {
		return opts, fmt.Errorf("invalid size %q (want WIDTHxHEIGHT)", sizeStr)
	}
	opts.Width = width
	opts.Height = height

	opts.Dir = strings.TrimSpace(m.fields[2].Input.Value())
	opts.Basename = strings.TrimSpace(m.fields[3].Input.Value())
	return opts, nil
}

// View renders the export modal
func (m ExportModal) View() string {
	r := m.theme.Renderer

	boxWidth := m.width - 10
	if boxWidth < 56 {
		boxWidth = 56
	}
	if boxWidth > 72 {
		boxWidth = 72
	}

	headerStyle := r.NewStyle().
		Bold(true).
		Foreground(m.theme.Primary)

	var content strings.Builder
	content.WriteString(headerStyle.Render("Export Snapshot"))
	content.WriteString("\n\n")

	labelStyle := r.NewStyle().
		Foreground(m.theme.Secondary).
		Width(11).
		Align(lipgloss.Right)

	focusedLabelStyle := r.NewStyle().
		Foreground(m.theme.Primary).
		Bold(true).
		Width(11).
		Align(lipgloss.Right)

	selectStyle := r.NewStyle().
		Foreground(m.theme.Primary)

	for i, field := range m.fields {
		isFocused := i == m.focusedField

		var labelStr string
		if isFocused {
			labelStr = focusedLabelStyle.Render(field.Label + ":")
		} else {
			labelStr = labelStyle.Render(field.Label + ":")
		}
		content.WriteString(labelStr)
		content.WriteString(" ")

		switch field.Type {
		case exportFieldText:
			content.WriteString(field.Input.View())
		case exportFieldSelect:
			val := field.Options[field.Selected]
			if isFocused {
				content.WriteString(selectStyle.Render(fmt.Sprintf("< %s >", val)))
			} else {
				content.WriteString(val)
			}
		}
		content.WriteString("\n")
	}

	content.WriteString("\n")
	subtextStyle := r.NewStyle().
		Foreground(m.theme.Subtext).
		Italic(true)

	instructions := "[Tab] Next field   [Enter] Export   [Esc] Cancel"
	if m.fields[m.focusedField].Type == exportFieldSelect {
		instructions = "[←/→] Change   [Tab] Next field   [Enter] Export   [Esc] Cancel"
	}
	content.WriteString(subtextStyle.Render(instructions))

	boxStyle := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.Primary).
		Padding(1, 2).
		Width(boxWidth)

	box := boxStyle.Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
