package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/goccy/go-json"
	"golang.org/x/term"

	"github.com/vanderheijden86/clustermap/pkg/config"
)

// WizardConfig holds the answers the export wizard collects. It round-trips
// through a JSON file so a second export can reuse the previous settings.
type WizardConfig struct {
	Formats    []string `json:"formats"`
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	Dir        string   `json:"dir"`
	Basename   string   `json:"basename,omitempty"`
	ShowLabels bool     `json:"show_labels"`
}

// Wizard walks the user through a snapshot export on the command line.
type Wizard struct {
	config   *WizardConfig
	isUpdate bool
}

// NewWizard creates a wizard seeded from the application config's export
// section.
func NewWizard(cfg config.ExportConfig) *Wizard {
	return &Wizard{
		config: &WizardConfig{
			Formats:    []string{"png"},
			Width:      cfg.Width,
			Height:     cfg.Height,
			Dir:        cfg.Dir,
			ShowLabels: true,
		},
	}
}

// isTerminal checks if stdin is connected to a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm creates a form with appropriate settings based on TTY detection
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

// Run executes the wizard and returns the collected settings.
func (w *Wizard) Run() (*WizardConfig, error) {
	saved, err := LoadWizardConfig()
	if err == nil && saved != nil && len(saved.Formats) > 0 {
		useSaved, err := w.offerSavedConfig(saved)
		if err != nil {
			return nil, err
		}
		if useSaved {
			w.config = saved
			w.isUpdate = true
			return w.config, nil
		}
	}

	if err := w.collectOutputOptions(); err != nil {
		return nil, err
	}
	if err := w.collectFileOptions(); err != nil {
		return nil, err
	}
	return w.config, nil
}

// offerSavedConfig asks if the user wants to reuse previously saved settings
func (w *Wizard) offerSavedConfig(saved *WizardConfig) (bool, error) {
	fmt.Println("Found previous export configuration:")
	fmt.Println("────────────────────────────────────")
	fmt.Printf("  Formats: %s\n", strings.Join(saved.Formats, ", "))
	fmt.Printf("  Size:    %dx%d\n", saved.Width, saved.Height)
	fmt.Printf("  Output:  %s\n", saved.Dir)
	fmt.Println("")

	var useSaved bool = true
	form := newForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Export with these settings again?").
				Description("Select No to reconfigure").
				Value(&useSaved).
				Affirmative("Yes, reuse").
				Negative("No, reconfigure"),
		),
	)

	if err := form.Run(); err != nil {
		return false, err
	}

	fmt.Println("")
	return useSaved, nil
}

func (w *Wizard) collectOutputOptions() error {
	fmt.Println("Step 1: Output Format")
	fmt.Println("────────────────────────────")

	formatChoice := "png"
	if len(w.config.Formats) == 2 {
		formatChoice = "both"
	} else if len(w.config.Formats) == 1 {
		formatChoice = w.config.Formats[0]
	}

	defaultSize := fmt.Sprintf("%dx%d", w.config.Width, w.config.Height)
	size := defaultSize

	form := newForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which formats do you want?").
				Options(
					huh.NewOption("PNG (raster, for sharing)", "png"),
					huh.NewOption("SVG (vector, for editing)", "svg"),
					huh.NewOption("Both", "both"),
				).
				Value(&formatChoice),
			huh.NewInput().
				Title("Canvas size (WIDTHxHEIGHT)").
				Value(&size).
				Placeholder(defaultSize),
			huh.NewConfirm().
				Title("Render cluster labels?").
				Description("Labels appear on circles large enough to hold them").
				Value(&w.config.ShowLabels),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	switch formatChoice {
	case "both":
		w.config.Formats = []string{"png", "svg"}
	default:
		w.config.Formats = []string{formatChoice}
	}

	if width, height, ok := ParseSize(size); ok {
		w.config.Width = width
		w.config.Height = height
	}

	fmt.Println("")
	return nil
}

func (w *Wizard) collectFileOptions() error {
	fmt.Println("Step 2: Output Location")
	fmt.Println("────────────────────────────")

	defaultDir := w.config.Dir
	if defaultDir == "" {
		defaultDir = "snapshots"
	}
	dir := defaultDir
	basename := w.config.Basename

	form := newForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Output directory").
				Value(&dir).
				Placeholder(defaultDir),
			huh.NewInput().
				Title("File name (optional, default is timestamped)").
				Value(&basename).
				Placeholder("clustermap-20060102-150405"),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	if dir != "" {
		w.config.Dir = dir
	} else {
		w.config.Dir = defaultDir
	}
	w.config.Basename = basename

	fmt.Println("")
	return nil
}

// PrintSuccess reports the written files.
func (w *Wizard) PrintSuccess(paths []string) {
	fmt.Println("")
	fmt.Println("Export complete:")
	for _, p := range paths {
		fmt.Printf("  %s\n", p)
	}
	fmt.Println("")
}

// ParseSize parses "1600x1200". Both dimensions must be positive.
func ParseSize(s string) (width, height int, ok bool) {
	parts := strings.SplitN(strings.ToLower(strings.TrimSpace(s)), "x", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	width, errW := strconv.Atoi(strings.TrimSpace(parts[0]))
	height, errH := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errW != nil || errH != nil || width <= 0 || height <= 0 {
		return 0, 0, false
	}
	return width, height, true
}

// WizardConfigPath returns the path to the wizard config file.
func WizardConfigPath() string {
	dir := config.ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "export-wizard.json")
}

// LoadWizardConfig loads previously saved wizard configuration.
func LoadWizardConfig() (*WizardConfig, error) {
	path := WizardConfigPath()
	if path == "" {
		return nil, fmt.Errorf("could not determine config path")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // No saved config
		}
		return nil, err
	}

	var cfg WizardConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SaveWizardConfig saves wizard configuration for future runs.
func SaveWizardConfig(cfg *WizardConfig) error {
	path := WizardConfigPath()
	if path == "" {
		return fmt.Errorf("could not determine config path")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}
