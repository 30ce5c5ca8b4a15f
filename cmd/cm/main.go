package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/vanderheijden86/clustermap/internal/datasource"
	"github.com/vanderheijden86/clustermap/pkg/config"
	"github.com/vanderheijden86/clustermap/pkg/debug"
	"github.com/vanderheijden86/clustermap/pkg/topics"
	"github.com/vanderheijden86/clustermap/pkg/ui"
	"github.com/vanderheijden86/clustermap/pkg/version"
	"github.com/vanderheijden86/clustermap/pkg/watcher"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	// "cm export" launches the interactive export wizard. Strip the
	// subcommand so the remaining arguments parse as regular flags.
	wizardMode := len(os.Args) > 1 && os.Args[1] == "export"
	if wizardMode {
		os.Args = append(os.Args[:1], os.Args[2:]...)
	}

	dataPath := flag.String("data", "", "Path or URL of the cluster hierarchy (JSON, SQLite, or HTTP)")
	topicsURL := flag.String("topics", "", "Base URL for fetching cluster topics (overrides config)")
	configPath := flag.String("config", "", "Path to a config file (default: XDG config dir)")
	themeName := flag.String("theme", "", "Color theme: dark or light (overrides config)")
	noWatch := flag.Bool("no-watch", false, "Disable live reload when the data file changes")
	viewRootID := flag.String("view-root", "", "Cluster id to use as the layout root (export and robot modes)")
	exportPNG := flag.String("export-png", "", "Render a PNG snapshot to the given path and exit")
	exportSVG := flag.String("export-svg", "", "Render an SVG snapshot to the given path and exit")
	exportWidth := flag.Int("export-width", 0, "Snapshot width in pixels (default: config value)")
	exportHeight := flag.Int("export-height", 0, "Snapshot height in pixels (default: config value)")
	robotHierarchy := flag.Bool("robot-hierarchy", false, "Print the loaded hierarchy as JSON and exit")
	robotLayout := flag.Bool("robot-layout", false, "Print the packed layout as JSON and exit")
	robotTopics := flag.String("robot-topics", "", "Fetch topics for the given cluster id, print JSON, and exit")
	robotMetrics := flag.Bool("robot-metrics", false, "Print timing and cache metrics as JSON and exit")
	cpuProfile := flag.String("cpu-profile", "", "Write CPU profile to file")
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	flag.Parse()

	// CPU profiling support
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	if *help {
		fmt.Println("Usage: cm [options]")
		fmt.Println("       cm export [options]   Interactive export wizard")
		fmt.Println("\nA zoomable TUI map for conversation cluster hierarchies.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("cm %s\n", version.Version)
		os.Exit(0)
	}

	cfg := loadConfig(*configPath)
	if *themeName != "" {
		cfg.UI.Theme = *themeName
	}
	if *topicsURL != "" {
		cfg.Data.TopicEndpoint = *topicsURL
	}
	if *noWatch {
		off := false
		cfg.Data.Watch = &off
	}

	src, err := datasource.Resolve(datasource.DiscoverOptions{
		FlagPath:   *dataPath,
		ConfigPath: cfg.Data.Path,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error locating cluster data: %v\n", err)
		if errors.Is(err, datasource.ErrNoSource) {
			fmt.Fprintln(os.Stderr, "Pass --data, set data.path in the config, or place a clusters.json in the current directory.")
		}
		os.Exit(1)
	}

	ctx := context.Background()
	sess, err := datasource.Open(ctx, src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading clusters: %v\n", err)
		os.Exit(1)
	}
	defer sess.Close()

	// SQLite sources carry their own topics table; file and HTTP sources
	// can point at a remote endpoint instead.
	if cfg.Data.TopicEndpoint != "" && src.Kind != datasource.KindSQLite {
		sess.SetTopicEndpoint(cfg.Data.TopicEndpoint)
	}

	switch {
	case *robotHierarchy:
		exitOn(runRobotHierarchy(os.Stdout, sess))
	case *robotLayout:
		exitOn(runRobotLayout(os.Stdout, sess, *viewRootID, *exportWidth, *exportHeight))
	case *robotTopics != "":
		exitOn(runRobotTopics(ctx, os.Stdout, sess, *robotTopics))
	case *robotMetrics:
		exitOn(runRobotMetrics(os.Stdout, sess, *exportWidth, *exportHeight))
	}

	if *exportPNG != "" || *exportSVG != "" {
		exitOn(runHeadlessExport(sess, cfg, *exportPNG, *exportSVG, *viewRootID, *exportWidth, *exportHeight))
	}

	if wizardMode {
		exitOn(runExportWizard(sess, cfg))
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "cm: stdout is not a terminal")
		fmt.Fprintln(os.Stderr, "Use --export-png/--export-svg or a --robot-* flag for non-interactive output.")
		os.Exit(1)
	}

	snapshot := ui.NewDataSnapshot(sess.Root(), sess)

	var cache *topics.Cache
	if sess.HasTopics() {
		cache = topics.NewCache(sess)
	}

	var w *watcher.Watcher
	if cfg.WatchEnabled() && src.Kind != datasource.KindHTTP {
		w, err = watcher.New(src.Path)
		if err != nil {
			debug.Log("cm: watch %s: %v", src.Path, err)
			w = nil
		} else if err := w.Start(); err != nil {
			debug.Log("cm: watch %s: %v", src.Path, err)
			w = nil
		} else {
			defer w.Stop()
		}
	}

	m := ui.NewModel(snapshot, sess, cache, w, cfg)
	if err := runTUIProgram(m); err != nil {
		fmt.Printf("Error running cluster map: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig resolves the effective config. An explicit --config path must
// load cleanly; the default search path degrades to defaults on any error.
func loadConfig(path string) config.Config {
	if path != "" {
		cfg, err := config.LoadFrom(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config %s: %v\n", path, err)
			os.Exit(1)
		}
		return cfg
	}
	cfg, err := config.Load()
	if err != nil {
		// Non-fatal: continue without config
		debug.Log("cm: config: %v", err)
		return config.DefaultConfig()
	}
	return cfg
}

func exitOn(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(0)
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set CM_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("CM_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()

				select {
				case <-runDone:
					return
				case <-time.After(2 * time.Second):
				}

				p.Kill()
			}()
		}
	}

	_, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
			return nil
		}
	}
	return err
}
