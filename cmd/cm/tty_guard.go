package main

import (
	"os"
	"strings"
)

// init runs before Bubble Tea acquires the terminal (and before any TUI starts).
//
// In some PTY/TTY capture environments, Lipgloss/Termenv background detection
// can emit OSC/DSR control sequences to stdout. Those sequences are harmless in
// a real terminal but corrupt the JSON that robot modes print for scripts.
//
// Robot and headless invocations are treated as non-interactive: setting CI=1
// early makes Termenv skip TTY probing, so nothing extra reaches stdout.
func init() {
	if os.Getenv("CI") != "" {
		return
	}

	if !shouldSuppressTTYQueries(os.Args, os.Getenv("CM_ROBOT") == "1", os.Getenv("CM_TEST_MODE") != "") {
		return
	}

	_ = os.Setenv("CI", "1")
}

func shouldSuppressTTYQueries(args []string, envRobot, envTest bool) bool {
	if envRobot || envTest {
		return true
	}

	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		// The flag package accepts -flag, --flag, and -flag=value.
		name := strings.TrimLeft(arg, "-")
		if eq := strings.IndexByte(name, '='); eq >= 0 {
			name = name[:eq]
		}
		if strings.HasPrefix(name, "robot-") {
			return true
		}
		switch name {
		case "version", "help", "export-png", "export-svg":
			return true
		}
	}

	return false
}
