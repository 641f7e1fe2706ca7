package main

import (
	"os"
	"strings"
)

// init runs before Bubble Tea or lipgloss touch the terminal.
//
// Export and server invocations never draw a UI, but terminal background
// detection can still write OSC/DSR query sequences to stdout. Setting CI=1
// early disables that probing for those modes.
func init() {
	if os.Getenv("CI") != "" {
		return
	}
	if !shouldSuppressTTYQueries(os.Args[1:], os.Getenv("CANOPY_TEST_MODE") != "") {
		return
	}
	_ = os.Setenv("CI", "1")
}

func shouldSuppressTTYQueries(args []string, envTest bool) bool {
	if envTest {
		return true
	}
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		name := strings.TrimLeft(arg, "-")
		if i := strings.IndexByte(name, '='); i >= 0 {
			name = name[:i]
		}
		switch name {
		case "version", "help", "h", "export", "serve":
			return true
		}
	}
	return false
}
