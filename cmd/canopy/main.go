package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime/pprof"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/vanderheijden86/canopy/pkg/anim"
	"github.com/vanderheijden86/canopy/pkg/config"
	"github.com/vanderheijden86/canopy/pkg/debug"
	"github.com/vanderheijden86/canopy/pkg/export"
	"github.com/vanderheijden86/canopy/pkg/hierarchy"
	"github.com/vanderheijden86/canopy/pkg/metrics"
	"github.com/vanderheijden86/canopy/pkg/server"
	"github.com/vanderheijden86/canopy/pkg/store"
	"github.com/vanderheijden86/canopy/pkg/ui"
	"github.com/vanderheijden86/canopy/pkg/version"
	"github.com/vanderheijden86/canopy/pkg/watcher"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	configPath  string
	storeTarget string
	serve       bool
	addr        string
	exportPath  string
	format      string
	title       string
	noAnimate   bool
	noWatch     bool
	showMetrics bool
	cpuProfile  string
	help        bool
	version     bool
}

func parseFlags(args []string, stderr io.Writer) (options, *flag.FlagSet, error) {
	var o options
	fs := flag.NewFlagSet("canopy", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "Config file (default: "+config.ConfigPath()+")")
	fs.StringVar(&o.storeTarget, "store", "", "Tree store: path.json, path.db, sqlite:path or memory:")
	fs.BoolVar(&o.serve, "serve", false, "Serve the tree over HTTP instead of opening the TUI")
	fs.StringVar(&o.addr, "addr", "", "Listen address for -serve (default from config, :3000)")
	fs.StringVar(&o.exportPath, "export", "", "Render the current layout to an SVG or PNG file and exit")
	fs.StringVar(&o.format, "format", "", "Export format: svg or png (default: from -export extension)")
	fs.StringVar(&o.title, "title", "", "Title for the TUI header and exported images")
	fs.BoolVar(&o.noAnimate, "no-animate", false, "Disable transitions")
	fs.BoolVar(&o.noWatch, "no-watch", false, "Do not reload when the store file changes")
	fs.BoolVar(&o.showMetrics, "metrics", false, "Print timing metrics as JSON to stderr on exit")
	fs.StringVar(&o.cpuProfile, "cpu-profile", "", "Write CPU profile to file")
	fs.BoolVar(&o.help, "help", false, "Show help")
	fs.BoolVar(&o.version, "version", false, "Show version")
	err := fs.Parse(args)
	return o, fs, err
}

func run(args []string, stdout, stderr io.Writer) int {
	o, fs, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}

	if o.help {
		fmt.Fprintln(stdout, "Usage: canopy [options]")
		fmt.Fprintln(stdout, "\nBrowse and edit a collapsible hierarchy.")
		fs.SetOutput(stdout)
		fs.PrintDefaults()
		return 0
	}
	if o.version {
		fmt.Fprintf(stdout, "canopy %s\n", version.Version)
		return 0
	}

	if o.cpuProfile != "" {
		f, err := os.Create(o.cpuProfile)
		if err != nil {
			fmt.Fprintf(stderr, "Could not create CPU profile: %v\n", err)
			return 1
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(stderr, "Could not start CPU profile: %v\n", err)
			return 1
		}
		defer pprof.StopCPUProfile()
	}
	if o.showMetrics {
		defer metrics.WriteJSON(stderr)
	}

	cfg, err := loadConfig(o.configPath)
	if err != nil {
		// Non-fatal: continue with defaults
		fmt.Fprintf(stderr, "Warning: %v (using defaults)\n", err)
		cfg = config.DefaultConfig()
	}
	if o.storeTarget != "" {
		cfg.Store = o.storeTarget
	}
	if o.noAnimate || o.serve || o.exportPath != "" {
		zero := 0
		cfg.Animation.DurationMs = &zero
	}

	st, err := store.Open(cfg.Store)
	if err != nil {
		fmt.Fprintf(stderr, "Error opening store: %v\n", err)
		return 1
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctrlOpts, err := controllerOptions(cfg, st)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	ctrl, err := hierarchy.Load(ctx, st, ctrlOpts...)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading tree: %v\n", err)
		return 1
	}

	switch {
	case o.exportPath != "":
		nodes, links := ctrl.Layout()
		if err := export.SaveSnapshot(export.SnapshotOptions{
			Path:   o.exportPath,
			Format: o.format,
			Title:  o.title,
			Nodes:  nodes,
			Links:  links,
		}); err != nil {
			fmt.Fprintf(stderr, "Error exporting: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "Wrote %s\n", o.exportPath)
		return 0

	case o.serve:
		addr := cfg.Server.Addr
		if o.addr != "" {
			addr = o.addr
		}
		srv := server.New(ctrl, server.WithLogger(log.New(stderr, "canopy: ", log.LstdFlags)))
		if err := srv.ListenAndServe(ctx, addr); err != nil {
			fmt.Fprintf(stderr, "Error serving: %v\n", err)
			return 1
		}
		return 0
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(stderr, "Error: stdout is not a terminal; use -export or -serve")
		return 1
	}

	uiOpts := []ui.Option{ui.WithLoader(st), ui.WithBreadth(cfg.Layout.Breadth)}
	if o.title != "" {
		uiOpts = append(uiOpts, ui.WithTitle(o.title))
	}
	var w *watcher.Watcher
	if path, ok := watchPath(cfg); ok && !o.noWatch {
		w, err = watcher.New(path,
			watcher.WithDebounceDuration(time.Duration(cfg.Watch.DebounceMs)*time.Millisecond),
			watcher.WithOnError(func(err error) { debug.Log("watcher: %v", err) }),
		)
		if err != nil {
			fmt.Fprintf(stderr, "Warning: live reload disabled: %v\n", err)
			w = nil
		} else {
			uiOpts = append(uiOpts, ui.WithWatcher(w))
		}
	}

	// The TUI owns the terminal; stray log output would corrupt it.
	if !debug.Enabled() {
		log.SetOutput(io.Discard)
	}

	g, gctx := errgroup.WithContext(ctx)
	if w != nil {
		g.Go(func() error {
			if err := w.Run(gctx); err != nil {
				debug.Log("watcher stopped: %v", err)
			}
			return nil
		})
	}
	tuiCtx, cancel := context.WithCancel(gctx)
	g.Go(func() error {
		defer cancel()
		return runTUIProgram(tuiCtx, ui.NewModel(ctrl, uiOpts...))
	})
	// Stop the watcher once the TUI exits.
	g.Go(func() error {
		<-tuiCtx.Done()
		stop()
		return nil
	})

	if err := g.Wait(); err != nil {
		fmt.Fprintf(stderr, "Error running canopy: %v\n", err)
		return 1
	}
	return 0
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func controllerOptions(cfg config.Config, st store.Store) ([]hierarchy.Option, error) {
	easing, err := anim.Easing(cfg.Animation.Easing)
	if err != nil {
		return nil, err
	}
	return []hierarchy.Option{
		hierarchy.WithStore(st),
		hierarchy.WithBreadth(cfg.Layout.Breadth),
		hierarchy.WithWidth(cfg.Layout.Width, cfg.Layout.MarginLeft, cfg.Layout.MarginRight),
		hierarchy.WithDuration(cfg.Duration()),
		hierarchy.WithEasing(easing),
	}, nil
}

// watchPath returns the file to watch for external edits. Only JSON
// documents are watched: SQLite writes land in its WAL first.
func watchPath(cfg config.Config) (string, bool) {
	if !cfg.WatchEnabled() {
		return "", false
	}
	kind, loc := store.Parse(cfg.Store)
	if kind != store.KindFile || loc == "" {
		return "", false
	}
	return loc, true
}

func runTUIProgram(ctx context.Context, m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	// Optional auto-quit for automated tests: set CANOPY_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("CANOPY_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				select {
				case <-ctx.Done():
				case <-time.After(time.Duration(ms) * time.Millisecond):
					p.Quit()
				}
			}()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}
