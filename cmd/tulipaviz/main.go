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
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/TulipaEnergy/tulipaviz/internal/datasource"
	"github.com/TulipaEnergy/tulipaviz/pkg/config"
	"github.com/TulipaEnergy/tulipaviz/pkg/store"
	"github.com/TulipaEnergy/tulipaviz/pkg/ui"
	"github.com/TulipaEnergy/tulipaviz/pkg/version"
)

func main() {
	dataDir := flag.String("data-dir", "", "Directory to scan for result databases (default: $TULIPAVIZ_DATA_DIR, then cwd)")
	configPath := flag.String("config", "", "Path to config file (default: XDG config dir)")
	layoutPath := flag.String("layout", "", "Path to dashboard layout file (default: XDG state dir)")
	listFlag := flag.Bool("list", false, "List discovered result databases and exit")
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	flag.Parse()

	if *help {
		fmt.Println("Usage: tulipaviz [options]")
		fmt.Println("\nA TUI dashboard for Tulipa energy model results.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("tulipaviz %s\n", version.Version)
		os.Exit(0)
	}

	setupLogging()

	appCfg, cfgErr := loadConfig(*configPath)
	if cfgErr != nil {
		// Non-fatal: continue with defaults.
		log.Printf("config: %v", cfgErr)
		appCfg = config.DefaultConfig()
	}

	dir := *dataDir
	if dir == "" && len(appCfg.Discovery.DataDirs) > 0 {
		dir = appCfg.Discovery.DataDirs[0]
	}

	sources, err := datasource.DiscoverSources(datasource.DiscoveryOptions{
		Dir:                    dir,
		ValidateAfterDiscovery: true,
		Logger:                 func(msg string) { log.Print(msg) },
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error discovering databases: %v\n", err)
		os.Exit(1)
	}

	if *listFlag {
		if len(sources) == 0 {
			fmt.Println("No result databases found.")
			os.Exit(0)
		}
		for _, src := range sources {
			fmt.Println(src.String())
		}
		os.Exit(0)
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "tulipaviz is interactive; run it from a terminal (or use --list)")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	readers, err := datasource.OpenAll(ctx, sources)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening databases: %v\n", err)
		os.Exit(1)
	}
	defer datasource.CloseAll(readers)

	for _, src := range sources {
		appCfg.AddRecent(src.Path)
	}
	if err := config.Save(appCfg); err != nil {
		log.Printf("save config: %v", err)
	}

	st := store.New()
	layout := *layoutPath
	if layout == "" {
		layout = config.LayoutPath()
	}
	if err := st.LoadLayout(layout); err != nil {
		// A fresh or corrupted layout file means an empty dashboard,
		// never a startup failure.
		log.Printf("load layout: %v", err)
	}

	// An explicit theme overrides background detection; anything else
	// leaves lipgloss to query the terminal.
	renderer := lipgloss.DefaultRenderer()
	switch appCfg.UI.Theme {
	case "dark":
		renderer.SetHasDarkBackground(true)
	case "light":
		renderer.SetHasDarkBackground(false)
	}
	theme := ui.DefaultTheme(renderer)
	m := ui.NewDashboard(theme, appCfg, st, sources, readers)

	if err := runTUIProgram(m); err != nil {
		fmt.Fprintf(os.Stderr, "Error running tulipaviz: %v\n", err)
		os.Exit(1)
	}
}

// setupLogging routes the standard logger to $TULIPAVIZ_LOG, or
// discards it. Writing log lines to the terminal would corrupt the TUI.
func setupLogging() {
	path := os.Getenv("TULIPAVIZ_LOG")
	if path == "" {
		log.SetOutput(io.Discard)
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.SetOutput(io.Discard)
		return
	}
	log.SetOutput(f)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func runTUIProgram(m tea.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
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

	// Optional auto-quit for automated tests: set TULIPAVIZ_AUTOCLOSE_MS.
	if v := os.Getenv("TULIPAVIZ_AUTOCLOSE_MS"); v != "" {
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
	if err != nil && (errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted)) {
		return nil
	}
	return err
}
