package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"tagren/internal/adapters/filesystem"
	"tagren/internal/adapters/tui"
	"tagren/internal/adapters/viewer"
	"tagren/internal/config"
	"tagren/internal/logging"
)

func main() {
	logFile := flag.String("log-file", "", "append rename logs to this file")
	dryRun := flag.Bool("dry-run", false, "log renames without applying them")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: tagren [flags] <directory>\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	dir := "."
	if flag.NArg() > 0 {
		dir = flag.Arg(0)
	}

	config.LoadDotEnv()
	cfg := config.Load()

	dir, err := filesystem.ExpandPath(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	images, err := filesystem.DiscoverImages(dir, filesystem.DiscoverOptions{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI, so logs only go to the file
	logger := logging.Discard()
	if *logFile != "" {
		l, closeLog, err := logging.New(logging.Options{File: *logFile, Stdout: io.Discard})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer closeLog()
		logger = l
	}

	app := tui.NewApp(filesystem.New(), viewer.NewOpener(), logger, dir, images, cfg.CaseInsensitive)
	app.Review().SetDryRun(*dryRun)

	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
