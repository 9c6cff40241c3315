package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/handiism/trackflyer/internal/config"
	"github.com/handiism/trackflyer/internal/logging"
	"github.com/handiism/trackflyer/internal/tui"
)

func main() {
	configFlag := flag.String("config", "", "Path to config file")
	logFlag := flag.String("log", "", "Write logs to this file")
	flag.Parse()

	settings, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// the alt screen owns stdout, so logs go to a file or nowhere
	logger := logging.Discard()
	if *logFlag != "" {
		f, err := os.OpenFile(*logFlag, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logger = logging.New(settings.LogLevel, f)
	}

	if err := tui.Run(settings, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
