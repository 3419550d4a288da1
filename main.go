// authflow TUI - A terminal client for the identity service sign-up and
// login flow.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/authflow-tui/internal/config"
	"github.com/jeranaias/authflow-tui/internal/history"
	"github.com/jeranaias/authflow-tui/internal/identity"
	"github.com/jeranaias/authflow-tui/internal/session"
	"github.com/jeranaias/authflow-tui/internal/tasks"
	"github.com/jeranaias/authflow-tui/internal/ui/auth"
	"github.com/jeranaias/authflow-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "print version and exit")
		configPath  = flag.String("config", "", "path to config file (TOML or JSON)")
		apiURL      = flag.String("api-url", "", "identity API base URL (overrides config)")
		themeName   = flag.String("theme", "", "color theme: dark, light, or auto")
		noHistory   = flag.Bool("no-history", false, "disable the local event log")
		showEvents  = flag.Int("events", 0, "print the last N audit events and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("authflow %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *apiURL != "" {
		cfg.API.URL = *apiURL
	}
	if *themeName != "" {
		cfg.UI.Theme = *themeName
	}
	if *noHistory {
		cfg.History.Enabled = false
	}

	closeLog := setupLogging()
	defer closeLog()

	if *showEvents > 0 {
		if err := printEvents(cfg, *showEvents); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := runTUI(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads from an explicit path, or from the default
// locations under ~/.authflow.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// setupLogging redirects the standard logger to a file in the config
// directory. Logs hold request metadata only, never credentials.
func setupLogging() func() {
	dir, err := config.ConfigDir()
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	path := filepath.Join(dir, "authflow.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	log.SetOutput(f)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	return func() { f.Close() }
}

// printEvents dumps the tail of the audit trail to stdout.
func printEvents(cfg *config.Config, n int) error {
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	events, err := store.Recent(n)
	if err != nil {
		return err
	}

	for _, ev := range events {
		fmt.Printf("%s  %-14s %-10s %s\n",
			ev.At.Local().Format(time.RFC3339), ev.State, ev.Outcome, ev.Message)
	}
	return nil
}

// runTUI wires the session machine, identity client, and event log
// together and runs the Bubble Tea program.
func runTUI(cfg *config.Config) error {
	client := identity.NewClient(cfg.API.URL, cfg.API.Key).
		WithTimeout(time.Duration(cfg.API.TimeoutSecs) * time.Second)
	log.Printf("identity client: url=%s key=%s", cfg.API.URL, client.APIKeyMasked())

	machine := session.New()

	manager := tasks.NewManager()
	defer manager.Stop()

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			// The audit trail is best-effort; run without it.
			log.Printf("history disabled: %v", err)
		} else {
			defer store.Close()
			machine.Subscribe(store.Listener())
		}
	}

	theme := styles.NewTheme(cfg.UI.Theme)
	model := auth.New(machine, client, manager, theme,
		time.Duration(cfg.API.TimeoutSecs)*time.Second)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run program: %w", err)
	}
	return nil
}
