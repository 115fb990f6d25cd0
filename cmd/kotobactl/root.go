package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/kotoba-backend/internal/app"
	"github.com/heartmarshall/kotoba-backend/internal/config"
)

var rootCmd = &cobra.Command{
	Use:           "kotobactl",
	Short:         "kotoba maintenance CLI",
	Long:          "Rebuild and repair the vocabulary and structure aggregates, import saved analyses and parse texts.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $CONFIG_PATH or ./config.yaml)")

	rootCmd.AddCommand(rebuildCmd)
	rootCmd.AddCommand(repairCmd)
	rootCmd.AddCommand(integrateCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(parseCmd)
}

// env is the loaded configuration plus wired services for one command run.
type env struct {
	cfg  *config.Config
	log  *slog.Logger
	svcs *app.Services
}

// setup loads config and wires the services. Callers must call env.close.
func setup(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := app.NewLogger(cfg.Log, cmd.ErrOrStderr())

	svcs, err := app.Build(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: logger, svcs: svcs}, nil
}

func (e *env) close() { e.svcs.Close() }

// loadConfig prefers the --config flag over CONFIG_PATH.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

// printJSON writes v to stdout, indented.
func printJSON(v any) error { return encodeJSON(os.Stdout, v) }

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
