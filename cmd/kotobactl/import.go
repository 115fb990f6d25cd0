package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/kotoba-backend/internal/app/importer"
	"github.com/heartmarshall/kotoba-backend/internal/service/integration"
)

var importConfigPath string

var importCmd = &cobra.Command{
	Use:   "import [dir]",
	Short: "Import saved analyses (*.txt) and exported records (*.json) from a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runImport,
}

func init() {
	importCmd.Flags().StringVar(&importConfigPath, "import-config", "", "path to import config YAML (optional; falls back to env)")
	importCmd.Flags().Bool("dry-run", false, "parse and validate without storing")
	importCmd.Flags().Bool("rebuild", false, "rebuild the aggregates after importing")
}

func runImport(cmd *cobra.Command, args []string) error {
	icfg, err := importer.LoadConfig(importConfigPath)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		icfg.Dir = args[0]
	}
	if cmd.Flags().Changed("dry-run") {
		icfg.DryRun, _ = cmd.Flags().GetBool("dry-run")
	}
	if cmd.Flags().Changed("rebuild") {
		icfg.Rebuild, _ = cmd.Flags().GetBool("rebuild")
	}

	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	res, err := importer.Run(cmd.Context(), icfg, e.svcs.Parsing, e.log)
	if err != nil {
		return err
	}
	if err := printJSON(res); err != nil {
		return err
	}
	if res.Errors > 0 {
		return fmt.Errorf("%d of %d files failed", res.Errors, res.FilesProcessed)
	}

	if !icfg.Rebuild || icfg.DryRun {
		return nil
	}
	in := integration.RebuildInput{}
	for {
		rb, err := e.svcs.Integration.RebuildAll(cmd.Context(), in)
		if err != nil {
			return fmt.Errorf("rebuild after import: %w", err)
		}
		if rb.Done {
			return printJSON(rb)
		}
		in.ContinuationToken = rb.ContinuationToken
	}
}
