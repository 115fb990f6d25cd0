package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/heartmarshall/kotoba-backend/internal/domain"
	"github.com/heartmarshall/kotoba-backend/internal/service/integration"
)

var (
	rebuildToken    string
	rebuildMaxPages int
	rebuildOnce     bool

	repairCollection string
	repairToken      string
	repairOnce       bool
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Recompute both aggregate collections from the record history",
	Long: "Wipes the vocabulary and structure aggregates and rebuilds them from every stored record.\n" +
		"Calls are repeated with the returned continuation token until the job is done, unless --once is set.",
	Args: cobra.NoArgs,
	RunE: runRebuild,
}

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Merge aggregate documents whose keys differ only by surrounding whitespace",
	Args:  cobra.NoArgs,
	RunE:  runRepair,
}

var integrateCmd = &cobra.Command{
	Use:   "integrate <record-id>",
	Short: "Merge one stored record into the aggregates",
	Args:  cobra.ExactArgs(1),
	RunE:  runIntegrate,
}

func init() {
	rebuildCmd.Flags().StringVar(&rebuildToken, "token", "", "continuation token of an interrupted rebuild")
	rebuildCmd.Flags().IntVar(&rebuildMaxPages, "max-pages", 0, "pages per call (0 = until exhausted)")
	rebuildCmd.Flags().BoolVar(&rebuildOnce, "once", false, "make a single call and print its continuation token")

	repairCmd.Flags().StringVar(&repairCollection, "collection", "all", "vocabulary, structures or all")
	repairCmd.Flags().StringVar(&repairToken, "token", "", "continuation token of an interrupted repair")
	repairCmd.Flags().BoolVar(&repairOnce, "once", false, "make a single call and print its continuation token")
}

func runRebuild(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	in := integration.RebuildInput{ContinuationToken: rebuildToken, MaxPages: rebuildMaxPages}
	for {
		res, err := e.svcs.Integration.RebuildAll(cmd.Context(), in)
		if err != nil {
			return interruptedRebuild(os.Stdout, res, err)
		}
		if res.Done || rebuildOnce {
			return printJSON(res)
		}
		e.log.Info("rebuild progress",
			slog.Int("processed_records", res.ProcessedRecords),
			slog.String("token", res.ContinuationToken),
		)
		in.ContinuationToken = res.ContinuationToken
	}
}

// interruptedRebuild prints the partial result of a failed rebuild call, if
// any, and names the token to resume with.
func interruptedRebuild(w io.Writer, res *integration.RebuildResult, err error) error {
	if res == nil || res.ContinuationToken == "" {
		return err
	}
	if perr := encodeJSON(w, res); perr != nil {
		return errors.Join(err, perr)
	}
	return fmt.Errorf("rebuild interrupted, resume with --token %s: %w", res.ContinuationToken, err)
}

// collections resolves the --collection flag.
func collections(name string) ([]domain.Collection, error) {
	switch name {
	case "all", "":
		return []domain.Collection{domain.CollectionVocabulary, domain.CollectionStructures}, nil
	case "vocabulary", string(domain.CollectionVocabulary):
		return []domain.Collection{domain.CollectionVocabulary}, nil
	case "structures", string(domain.CollectionStructures):
		return []domain.Collection{domain.CollectionStructures}, nil
	default:
		return nil, fmt.Errorf("unknown collection %q", name)
	}
}

func runRepair(cmd *cobra.Command, _ []string) error {
	targets, err := collections(repairCollection)
	if err != nil {
		return err
	}
	if repairToken != "" && len(targets) > 1 {
		return fmt.Errorf("--token needs a single --collection")
	}

	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	results := make(map[domain.Collection]*integration.RepairResult, len(targets))
	for _, c := range targets {
		in := integration.RepairInput{Collection: c, ContinuationToken: repairToken}
		for {
			res, err := e.svcs.Integration.RepairDuplicates(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("repair %s: %w", c, err)
			}
			results[c] = res
			if res.Done || repairOnce {
				break
			}
			e.log.Info("repair progress",
				slog.String("collection", c.String()),
				slog.Int("repaired_groups", res.TotalRepairedGroups),
				slog.String("token", res.ContinuationToken),
			)
			in.ContinuationToken = res.ContinuationToken
		}
	}
	return printJSON(results)
}

func runIntegrate(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid record id: %w", err)
	}

	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	res, err := e.svcs.Integration.IntegrateNewRecord(cmd.Context(), id)
	if err != nil {
		return err
	}
	return printJSON(res)
}
