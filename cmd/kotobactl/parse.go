package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/kotoba-backend/internal/japanese"
	"github.com/heartmarshall/kotoba-backend/internal/parser"
	"github.com/heartmarshall/kotoba-backend/internal/service/parsing"
)

var (
	parseTitle    string
	parseAnalysis bool
	parsePreview  bool
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Analyse a Japanese text and store the result",
	Long: "Reads a text from file (or stdin with - or no argument), sends it to the AI provider and stores the parsed record.\n" +
		"With --analysis the input is an analysis reply saved earlier and no provider call is made.\n" +
		"With --preview the analysis is only parsed and printed.",
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().StringVar(&parseTitle, "title", "", "record title")
	parseCmd.Flags().BoolVar(&parseAnalysis, "analysis", false, "input is an analysis reply, not source text")
	parseCmd.Flags().BoolVar(&parsePreview, "preview", false, "parse an analysis reply without storing it")
}

func readInput(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read %s: %w", args[0], err)
	}
	return string(data), nil
}

func runParse(cmd *cobra.Command, args []string) error {
	text, err := readInput(args)
	if err != nil {
		return err
	}

	if parsePreview {
		words, err := japanese.Default()
		if err != nil {
			return fmt.Errorf("japanese tokenizer: %w", err)
		}
		return printJSON(parser.New(words).Parse(text))
	}

	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	var res *parsing.ParseResult
	if parseAnalysis {
		res, err = e.svcs.Parsing.IngestAnalysis(cmd.Context(), parsing.IngestInput{Analysis: text, Title: parseTitle})
	} else {
		res, err = e.svcs.Parsing.AnalyzeText(cmd.Context(), parsing.AnalyzeInput{Text: text, Title: parseTitle})
	}
	if err != nil {
		return err
	}
	return printJSON(res)
}
