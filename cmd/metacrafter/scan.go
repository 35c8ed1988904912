package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/apicrafter/metacrafter/classifier/analyzer"
	"github.com/apicrafter/metacrafter/classifier/catalog"
	"github.com/apicrafter/metacrafter/classifier/dateparser"
	"github.com/apicrafter/metacrafter/classifier/engine"
	"github.com/apicrafter/metacrafter/classifier/model"
	"github.com/apicrafter/metacrafter/internal/config"
)

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <newline-delimited-json-file>",
		Short: "Classify the fields of a newline-delimited JSON record file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := config.FromViper(v)
			return runScan(args[0], opts)
		},
	}
}

func runScan(path string, opts config.Options) error {
	src, closeFn, err := openNDJSONSource(path)
	if err != nil {
		return err
	}
	defer closeFn()

	return classifyAndPrint(src, opts)
}

// classifyAndPrint runs the full load-analyze-classify-print pipeline
// against an already-open record source; both the NDJSON file command
// and the SQL query command share it.
func classifyAndPrint(src model.Source, opts config.Options) error {
	cat, issues := catalog.Load(opts.RuleDirs)
	for _, issue := range issues {
		fmt.Fprintf(os.Stderr, "catalog issue: %s\n", issue.Detail)
	}

	dp := dateparser.MatchDate(dateparser.NewTableParser())
	if !opts.ParseDates {
		dp = dateparser.Disabled{}
	}

	stats := analyzer.Analyze(src, analyzer.Options{
		Limit:       opts.Limit,
		DictShare:   opts.DictShare,
		EmptyValues: analyzer.DefaultEmptyTokens(),
		DateParser:  dp,
	})

	view := cat.Select(catalog.SelectOptions{
		ContextFilters:  opts.ContextFilters,
		LangFilters:     opts.LangFilters,
		CountryFilters:  opts.CountryFilters,
		IgnoreImprecise: opts.IgnoreImprecise,
	})

	report, err := engine.Classify(context.Background(), view, stats, engine.Options{
		ConfidenceThreshold: opts.ConfidenceThreshold,
		StopOnMatch:         opts.StopOnMatch,
		ParseDates:          opts.ParseDates,
		IgnoreImprecise:     opts.IgnoreImprecise,
		ExceptEmpty:         opts.ExceptEmpty,
		EmptyValues:         analyzer.DefaultEmptyTokens(),
		DateParser:          dp,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// openNDJSONSource reads a file of one JSON object per line into an
// in-memory model.Source. Larger-than-memory inputs, compressed
// formats, and other record-source adapters live outside this CLI.
func openNDJSONSource(path string) (model.Source, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}

	var records []model.Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		order, row, err := model.DecodeOrderedJSONObject(line)
		if err != nil {
			f.Close()
			return nil, nil, fmt.Errorf("parsing line: %w", err)
		}
		records = append(records, model.NewRecord(order, row))
	}
	if err := scanner.Err(); err != nil {
		f.Close()
		return nil, nil, err
	}

	return model.NewSliceSource(records), func() { f.Close() }, nil
}
