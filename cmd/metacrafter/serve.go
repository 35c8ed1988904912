package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/apicrafter/metacrafter/api"
	"github.com/apicrafter/metacrafter/cache/rediscache"
	"github.com/apicrafter/metacrafter/classifier/analyzer"
	"github.com/apicrafter/metacrafter/classifier/catalog"
	"github.com/apicrafter/metacrafter/classifier/dateparser"
	"github.com/apicrafter/metacrafter/classifier/engine"
	"github.com/apicrafter/metacrafter/internal/config"
	"github.com/apicrafter/metacrafter/metrics"
	"github.com/apicrafter/metacrafter/service/scheduler"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP scan surface",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := config.FromViper(v)
			return runServe(opts)
		},
	}
}

func runServe(opts config.Options) error {
	cat, issues := catalog.Load(opts.RuleDirs)
	for _, issue := range issues {
		fmt.Printf("catalog issue: %s\n", issue.Detail)
	}
	metrics.SetCatalogRulesLoaded(cat.Len())
	metrics.AddCatalogLoadIssues(len(issues))

	holder := scheduler.NewCatalogHolder(cat)
	reloader := scheduler.NewReloadService(holder, opts.RuleDirs)
	if err := reloader.Start(context.Background(), "@every 5m"); err != nil {
		return err
	}
	defer reloader.Stop()

	dp := dateparser.MatchDate(dateparser.NewTableParser())
	if !opts.ParseDates {
		dp = dateparser.Disabled{}
	}

	analyzerOpts := analyzer.Options{
		Limit:       opts.Limit,
		DictShare:   opts.DictShare,
		EmptyValues: analyzer.DefaultEmptyTokens(),
		DateParser:  dp,
	}
	engOpts := engine.Options{
		ConfidenceThreshold: opts.ConfidenceThreshold,
		ParseDates:          opts.ParseDates,
		IgnoreImprecise:     opts.IgnoreImprecise,
		ExceptEmpty:         opts.ExceptEmpty,
		EmptyValues:         analyzer.DefaultEmptyTokens(),
		DateParser:          dp,
	}

	if opts.RescanSpec != "" && opts.RescanSourceKind != "" {
		rescanner, err := scheduler.NewRescanService(scheduler.RescanConfig{
			SourceKind:   opts.RescanSourceKind,
			DatabaseDSN:  opts.DatabaseDSN,
			Query:        opts.RescanQuery,
			KafkaBrokers: opts.KafkaBrokers,
			KafkaTopic:   opts.KafkaTopic,
			KafkaGroupID: opts.KafkaGroupID,
			MQTTBroker:   opts.MQTTBroker,
			MQTTTopic:    opts.MQTTTopic,
			MQTTClientID: opts.MQTTClientID,
			MaxMessages:  opts.RescanMaxMessages,
			ReadTimeout:  opts.RescanReadTimeout,
		}, holder.Get, engOpts, analyzerOpts)
		if err != nil {
			return err
		}
		if err := rescanner.Start(context.Background(), opts.RescanSpec); err != nil {
			return err
		}
		defer rescanner.Stop()
	}

	cache := rediscache.New(opts.RedisAddr, opts.CacheTTL)
	defer cache.Close()

	mux := chi.NewRouter()
	api.InitRoute(mux, holder.Get, engOpts, analyzerOpts, cache)

	fmt.Printf("listening on %s\n", opts.HTTPAddr)
	return http.ListenAndServe(opts.HTTPAddr, mux)
}
