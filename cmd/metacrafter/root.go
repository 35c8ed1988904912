package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/apicrafter/metacrafter/internal/config"
	"github.com/apicrafter/metacrafter/internal/logger"
)

var v = viper.New()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "metacrafter",
		Short: "Rule-driven semantic classifier for tabular fields",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts := config.FromViper(v)
			logger.Init(opts.LogLevel)
		},
	}
	config.BindFlags(root, v)
	root.AddCommand(newScanCmd(), newScanDBCmd(), newServeCmd())
	return root
}
