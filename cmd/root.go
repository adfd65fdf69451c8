package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/retail-report/internal/config"
)

var cfg *config.Config

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "retail-report",
	Short: "Retail transaction reporting",
	Long:  "Loads a retail transaction file, cleans and aggregates it, and writes revenue, country, product and customer (RFM) reports.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.LoadFile(configPath)
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		if logLevel != "" {
			c.Log.Level = logLevel
		}
		cfg = c

		return eris.Wrap(config.InitLogger(cfg.Log), "init logger")
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./config.yaml when present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
