// cmd/cargo is the cargo coordinator: HTTP and gRPC servers, the ETA watcher and a few
// operator commands sharing one configuration.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Tanmoy095/LogiSynapse/cargo-service/config"
	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/logger"
)

var version = "dev"

var (
	// Global flags
	verbose     bool
	configPath  string
	storeDriver string

	cfg *config.Config
	log *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cargo",
	Short: "Cargo coordinator - track air cargo consolidations and their ETAs",
	Long: `Keeps the cargo list of a freight coordinator: consignee, consol, shipment, MAWB and
HAWB numbers, KLL number, pre-alert date, ETA, status and instructions.

Records whose ETA day has arrived and that are not Completed are flagged urgent.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if storeDriver != "" {
			cfg.STORE_DRIVER = storeDriver
		}
		log, err = logger.New(cfg.LOG_LEVEL, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default $CARGO_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&storeDriver, "store", "", "store driver: memory, sqlite, postgres or firestore")

	rootCmd.AddCommand(serveCmd, searchCmd, alertsCmd, eventsCmd, versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
