// Command evalctl is the operator CLI: offline reports against the database,
// token minting and seeding a running server.
package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okian/peereval/internal/bootstrap"
	"github.com/okian/peereval/internal/config"
	"github.com/okian/peereval/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:           "evalctl",
	Short:         "Operator tool for the peer evaluation service",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		return logger.SetLevelString(level)
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "YAML config file (defaults to $PEEREVAL_CONFIG)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug|info|warn|error)")

	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(completionCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(checkDataCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	if err := logger.InitWithWriter(os.Stderr); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Stderr.WriteString("evalctl: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

// loadConfig honours --config, falling back to the environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = os.Getenv(config.EnvConfigFile)
	}
	return config.LoadFile(cmd.Context(), path)
}

// withApp builds the service for the duration of fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *bootstrap.App) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	app, err := bootstrap.Build(ctx, cfg, logger.Get())
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(ctx, app)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
