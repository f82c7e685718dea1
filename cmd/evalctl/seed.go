package main

import (
	"github.com/spf13/cobra"

	"github.com/okian/peereval/internal/seeding"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Run a simulated evaluation round against a running server",
	Long: `Log in as every student and a teacher, submit self, peer and teacher
scores generated from a fixed seed, replay one idempotency key, and, when
--master is set, check the summary and completion reports.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().String("url", "http://localhost:8080", "base URL of the service")
	seedCmd.Flags().String("password", "1234", "password shared by the seeded accounts")
	seedCmd.Flags().String("teacher", "T001", "teacher user id")
	seedCmd.Flags().String("master", "", "master user id used to verify reports")
	seedCmd.Flags().Int("workers", seeding.DefaultWorkers, "concurrent student sessions")
	seedCmd.Flags().Duration("timeout", seeding.DefaultTimeout, "HTTP request timeout")
	seedCmd.Flags().Uint64("seed", 1, "score generator seed")
	seedCmd.Flags().Bool("verbose", false, "log every submission")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()
	var cfg seeding.Config
	cfg.BaseURL, _ = f.GetString("url")
	cfg.Password, _ = f.GetString("password")
	cfg.TeacherID, _ = f.GetString("teacher")
	cfg.MasterID, _ = f.GetString("master")
	cfg.Workers, _ = f.GetInt("workers")
	cfg.Timeout, _ = f.GetDuration("timeout")
	cfg.Seed, _ = f.GetUint64("seed")
	cfg.Verbose, _ = f.GetBool("verbose")

	stats, err := seeding.Run(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	return printJSON(cmd, stats)
}
