package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/okian/peereval/internal/bootstrap"
	"github.com/okian/peereval/internal/domain/matching"
	"github.com/okian/peereval/internal/domain/model"
)

// operatorMaster and operatorTeacher are the identities reports run under.
// The CLI is trusted; it reads the database directly.
var (
	operatorMaster  = model.Identity{Role: model.RoleMaster, UserID: "evalctl"}
	operatorTeacher = model.Identity{Role: model.RoleTeacher, UserID: "evalctl"}
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the weighted class summary",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
			rep, err := app.Service.Summary(ctx, operatorMaster)
			if err != nil {
				return err
			}
			return printJSON(cmd, rep)
		})
	},
}

var completionCmd = &cobra.Command{
	Use:   "completion",
	Short: "Print class completion progress",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
			rep, err := app.Service.Completion(ctx, operatorTeacher)
			if err != nil {
				return err
			}
			return printJSON(cmd, rep)
		})
	},
}

var matchCmd = &cobra.Command{
	Use:   "match STUDENT_ID",
	Short: "Rank catalog entities nearest to a student's composite",
	Args:  cobra.ExactArgs(1),
	RunE:  runMatch,
}

func init() {
	matchCmd.Flags().Int("top-k", 0, "number of results (0 uses the configured default)")
	matchCmd.Flags().String("method", "", "distance method: euclidean or manhattan")
}

func runMatch(cmd *cobra.Command, args []string) error {
	q := matching.Query{StudentID: args[0]}
	q.Method, _ = cmd.Flags().GetString("method")
	if cmd.Flags().Changed("top-k") {
		k, _ := cmd.Flags().GetInt("top-k")
		q.TopK = &k
	}
	return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
		res, err := app.Service.Match(ctx, operatorMaster, q)
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	})
}
