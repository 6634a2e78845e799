// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package roles

import (
	"os"

	"github.com/Azure/azgov"
	"github.com/Azure/azgov/cmd/azgovtool/command/setup"
	"github.com/Azure/azgov/internal/export"
	"github.com/Azure/azgov/internal/rolepurge"
	"github.com/spf13/cobra"
)

var purgeCmd = cobra.Command{
	Use:   "purge",
	Short: "Removes role assignments whose principal no longer exists.",
	Long: `Removes role assignments whose principal no longer exists.

Role assignments made at subscription scope and below are resolved against Microsoft Graph.
Assignments of principals that Graph does not return are deleted, or only reported with --dry-run.
The purge log is written as a JSON array to --output, or to stdout when no output is set.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		cfg, err := setup.Config(cmd)
		if err != nil {
			setup.Fatal(cmd, "could not load configuration", err)
			return
		}

		ctx, cancel := setup.Context(cmd, cfg)
		defer cancel()

		sess, err := setup.NewSession(ctx, cmd, cfg)
		if err != nil {
			setup.Fatal(cmd, "could not start session", err)
			return
		}

		scope := azgov.NewScope(&azgov.ScopeOptions{ExcludeSubscriptions: cfg.ExcludeSubscriptions})
		res, err := rolepurge.Purge(ctx, sess.Client, sess.Client, scope.Subscriptions(sess.Subscriptions), &rolepurge.Options{
			DryRun:      cfg.DryRun,
			Parallelism: cfg.Parallelism,
			MaxRetries:  cfg.MaxRetries,
			Logger:      sess.Logger.With().Str("chore", "roles").Logger(),
		})
		if err != nil {
			setup.Fatal(cmd, "could not purge role assignments", err)
			return
		}

		output := cfg.Output
		if output == "" {
			output = "-"
		}

		if err := export.JSONFile(output, res.Rows); err != nil {
			setup.Fatal(cmd, "could not write purge log", err)
			return
		}

		cmd.SetOut(os.Stderr)
		cmd.Printf("scanned: %d; deleted: %d; failed: %d; skipped-dry-run: %d; skipped: %d; failed subscriptions: %d\n",
			res.Scanned,
			res.Count(rolepurge.OutcomeDeleted),
			res.Count(rolepurge.OutcomeFailed),
			res.Count(rolepurge.OutcomeSkippedDryRun),
			res.Count(rolepurge.OutcomeSkipped),
			len(res.Failures),
		)
	},
}
