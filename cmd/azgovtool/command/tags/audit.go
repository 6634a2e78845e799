// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package tags

import (
	"os"

	"github.com/Azure/azgov"
	"github.com/Azure/azgov/cmd/azgovtool/command/setup"
	"github.com/Azure/azgov/internal/config"
	"github.com/Azure/azgov/internal/export"
	"github.com/Azure/azgov/internal/tagaudit"
	"github.com/spf13/cobra"
)

var auditCmd = cobra.Command{
	Use:   "audit",
	Short: "Lists resource groups and resources that miss required tags.",
	Long: `Lists resource groups and resources that miss required tags.

Tag names are matched exactly. The findings are written as a JSON array to --output, or to stdout
when no output is set. Subscriptions that cannot be listed are logged and skipped.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		cfg, err := setup.Config(cmd, config.SectionTags)
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
		res := tagaudit.Audit(ctx, sess.Client, scope.Subscriptions(sess.Subscriptions), &tagaudit.Options{
			RequiredTags:       cfg.Tags.RequiredTags,
			ResourceGroupsOnly: cfg.Tags.ResourceGroupsOnly,
			Parallelism:        cfg.Parallelism,
			Logger:             sess.Logger.With().Str("chore", "tags").Logger(),
		})

		output := cfg.Output
		if output == "" {
			output = "-"
		}

		if err := export.JSONFile(output, res.Findings); err != nil {
			setup.Fatal(cmd, "could not write findings", err)
			return
		}

		cmd.SetOut(os.Stderr)
		cmd.Printf("audited: %d; findings: %d; failed subscriptions: %d\n", res.Audited, len(res.Findings), len(res.Failures))
	},
}

func init() {
	setup.AddTagsFlags(&auditCmd)
}
