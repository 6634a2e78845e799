// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package dnslinks

import (
	"context"
	"fmt"
	"os"

	"github.com/Azure/azgov"
	"github.com/Azure/azgov/cmd/azgovtool/command/setup"
	"github.com/Azure/azgov/internal/checker"
	"github.com/Azure/azgov/internal/config"
	"github.com/Azure/azgov/internal/export"
	"github.com/Azure/azgov/internal/report"
	"github.com/Azure/azgov/reconcile"
	"github.com/spf13/cobra"
)

var reconcileCmd = cobra.Command{
	Use:   "reconcile",
	Short: "Creates missing and replaces stale private DNS zone links.",
	Long: `Creates missing and replaces stale private DNS zone links.

A link whose name is expected but whose target is another virtual network is deleted and created again.
Links are never changed in place. Failed actions are recorded and the run continues; the command exits
with status 0 once the pass completes and with status 1 when the pass cannot start.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		cfg, err := setup.Config(cmd, config.SectionDNSLinks)
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

		hub, err := preflight(ctx, sess)
		if err != nil {
			setup.Fatal(cmd, "preflight checks failed", err)
			return
		}

		res, err := reconcile.Run(ctx, sess.Client.ForHub(hub.ID), newRequest(cfg, hub, sess.Subscriptions), newOptions(cfg, sess))
		if err != nil {
			setup.Fatal(cmd, "could not reconcile private DNS zone links", err)
			return
		}

		if err := writeOutputs(cfg, sess.RunID, hub, res); err != nil {
			setup.Fatal(cmd, "could not write outputs", err)
			return
		}

		cmd.SetOut(os.Stdout)
		cmd.Println(res.Summary.String())
	},
}

func init() {
	setup.AddDNSLinksFlags(&reconcileCmd)
}

// preflight resolves the hub subscription and checks the zones resource group exists.
func preflight(ctx context.Context, sess *setup.Session) (azgov.Subscription, error) {
	var hub azgov.Subscription

	v := checker.NewValidator(
		sess.Logger,
		checker.CheckSubscriptionResolvable(sess.Subscriptions, sess.Config.DNSLinks.HubSubscription, &hub),
		checker.CheckResourceGroupExists(ctx, sess.Client, &hub, sess.Config.DNSLinks.ZonesResourceGroup),
	)

	if err := v.Validate(); err != nil {
		return azgov.Subscription{}, err
	}

	sess.Logger.Info().
		Str("hub_subscription", hub.Name).
		Str("hub_subscription_id", hub.ID).
		Str("zones_resource_group", sess.Config.DNSLinks.ZonesResourceGroup).
		Msg("preflight checks passed")

	return hub, nil
}

func newRequest(cfg *config.Config, hub azgov.Subscription, subs []azgov.Subscription) *reconcile.Request {
	return &reconcile.Request{
		HubSubscriptionID: hub.ID,
		Subscriptions:     subs,
		Scope: azgov.NewScope(&azgov.ScopeOptions{
			ExcludeSubscriptions: cfg.ExcludeSubscriptions,
			ExcludeZones:         cfg.DNSLinks.ExcludeZones,
			ExcludeNetworks:      cfg.DNSLinks.ExcludeVNets,
			Zones:                cfg.DNSLinks.Zones,
		}),
	}
}

func newOptions(cfg *config.Config, sess *setup.Session) *reconcile.Options {
	opts := reconcile.DefaultOptions()
	opts.Parallelism = cfg.Parallelism
	opts.MaxRetries = cfg.MaxRetries
	opts.DryRun = cfg.DryRun
	opts.RunID = sess.RunID
	opts.Logger = sess.Logger.With().Str("chore", "dnslinks").Logger()

	return opts
}

func writeOutputs(cfg *config.Config, runID string, hub azgov.Subscription, res *reconcile.Result) error {
	if cfg.Output != "" {
		if err := export.JSONFile(cfg.Output, res.Log.Entries()); err != nil {
			return err
		}
	}

	if cfg.DNSLinks.Report == "" {
		return nil
	}

	f, err := os.Create(cfg.DNSLinks.Report)
	if err != nil {
		return fmt.Errorf("could not create report %s: %w", cfg.DNSLinks.Report, err)
	}
	defer f.Close() // nolint: errcheck

	meta := report.Metadata{
		RunID:              runID,
		HubSubscription:    hub.Name,
		ZonesResourceGroup: cfg.DNSLinks.ZonesResourceGroup,
		DryRun:             cfg.DryRun,
	}

	if err := report.DNSLinksMd(f, meta, res); err != nil {
		return err
	}

	return f.Close()
}
