// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package setup holds the configuration, logging and Azure client wiring shared by the commands.
package setup

import (
	"fmt"

	"github.com/Azure/azgov/internal/config"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
)

const (
	FlagConfig              = "config"
	FlagLogLevel            = "log-level"
	FlagLogFormat           = "log-format"
	FlagTenantID            = "tenant-id"
	FlagParallelism         = "parallelism"
	FlagMaxRetries          = "max-retries"
	FlagTimeout             = "timeout"
	FlagDryRun              = "dry-run"
	FlagOutput              = "output"
	FlagExcludeSubscription = "exclude-subscription"

	FlagHubSubscription    = "hub-subscription"
	FlagZonesResourceGroup = "zones-resource-group"
	FlagZone               = "zone"
	FlagExcludeZone        = "exclude-zone"
	FlagExcludeVNet        = "exclude-vnet"
	FlagReport             = "report"

	FlagRequiredTag        = "required-tag"
	FlagResourceGroupsOnly = "resource-groups-only"
)

// AddPersistentFlags adds the flags shared by every command.
// Defaults are shown for reference only: a flag overrides the configuration only when set.
func AddPersistentFlags(cmd *cobra.Command) {
	fs := cmd.PersistentFlags()
	fs.String(FlagConfig, "", "Path to a YAML configuration file.")
	fs.String(FlagLogLevel, "info", "Log level (trace, debug, info, warn, error).")
	fs.String(FlagLogFormat, "console", "Log format (console or json).")
	fs.String(FlagTenantID, "", "Entra tenant ID to authenticate against.")
	fs.Int(FlagParallelism, 10, "Maximum number of concurrent calls to Azure.")
	fs.Int(FlagMaxRetries, 4, "Maximum number of retries for throttled mutations.")
	fs.Duration(FlagTimeout, 0, "Overall timeout of the run, 0 disables the timeout (default from configuration 30m).")
	fs.Bool(FlagDryRun, false, "Record every mutation as skipped without changing anything.")
	fs.StringP(FlagOutput, "o", "", "Path of the JSON output, - for stdout.")
	fs.StringSlice(FlagExcludeSubscription, nil, "Subscription name or ID to leave out, may be repeated.")
}

// AddDNSLinksFlags adds the flags of the private DNS zone link reconciliation.
func AddDNSLinksFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.String(FlagHubSubscription, "", "Name or ID of the subscription hosting the private DNS zones.")
	fs.String(FlagZonesResourceGroup, "", "Resource group of the hub subscription holding the private DNS zones.")
	fs.StringSlice(FlagZone, nil, "Zone to reconcile, may be repeated. Replaces zone discovery and zone exclusions.")
	fs.StringSlice(FlagExcludeZone, nil, "Zone to leave out, may be repeated.")
	fs.StringSlice(FlagExcludeVNet, nil, "Virtual network name or ID to leave out, may be repeated.")
	fs.String(FlagReport, "", "Path of the Markdown run report.")
}

// AddTagsFlags adds the flags of the tag audit.
func AddTagsFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringSlice(FlagRequiredTag, nil, "Tag name every object must carry, may be repeated.")
	fs.Bool(FlagResourceGroupsOnly, false, "Audit resource groups only.")
}

// Config loads the configuration, applies the flags set on the command line and
// validates the result together with the named sections.
func Config(cmd *cobra.Command, sections ...config.Section) (*config.Config, error) {
	path, err := cmd.Flags().GetString(FlagConfig)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(sections...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyFlags copies the flags set on the command line onto cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	fs := cmd.Flags()

	var errs error
	set := func(name string, apply func() error) {
		if f := fs.Lookup(name); f == nil || !f.Changed {
			return
		}

		if err := apply(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("flag --%s: %w", name, err))
		}
	}

	set(FlagLogLevel, func() (err error) { cfg.LogLevel, err = fs.GetString(FlagLogLevel); return })
	set(FlagLogFormat, func() (err error) { cfg.LogFormat, err = fs.GetString(FlagLogFormat); return })
	set(FlagTenantID, func() (err error) { cfg.TenantID, err = fs.GetString(FlagTenantID); return })
	set(FlagParallelism, func() (err error) { cfg.Parallelism, err = fs.GetInt(FlagParallelism); return })
	set(FlagMaxRetries, func() (err error) { cfg.MaxRetries, err = fs.GetInt(FlagMaxRetries); return })
	set(FlagTimeout, func() (err error) { cfg.Timeout, err = fs.GetDuration(FlagTimeout); return })
	set(FlagDryRun, func() (err error) { cfg.DryRun, err = fs.GetBool(FlagDryRun); return })
	set(FlagOutput, func() (err error) { cfg.Output, err = fs.GetString(FlagOutput); return })
	set(FlagExcludeSubscription, func() (err error) {
		cfg.ExcludeSubscriptions, err = fs.GetStringSlice(FlagExcludeSubscription)
		return
	})

	set(FlagHubSubscription, func() (err error) { cfg.DNSLinks.HubSubscription, err = fs.GetString(FlagHubSubscription); return })
	set(FlagZonesResourceGroup, func() (err error) {
		cfg.DNSLinks.ZonesResourceGroup, err = fs.GetString(FlagZonesResourceGroup)
		return
	})
	set(FlagZone, func() (err error) { cfg.DNSLinks.Zones, err = fs.GetStringSlice(FlagZone); return })
	set(FlagExcludeZone, func() (err error) { cfg.DNSLinks.ExcludeZones, err = fs.GetStringSlice(FlagExcludeZone); return })
	set(FlagExcludeVNet, func() (err error) { cfg.DNSLinks.ExcludeVNets, err = fs.GetStringSlice(FlagExcludeVNet); return })
	set(FlagReport, func() (err error) { cfg.DNSLinks.Report, err = fs.GetString(FlagReport); return })

	set(FlagRequiredTag, func() (err error) { cfg.Tags.RequiredTags, err = fs.GetStringSlice(FlagRequiredTag); return })
	set(FlagResourceGroupsOnly, func() (err error) {
		cfg.Tags.ResourceGroupsOnly, err = fs.GetBool(FlagResourceGroupsOnly)
		return
	})

	return errs
}
