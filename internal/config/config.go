// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package config loads the azgovtool configuration.
// Values are read from AZGOV_* environment variables, then from an optional YAML file;
// command line flags are applied last by the commands.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Azure/azgov/internal/logging"
	"github.com/caarlos0/env/v9"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "AZGOV_"

// Section names a part of the configuration a command depends on.
type Section string

const (
	SectionDNSLinks Section = "dnslinks"
	SectionTags     Section = "tags"
)

// Config holds the configuration shared by the commands.
type Config struct {
	TenantID             string        `env:"TENANT_ID" yaml:"tenant_id"`
	LogLevel             string        `env:"LOG_LEVEL" envDefault:"info" yaml:"log_level"`
	LogFormat            string        `env:"LOG_FORMAT" envDefault:"console" yaml:"log_format"`
	Parallelism          int           `env:"PARALLELISM" envDefault:"10" yaml:"parallelism"`
	MaxRetries           int           `env:"MAX_RETRIES" envDefault:"4" yaml:"max_retries"`
	Timeout              time.Duration `env:"TIMEOUT" envDefault:"30m" yaml:"timeout"`
	DryRun               bool          `env:"DRY_RUN" yaml:"dry_run"`
	Output               string        `env:"OUTPUT" yaml:"output"`
	ExcludeSubscriptions []string      `env:"EXCLUDE_SUBSCRIPTIONS" envSeparator:"," yaml:"exclude_subscriptions"`

	DNSLinks DNSLinksConfig `yaml:"dnslinks"`
	Tags     TagsConfig     `yaml:"tags"`
}

// DNSLinksConfig holds the configuration of the private DNS zone link reconciliation.
type DNSLinksConfig struct {
	HubSubscription    string   `env:"HUB_SUBSCRIPTION" yaml:"hub_subscription"`
	ZonesResourceGroup string   `env:"ZONES_RESOURCE_GROUP" yaml:"zones_resource_group"`
	Zones              []string `env:"ZONES" envSeparator:"," yaml:"zones"`
	ExcludeZones       []string `env:"EXCLUDE_ZONES" envSeparator:"," yaml:"exclude_zones"`
	ExcludeVNets       []string `env:"EXCLUDE_VNETS" envSeparator:"," yaml:"exclude_vnets"`
	Report             string   `env:"REPORT" yaml:"report"`
}

// TagsConfig holds the configuration of the tag audit.
type TagsConfig struct {
	RequiredTags       []string `env:"REQUIRED_TAGS" envSeparator:"," yaml:"required_tags"`
	ResourceGroupsOnly bool     `env:"RESOURCE_GROUPS_ONLY" yaml:"resource_groups_only"`
}

// Load returns the configuration read from the environment and, if path is not empty,
// from the YAML file at path. Keys present in the file override the environment.
func Load(path string) (*Config, error) {
	cfg := new(Config)
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("config.Load: parsing environment: %w", err)
	}

	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: reading %s: %w", path, err)
	}

	if err := decodeYAML(b, cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %s: %w", path, err)
	}

	return cfg, nil
}

// decodeYAML decodes b onto cfg, rejecting unknown keys. An empty document is allowed.
func decodeYAML(b []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	return nil
}

// Validate reports every problem of the configuration at once.
// The common settings are always checked, the named sections in addition.
func (c *Config) Validate(sections ...Section) error {
	var errs error

	if !logging.ValidLevel(c.LogLevel) {
		errs = multierror.Append(errs, fmt.Errorf("log level %q is not valid", c.LogLevel))
	}

	if c.LogFormat != "" && c.LogFormat != logging.FormatConsole && c.LogFormat != logging.FormatJSON {
		errs = multierror.Append(errs, fmt.Errorf("log format %q is not valid, must be %s or %s", c.LogFormat, logging.FormatConsole, logging.FormatJSON))
	}

	if c.Parallelism < 1 {
		errs = multierror.Append(errs, fmt.Errorf("parallelism must be at least 1, got %d", c.Parallelism))
	}

	if c.MaxRetries < 0 {
		errs = multierror.Append(errs, fmt.Errorf("max retries must not be negative, got %d", c.MaxRetries))
	}

	if c.Timeout < 0 {
		errs = multierror.Append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}

	for _, s := range sections {
		switch s {
		case SectionDNSLinks:
			if c.TenantID == "" {
				errs = multierror.Append(errs, errors.New("tenant ID is required"))
			}

			if c.DNSLinks.HubSubscription == "" {
				errs = multierror.Append(errs, errors.New("hub subscription is required"))
			}

			if c.DNSLinks.ZonesResourceGroup == "" {
				errs = multierror.Append(errs, errors.New("zones resource group is required"))
			}
		case SectionTags:
			if len(c.Tags.RequiredTags) == 0 {
				errs = multierror.Append(errs, errors.New("at least one required tag must be supplied"))
			}
		default:
			errs = multierror.Append(errs, fmt.Errorf("unknown configuration section %q", s))
		}
	}

	return errs
}
