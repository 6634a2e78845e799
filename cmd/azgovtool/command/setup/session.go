// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package setup

import (
	"context"
	"fmt"
	"os"

	"github.com/Azure/azgov"
	"github.com/Azure/azgov/internal/auth"
	"github.com/Azure/azgov/internal/azure"
	"github.com/Azure/azgov/internal/config"
	"github.com/Azure/azgov/internal/logging"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Session is what a command needs to run one chore against a tenant.
type Session struct {
	Config        *config.Config
	RunID         string
	Logger        zerolog.Logger
	Client        *azure.Client
	Subscriptions []azgov.Subscription // Subscriptions visible to the credential, before any exclusion
}

// NewSession builds the run logger, authenticates and lists the visible subscriptions.
// The zones resource group is bound to the client when set in the configuration.
func NewSession(ctx context.Context, cmd *cobra.Command, cfg *config.Config) (*Session, error) {
	runID := uuid.NewString()

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	logger = logger.With().Str("run_id", runID).Str("command", cmd.CommandPath()).Logger()

	cred, err := auth.NewToken(cfg.TenantID)
	if err != nil {
		return nil, fmt.Errorf("could not get Azure credential: %w", err)
	}

	env := auth.GetEnvironment()
	logger.Debug().Str("environment", env.Name).Msg("using Azure environment")

	client, err := newClient(cred, env, cfg)
	if err != nil {
		return nil, fmt.Errorf("could not create Azure client: %w", err)
	}

	subs, err := client.ListSubscriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list subscriptions: %w", err)
	}

	logger.Info().Int("subscriptions", len(subs)).Msg("listed visible subscriptions")

	return &Session{
		Config:        cfg,
		RunID:         runID,
		Logger:        logger,
		Client:        client,
		Subscriptions: subs,
	}, nil
}

func newClient(cred azcore.TokenCredential, env auth.Environment, cfg *config.Config) (*azure.Client, error) {
	return azure.NewClient(cred, &azure.Options{
		ZonesResourceGroup: cfg.DNSLinks.ZonesResourceGroup,
		GraphEndpoint:      env.GraphEndpoint,
		ClientOptions: &arm.ClientOptions{
			ClientOptions: policy.ClientOptions{
				Cloud: env.Cloud,
			},
		},
	})
}

// Context returns the command context bounded by the configured timeout.
func Context(cmd *cobra.Command, cfg *config.Config) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if cfg.Timeout > 0 {
		return context.WithTimeout(ctx, cfg.Timeout)
	}

	return context.WithCancel(ctx)
}

// Fatal prints the error in the cobra error format and exits with status 1.
func Fatal(cmd *cobra.Command, msg string, err error) {
	cmd.PrintErrf("%s %s: %v\n", cmd.ErrPrefix(), msg, err)
	exit(1)
}

// exit is replaced in tests.
var exit = os.Exit
