// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package reconcile

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/Azure/azgov"
)

// Request describes the input of a reconciliation pass.
type Request struct {
	// HubSubscriptionID is the subscription that hosts the private DNS zones.
	HubSubscriptionID string
	// Subscriptions, if not nil, is used instead of listing the subscriptions again.
	Subscriptions []azgov.Subscription
	// Scope is applied to subscriptions, zones and virtual networks.
	Scope *azgov.Scope
}

// Result is the outcome of a pass.
type Result struct {
	Subscriptions []azgov.Subscription // Subscriptions that survived the scope
	Zones         []string             // Zones that survived the scope
	Desired       *Desired
	Plan          *Plan
	Log           *ActionLog
	Summary       Summary
}

// Run performs one full reconciliation pass: discovery, decision, execution.
// Errors are returned only for setup failures (subscriptions or zones cannot be listed,
// or the pass was cancelled before any action ran); everything after that is recorded
// in the result.
func Run(ctx context.Context, dir azgov.Directory, req *Request, opts *Options) (*Result, error) {
	if req == nil || req.HubSubscriptionID == "" {
		return nil, errors.New("reconcile: hub subscription not set")
	}

	opts = optionsOrDefault(opts)
	scope := req.Scope
	if scope == nil {
		scope = azgov.NewScope(nil)
	}

	subs := req.Subscriptions
	if subs == nil {
		var err error
		if subs, err = dir.ListSubscriptions(ctx); err != nil {
			return nil, fmt.Errorf("reconcile: could not list subscriptions: %w", err)
		}
	}

	res := new(Result)
	res.Subscriptions = scope.Subscriptions(subs)

	var discovered []azgov.PrivateZone
	if !scope.HasZoneAllowList() {
		var err error
		if discovered, err = dir.ListPrivateZones(ctx, req.HubSubscriptionID); err != nil {
			return nil, fmt.Errorf("reconcile: could not list private zones in hub subscription %s: %w", req.HubSubscriptionID, err)
		}
	}

	res.Zones = scope.Zones(discovered)
	opts.Logger.Info().
		Int("subscriptions", len(res.Subscriptions)).
		Int("zones", len(res.Zones)).
		Msg("scope resolved")

	res.Desired = BuildDesired(ctx, dir, subs, scope, res.Zones, opts)
	opts.Logger.Info().Int("links", len(res.Desired.Links)).Msg("desired set built")

	res.Plan = NewReconciler(dir, opts).Reconcile(ctx, res.Desired)
	res.Plan.Failures = slices.Concat(res.Desired.Failures, res.Plan.Failures)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("reconcile: cancelled before execution: %w", err)
	}

	res.Log = NewExecutor(dir, opts).Execute(ctx, res.Plan)
	res.Summary = Summarize(res.Plan, res.Log)
	opts.Logger.Info().
		Int("create", res.Summary.Decisions[DecisionCreate]).
		Int("replace", res.Summary.Decisions[DecisionReplace]).
		Int("noop", res.Summary.Decisions[DecisionNoop]).
		Int("applied", res.Summary.Outcomes[OutcomeApplied]).
		Int("failed", res.Summary.Outcomes[OutcomeFailed]).
		Int("skipped", res.Summary.Outcomes[OutcomeSkipped]+res.Summary.Outcomes[OutcomeSkippedDryRun]).
		Int("discovery_failures", res.Summary.DiscoveryFailures).
		Msg("reconciliation complete")

	return res, nil
}
