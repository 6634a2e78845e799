// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package rolepurge removes role assignments whose principal no longer exists in the directory.
package rolepurge

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Azure/azgov"
	sets "github.com/deckarep/golang-set/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	defaultParallelism = 10
	// foreignGroup is the principal type of assignments delegated from another tenant.
	foreignGroup = "ForeignGroup"
)

// Store lists and deletes role assignments.
type Store interface {
	ListRoleAssignments(ctx context.Context, subscriptionID string) ([]azgov.RoleAssignment, error)
	DeleteRoleAssignment(ctx context.Context, assignment azgov.RoleAssignment) error
}

// PrincipalResolver returns the subset of the supplied principal IDs that exist.
type PrincipalResolver interface {
	ExistingPrincipals(ctx context.Context, ids []string) (map[string]bool, error)
}

// Outcome is the result of handling an unknown assignment.
type Outcome string

const (
	OutcomeDeleted       Outcome = "deleted"
	OutcomeFailed        Outcome = "failed"
	OutcomeSkippedDryRun Outcome = "skipped-dry-run"
	OutcomeSkipped       Outcome = "skipped"
)

// Options configures a purge.
type Options struct {
	DryRun            bool
	Parallelism       int
	MaxRetries        int
	RetryInitialDelay time.Duration
	Logger            zerolog.Logger
}

// Row is one line of the purge log.
type Row struct {
	Subscription     string  `json:"subscription"`
	AssignmentID     string  `json:"assignmentId"`
	PrincipalID      string  `json:"principalId"`
	RoleDefinitionID string  `json:"roleDefinitionId"`
	Scope            string  `json:"scope"`
	Outcome          Outcome `json:"outcome"`
	Error            string  `json:"error,omitempty"`
}

// Failure records a subscription whose assignments could not be listed.
type Failure struct {
	Subscription azgov.Subscription
	Err          error
}

// Error implements the error interface.
func (f Failure) Error() string {
	return fmt.Sprintf("could not list role assignments of subscription %s: %v", f.Subscription.Name, f.Err)
}

// Result is the outcome of a purge.
type Result struct {
	Rows     []Row
	Failures []Failure
	Scanned  int // Scanned is the number of assignments inspected
}

// Count returns the number of rows with the supplied outcome.
func (r *Result) Count(o Outcome) int {
	n := 0
	for _, row := range r.Rows {
		if row.Outcome == o {
			n++
		}
	}

	return n
}

// Purge finds the role assignments of the subscriptions whose principal is unknown and,
// unless opts.DryRun is set, deletes them. A failed deletion is recorded and the purge continues.
// An error is returned only if the principals cannot be resolved.
func Purge(ctx context.Context, store Store, resolver PrincipalResolver, subs []azgov.Subscription, opts *Options) (*Result, error) {
	if opts == nil {
		opts = new(Options)
	}

	parallelism := opts.Parallelism
	if parallelism < 1 {
		parallelism = defaultParallelism
	}

	listed := make([][]azgov.RoleAssignment, len(subs))
	errs := make([]error, len(subs))

	grp := new(errgroup.Group)
	grp.SetLimit(parallelism)
	for i, s := range subs {
		grp.Go(func() error {
			listed[i], errs[i] = store.ListRoleAssignments(ctx, s.ID)
			return nil
		})
	}

	_ = grp.Wait()

	res := new(Result)
	names := make(map[string]string, len(subs))
	principals := sets.NewThreadUnsafeSet[string]()

	var candidates []azgov.RoleAssignment
	for i, s := range subs {
		names[s.ID] = s.Name
		if errs[i] != nil {
			opts.Logger.Warn().Err(errs[i]).Str("subscription", s.Name).Msg("could not list role assignments, skipping subscription")
			res.Failures = append(res.Failures, Failure{Subscription: s, Err: errs[i]})

			continue
		}

		for _, ra := range listed[i] {
			res.Scanned++
			if ra.PrincipalID == "" || ra.PrincipalType == foreignGroup {
				continue
			}

			principals.Add(ra.PrincipalID)
			candidates = append(candidates, ra)
		}
	}

	ids := principals.ToSlice()
	sort.Strings(ids)

	existing, err := resolver.ExistingPrincipals(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("rolepurge.Purge: resolving principals: %w", err)
	}

	var unknown []azgov.RoleAssignment
	for _, ra := range candidates {
		if !existing[ra.PrincipalID] {
			unknown = append(unknown, ra)
		}
	}

	sort.SliceStable(unknown, func(i, j int) bool { return unknown[i].ID < unknown[j].ID })

	res.Rows = make([]Row, len(unknown))

	grp = new(errgroup.Group)
	grp.SetLimit(parallelism)
	for i, ra := range unknown {
		grp.Go(func() error {
			row := Row{
				Subscription:     names[ra.SubscriptionID],
				AssignmentID:     ra.ID,
				PrincipalID:      ra.PrincipalID,
				RoleDefinitionID: ra.RoleDefinitionID,
				Scope:            ra.Scope,
			}

			var err error
			switch {
			case opts.DryRun:
				row.Outcome = OutcomeSkippedDryRun
			case ctx.Err() != nil:
				row.Outcome, err = OutcomeSkipped, fmt.Errorf("run cancelled: %w", context.Cause(ctx))
			default:
				row.Outcome = OutcomeDeleted
				if err = deleteWithRetry(ctx, store, ra, opts); err != nil {
					row.Outcome = OutcomeFailed
				}
			}

			if err != nil {
				row.Error = err.Error()
			}

			l := opts.Logger.With().
				Str("assignment", ra.ID).
				Str("principal", ra.PrincipalID).
				Str("outcome", string(row.Outcome)).
				Logger()
			if row.Outcome == OutcomeFailed {
				l.Error().Err(err).Msg("unknown principal role assignment")
			} else {
				l.Info().Msg("unknown principal role assignment")
			}

			res.Rows[i] = row

			return nil
		})
	}

	_ = grp.Wait()

	return res, nil
}

// deleteWithRetry deletes the assignment, retrying throttled calls.
// An assignment that is already gone counts as deleted.
func deleteWithRetry(ctx context.Context, store Store, ra azgov.RoleAssignment, opts *Options) error {
	policy := azgov.RetryPolicy{
		MaxRetries:   opts.MaxRetries,
		InitialDelay: opts.RetryInitialDelay,
	}

	return azgov.RetryThrottled(ctx, policy, func(callCtx context.Context) error {
		if err := store.DeleteRoleAssignment(callCtx, ra); err != nil && !errors.Is(err, azgov.ErrNotFound) {
			return err
		}

		return nil
	})
}
