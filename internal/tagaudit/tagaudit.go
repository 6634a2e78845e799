// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package tagaudit reports resource groups and resources that miss required tags.
package tagaudit

import (
	"context"
	"fmt"
	"sort"

	"github.com/Azure/azgov"
	sets "github.com/deckarep/golang-set/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const defaultParallelism = 10

// Inventory lists the objects of a subscription with their tags.
type Inventory interface {
	ListResourceGroups(ctx context.Context, subscriptionID string) ([]azgov.TaggedResource, error)
	ListResources(ctx context.Context, subscriptionID string) ([]azgov.TaggedResource, error)
}

// Options configures an audit.
type Options struct {
	// RequiredTags are the tag names every object must carry. Names are matched exactly.
	RequiredTags []string
	// ResourceGroupsOnly limits the audit to resource groups.
	ResourceGroupsOnly bool
	Parallelism        int
	Logger             zerolog.Logger
}

// Finding is an object that misses one or more required tags.
type Finding struct {
	Subscription  string   `json:"subscription"`
	ResourceGroup string   `json:"resourceGroup"`
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	ID            string   `json:"id"`
	MissingTags   []string `json:"missingTags"`
}

// Failure records a subscription that could not be audited.
type Failure struct {
	Subscription azgov.Subscription
	Err          error
}

// Error implements the error interface.
func (f Failure) Error() string {
	return fmt.Sprintf("could not audit subscription %s: %v", f.Subscription.Name, f.Err)
}

// Result is the outcome of an audit.
type Result struct {
	Findings []Finding
	Failures []Failure
	Audited  int // Audited is the number of objects inspected
}

// Audit inspects the subscriptions concurrently and returns the findings sorted by
// subscription name, resource group and name.
// A subscription that cannot be listed is recorded as a failure and the audit continues.
func Audit(ctx context.Context, inv Inventory, subs []azgov.Subscription, opts *Options) *Result {
	if opts == nil {
		opts = new(Options)
	}

	required := sets.NewThreadUnsafeSet(opts.RequiredTags...)
	objects := make([][]azgov.TaggedResource, len(subs))
	errs := make([]error, len(subs))

	parallelism := opts.Parallelism
	if parallelism < 1 {
		parallelism = defaultParallelism
	}

	grp := new(errgroup.Group)
	grp.SetLimit(parallelism)
	for i, s := range subs {
		grp.Go(func() error {
			objects[i], errs[i] = list(ctx, inv, s.ID, opts.ResourceGroupsOnly)
			return nil
		})
	}

	_ = grp.Wait()

	res := new(Result)
	for i, s := range subs {
		if errs[i] != nil {
			opts.Logger.Warn().Err(errs[i]).Str("subscription", s.Name).Msg("could not list objects, skipping subscription")
			res.Failures = append(res.Failures, Failure{Subscription: s, Err: errs[i]})

			continue
		}

		for _, o := range objects[i] {
			res.Audited++

			missing := missingTags(required, o.Tags)
			if len(missing) == 0 {
				continue
			}

			res.Findings = append(res.Findings, Finding{
				Subscription:  s.Name,
				ResourceGroup: o.ResourceGroup,
				Name:          o.Name,
				Type:          o.Type,
				ID:            o.ID,
				MissingTags:   missing,
			})
		}
	}

	sort.SliceStable(res.Findings, func(i, j int) bool {
		a, b := res.Findings[i], res.Findings[j]
		if a.Subscription != b.Subscription {
			return a.Subscription < b.Subscription
		}

		if a.ResourceGroup != b.ResourceGroup {
			return a.ResourceGroup < b.ResourceGroup
		}

		if a.Name != b.Name {
			return a.Name < b.Name
		}

		return a.ID < b.ID
	})

	opts.Logger.Info().
		Int("audited", res.Audited).
		Int("findings", len(res.Findings)).
		Int("failures", len(res.Failures)).
		Msg("tag audit complete")

	return res
}

func list(ctx context.Context, inv Inventory, subscriptionID string, groupsOnly bool) ([]azgov.TaggedResource, error) {
	res, err := inv.ListResourceGroups(ctx, subscriptionID)
	if err != nil || groupsOnly {
		return res, err
	}

	resources, err := inv.ListResources(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	return append(res, resources...), nil
}

// missingTags returns the sorted required tag names absent from tags.
func missingTags(required sets.Set[string], tags map[string]string) []string {
	present := sets.NewThreadUnsafeSetWithSize[string](len(tags))
	for k := range tags {
		present.Add(k)
	}

	missing := required.Difference(present).ToSlice()
	sort.Strings(missing)

	return missing
}
