// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package reconcile

import (
	"context"
	"sort"
	"strings"

	"github.com/Azure/azgov"
	sets "github.com/deckarep/golang-set/v2"
	"golang.org/x/sync/errgroup"
)

// Reconciler classifies desired links against the links observed in the directory.
// It never mutates the directory.
type Reconciler struct {
	dir  azgov.Directory
	opts *Options
}

// NewReconciler returns a Reconciler that reads from dir. A nil opts uses DefaultOptions.
func NewReconciler(dir azgov.Directory, opts *Options) *Reconciler {
	return &Reconciler{
		dir:  dir,
		opts: optionsOrDefault(opts),
	}
}

// Reconcile returns one decision per desired link, in the order of desired.Links.
// The links of every zone are listed once, concurrently on the bounded pool, before
// any decision is made. If the links of a zone cannot be listed, its desired links
// get no decision and the zone is recorded as a discovery failure.
// Links that desired protects are never treated as stale.
func (r *Reconciler) Reconcile(ctx context.Context, desired *Desired) *Plan {
	if desired == nil {
		desired = new(Desired)
	}

	zones := make([]string, 0)
	desiredIDs := make(map[string]sets.Set[string])
	for _, zl := range desired.Links {
		if _, ok := desiredIDs[zl.Zone]; !ok {
			desiredIDs[zl.Zone] = sets.NewThreadUnsafeSet[string]()
			zones = append(zones, zl.Zone)
		}

		desiredIDs[zl.Zone].Add(zl.Network.ID)
	}

	observed := make([][]azgov.Link, len(zones))
	errs := make([]error, len(zones))

	grp := new(errgroup.Group)
	grp.SetLimit(r.opts.parallelism())
	for i, z := range zones {
		grp.Go(func() error {
			links, err := r.dir.ListZoneLinks(ctx, z)
			if err != nil {
				errs[i] = err
				return nil
			}

			// candidates for a stale match are considered in name order.
			sort.SliceStable(links, func(a, b int) bool { return links[a].Name < links[b].Name })
			observed[i] = links

			return nil
		})
	}

	_ = grp.Wait()

	plan := new(Plan)
	linksByZone := make(map[string][]azgov.Link, len(zones))
	for i, z := range zones {
		if errs[i] != nil {
			r.opts.Logger.Warn().Err(errs[i]).Str("zone", z).Msg("could not list zone links, skipping zone")
			plan.Failures = append(plan.Failures, DiscoveryFailure{Scope: "zone", Name: z, Err: errs[i]})

			continue
		}

		linksByZone[z] = observed[i]
	}

	claimed := sets.NewThreadUnsafeSet[string]()
	for _, zl := range desired.Links {
		links, ok := linksByZone[zl.Zone]
		if !ok {
			continue
		}

		claimable := func(l azgov.Link) bool {
			return !claimed.Contains(l.ID) && !desiredIDs[zl.Zone].Contains(l.TargetNetworkID) && !desired.protects(l)
		}
		dec := classify(zl, links, claimable)
		if dec.Kind == DecisionReplace {
			claimed.Add(dec.Existing.ID)
		}

		plan.Decisions = append(plan.Decisions, dec)
	}

	return plan
}

// classify applies the decision table to a single desired link.
// A link is stale for the network if it carries the name the network's link would get, or
// if it targets a network of the same name in the same subscription. Only links accepted
// by claimable are considered, and the first match is taken.
func classify(zl azgov.ZoneLink, links []azgov.Link, claimable func(azgov.Link) bool) Decision {
	for i := range links {
		if links[i].TargetNetworkID == zl.Network.ID {
			l := links[i]
			return Decision{Kind: DecisionNoop, Link: zl, Existing: &l}
		}
	}

	name := azgov.LinkName(zl.Network)
	for i := range links {
		l := links[i]
		if !claimable(l) {
			continue
		}

		sameNetwork := l.TargetNetworkName() == zl.Network.Name &&
			strings.EqualFold(l.TargetSubscriptionID(), zl.Network.SubscriptionID)
		if l.Name == name || sameNetwork {
			return Decision{Kind: DecisionReplace, Link: zl, Existing: &l}
		}
	}

	return Decision{Kind: DecisionCreate, Link: zl}
}
