// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package reconcile

import (
	"context"
	"strings"

	"github.com/Azure/azgov"
	sets "github.com/deckarep/golang-set/v2"
	"golang.org/x/sync/errgroup"
)

// Desired is the desired link set of a pass, in subscription, virtual network, zone order.
type Desired struct {
	Links    []azgov.ZoneLink
	Failures []DiscoveryFailure
	// Excluded holds the lowercased IDs of the discovered networks the scope excluded.
	Excluded sets.Set[string]
	// Skipped holds the lowercased IDs of the subscriptions whose networks were not discovered,
	// either because the scope excluded them or because listing failed.
	Skipped sets.Set[string]
}

// protects returns true if the link targets a network the pass must leave alone:
// an excluded network, or any network of a skipped subscription.
func (d *Desired) protects(l azgov.Link) bool {
	if d == nil {
		return false
	}

	if d.Excluded != nil && d.Excluded.Contains(strings.ToLower(l.TargetNetworkID)) {
		return true
	}

	sub := l.TargetSubscriptionID()

	return sub != "" && d.Skipped != nil && d.Skipped.Contains(strings.ToLower(sub))
}

// BuildDesired applies the scope to the subscriptions, lists the virtual networks of every
// remaining subscription through the directory, applies the scope to them and returns the
// cross product with the supplied zones.
//
// Listing runs on a bounded worker pool; the result order follows the order of subs,
// then the order the directory returned the networks in, then the order of zones.
// A subscription whose networks cannot be listed is recorded as a failure and contributes nothing.
func BuildDesired(
	ctx context.Context,
	dir azgov.Directory,
	subs []azgov.Subscription,
	scope *azgov.Scope,
	zones []string,
	opts *Options,
) *Desired {
	opts = optionsOrDefault(opts)
	if scope == nil {
		scope = azgov.NewScope(nil)
	}

	res := &Desired{
		Excluded: sets.NewThreadUnsafeSet[string](),
		Skipped:  sets.NewThreadUnsafeSet[string](),
	}

	inScope := scope.Subscriptions(subs)
	kept := sets.NewThreadUnsafeSet[string]()
	for _, sub := range inScope {
		kept.Add(sub.ID)
	}

	for _, sub := range subs {
		if !kept.Contains(sub.ID) {
			res.Skipped.Add(strings.ToLower(sub.ID))
		}
	}

	networks := make([][]azgov.VirtualNetwork, len(inScope))
	errs := make([]error, len(inScope))

	grp := new(errgroup.Group)
	grp.SetLimit(opts.parallelism())

	// no zones means no desired links, skip discovery altogether.
	if len(zones) != 0 {
		for i, sub := range inScope {
			grp.Go(func() error {
				nets, err := dir.ListVirtualNetworks(ctx, sub.ID)
				if err != nil {
					errs[i] = err
					return nil
				}

				networks[i] = nets

				return nil
			})
		}
	}

	_ = grp.Wait()

	for i, sub := range inScope {
		if errs[i] != nil {
			f := DiscoveryFailure{Scope: "subscription", Name: sub.Name, Err: errs[i]}
			opts.Logger.Warn().Err(errs[i]).Str("subscription", sub.Name).Msg("could not list virtual networks, skipping subscription")
			res.Failures = append(res.Failures, f)
			res.Skipped.Add(strings.ToLower(sub.ID))

			continue
		}

		included := scope.VirtualNetworks(networks[i])
		ids := sets.NewThreadUnsafeSet[string]()
		for _, n := range included {
			ids.Add(n.ID)
		}

		for _, n := range networks[i] {
			if !ids.Contains(n.ID) {
				res.Excluded.Add(strings.ToLower(n.ID))
			}
		}

		for _, n := range included {
			if n.SubscriptionID == "" {
				n.SubscriptionID = sub.ID
			}

			for _, z := range zones {
				res.Links = append(res.Links, azgov.ZoneLink{Zone: z, Network: n})
			}
		}
	}

	return res
}
