// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package azgov

import (
	sets "github.com/deckarep/golang-set/v2"
)

// Scope holds the inclusion and exclusion lists applied to discovered objects
// before they enter reconciliation.
// Names are compared as opaque tokens, no case normalisation is applied.
// Create with NewScope.
type Scope struct {
	excludedSubscriptions sets.Set[string]
	excludedZones         sets.Set[string]
	excludedNetworks      sets.Set[string]
	zoneAllowList         []string
}

// ScopeOptions are the lists used to build a Scope.
type ScopeOptions struct {
	ExcludeSubscriptions []string // ExcludeSubscriptions matches subscription display names or IDs
	ExcludeZones         []string // ExcludeZones matches private zone names
	ExcludeNetworks      []string // ExcludeNetworks matches virtual network names or resource IDs
	Zones                []string // Zones, if set, replaces zone discovery entirely
}

// NewScope returns a Scope built from the supplied options. A nil options value
// results in a Scope that lets everything through.
func NewScope(opts *ScopeOptions) *Scope {
	if opts == nil {
		opts = new(ScopeOptions)
	}

	s := &Scope{
		excludedSubscriptions: sets.NewThreadUnsafeSet(opts.ExcludeSubscriptions...),
		excludedZones:         sets.NewThreadUnsafeSet(opts.ExcludeZones...),
		excludedNetworks:      sets.NewThreadUnsafeSet(opts.ExcludeNetworks...),
	}

	// keep first occurrence order, drop duplicates.
	seen := sets.NewThreadUnsafeSet[string]()
	for _, z := range opts.Zones {
		if z == "" || !seen.Add(z) {
			continue
		}

		s.zoneAllowList = append(s.zoneAllowList, z)
	}

	return s
}

// HasZoneAllowList returns true if an explicit zone list was supplied.
// In that case zone discovery is not needed.
func (s *Scope) HasZoneAllowList() bool {
	return len(s.zoneAllowList) > 0
}

// Subscriptions returns the subscriptions that are not excluded, in input order.
func (s *Scope) Subscriptions(in []Subscription) []Subscription {
	res := make([]Subscription, 0, len(in))
	for _, sub := range in {
		if s.excludedSubscriptions.Contains(sub.Name) || s.excludedSubscriptions.Contains(sub.ID) {
			continue
		}

		res = append(res, sub)
	}

	return res
}

// Zones returns the zone names that take part in reconciliation.
// If an allow-list was supplied it is returned as-is and the discovered zones are ignored;
// the allow-list is not subject to the zone exclusion list.
func (s *Scope) Zones(discovered []PrivateZone) []string {
	if s.HasZoneAllowList() {
		res := make([]string, len(s.zoneAllowList))
		copy(res, s.zoneAllowList)

		return res
	}

	res := make([]string, 0, len(discovered))
	seen := sets.NewThreadUnsafeSet[string]()
	for _, z := range discovered {
		if s.excludedZones.Contains(z.Name) || !seen.Add(z.Name) {
			continue
		}

		res = append(res, z.Name)
	}

	return res
}

// VirtualNetworks returns the virtual networks that are not excluded, in input order.
func (s *Scope) VirtualNetworks(in []VirtualNetwork) []VirtualNetwork {
	res := make([]VirtualNetwork, 0, len(in))
	for _, n := range in {
		if s.excludedNetworks.Contains(n.Name) || s.excludedNetworks.Contains(n.ID) {
			continue
		}

		res = append(res, n)
	}

	return res
}
