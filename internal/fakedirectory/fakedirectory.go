// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package fakedirectory provides an in-memory azgov.Directory for tests.
package fakedirectory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/Azure/azgov"
)

var _ azgov.Directory = (*Directory)(nil)

// Call records a mutating call made against the fake.
type Call struct {
	Op        string // Op is "create" or "delete"
	Zone      string
	NetworkID string
	LinkName  string
}

// Directory is an in-memory azgov.Directory.
// The exported error maps can be set before use to inject failures.
type Directory struct {
	Subscriptions []azgov.Subscription
	Networks      map[string][]azgov.VirtualNetwork // Networks is keyed by subscription ID
	Zones         map[string][]azgov.PrivateZone    // Zones is keyed by subscription ID

	ListSubscriptionsErr error
	ListNetworksErr      map[string]error // ListNetworksErr is keyed by subscription ID
	ListZonesErr         map[string]error // ListZonesErr is keyed by subscription ID
	ListLinksErr         map[string]error // ListLinksErr is keyed by zone name
	CreateErr            map[string]error // CreateErr is keyed by link name
	DeleteErr            map[string]error // DeleteErr is keyed by link ID
	// ThrottleCreates is the number of times CreateZoneLink answers azgov.ErrThrottled
	// before succeeding, keyed by link name.
	ThrottleCreates map[string]int

	mu    sync.Mutex
	links map[string][]azgov.Link
	calls []Call
}

// New returns an empty fake directory.
func New() *Directory {
	return &Directory{
		Networks:        make(map[string][]azgov.VirtualNetwork),
		Zones:           make(map[string][]azgov.PrivateZone),
		ListNetworksErr: make(map[string]error),
		ListZonesErr:    make(map[string]error),
		ListLinksErr:    make(map[string]error),
		CreateErr:       make(map[string]error),
		DeleteErr:       make(map[string]error),
		ThrottleCreates: make(map[string]int),
		links:           make(map[string][]azgov.Link),
	}
}

// AddLink seeds an existing link and returns it.
func (d *Directory) AddLink(zone, name, targetNetworkID string) azgov.Link {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.addLinkLocked(zone, name, targetNetworkID)
}

func (d *Directory) addLinkLocked(zone, name, targetNetworkID string) azgov.Link {
	l := azgov.Link{
		ID:              fmt.Sprintf("%s/virtualNetworkLinks/%s", zone, name),
		Name:            name,
		Zone:            zone,
		TargetNetworkID: targetNetworkID,
	}
	d.links[zone] = append(d.links[zone], l)

	return l
}

// Links returns a copy of the links of the zone, sorted by name.
func (d *Directory) Links(zone string) []azgov.Link {
	d.mu.Lock()
	defer d.mu.Unlock()

	res := slices.Clone(d.links[zone])
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })

	return res
}

// Calls returns the mutating calls in the order they were made.
func (d *Directory) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()

	return slices.Clone(d.calls)
}

// ListSubscriptions implements azgov.Directory.
func (d *Directory) ListSubscriptions(_ context.Context) ([]azgov.Subscription, error) {
	if d.ListSubscriptionsErr != nil {
		return nil, d.ListSubscriptionsErr
	}

	return slices.Clone(d.Subscriptions), nil
}

// ListVirtualNetworks implements azgov.Directory.
func (d *Directory) ListVirtualNetworks(_ context.Context, subscriptionID string) ([]azgov.VirtualNetwork, error) {
	if err := d.ListNetworksErr[subscriptionID]; err != nil {
		return nil, err
	}

	return slices.Clone(d.Networks[subscriptionID]), nil
}

// ListPrivateZones implements azgov.Directory.
func (d *Directory) ListPrivateZones(_ context.Context, subscriptionID string) ([]azgov.PrivateZone, error) {
	if err := d.ListZonesErr[subscriptionID]; err != nil {
		return nil, err
	}

	return slices.Clone(d.Zones[subscriptionID]), nil
}

// ListZoneLinks implements azgov.Directory.
func (d *Directory) ListZoneLinks(_ context.Context, zoneName string) ([]azgov.Link, error) {
	if err := d.ListLinksErr[zoneName]; err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	return slices.Clone(d.links[zoneName]), nil
}

// CreateZoneLink implements azgov.Directory.
// Creating a link with the name of an existing link fails with azgov.ErrConflict.
func (d *Directory) CreateZoneLink(_ context.Context, zoneName, networkID, linkName string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls = append(d.calls, Call{Op: "create", Zone: zoneName, NetworkID: networkID, LinkName: linkName})

	if n := d.ThrottleCreates[linkName]; n > 0 {
		d.ThrottleCreates[linkName] = n - 1
		return "", fmt.Errorf("create %s: %w", linkName, azgov.ErrThrottled)
	}

	if err := d.CreateErr[linkName]; err != nil {
		return "", err
	}

	for _, l := range d.links[zoneName] {
		if l.Name == linkName {
			return "", fmt.Errorf("link %s in zone %s: %w", linkName, zoneName, azgov.ErrConflict)
		}
	}

	return d.addLinkLocked(zoneName, linkName, networkID).ID, nil
}

// DeleteZoneLink implements azgov.Directory.
func (d *Directory) DeleteZoneLink(_ context.Context, link azgov.Link) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls = append(d.calls, Call{Op: "delete", Zone: link.Zone, NetworkID: link.TargetNetworkID, LinkName: link.Name})

	if err := d.DeleteErr[link.ID]; err != nil {
		return err
	}

	links := d.links[link.Zone]
	for i, l := range links {
		if l.ID == link.ID {
			d.links[link.Zone] = slices.Delete(links, i, i+1)
			return nil
		}
	}

	return fmt.Errorf("link %s: %w", link.ID, azgov.ErrNotFound)
}
