// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package azgov

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScopeSubscriptions(t *testing.T) {
	t.Parallel()

	subs := []Subscription{
		{ID: "00000000-0000-0000-0000-000000000001", Name: "Hub"},
		{ID: "00000000-0000-0000-0000-000000000002", Name: "Spoke1"},
		{ID: "00000000-0000-0000-0000-000000000003", Name: "Sandbox"},
	}

	s := NewScope(&ScopeOptions{
		ExcludeSubscriptions: []string{"Sandbox", "00000000-0000-0000-0000-000000000001"},
	})
	assert.Equal(t, []Subscription{subs[1]}, s.Subscriptions(subs))

	// names are opaque tokens, case is not normalised.
	s = NewScope(&ScopeOptions{ExcludeSubscriptions: []string{"sandbox"}})
	assert.Len(t, s.Subscriptions(subs), 3)
}

func TestScopeNilOptions(t *testing.T) {
	t.Parallel()

	s := NewScope(nil)
	assert.False(t, s.HasZoneAllowList())
	assert.Equal(t, []string{"a", "b"}, s.Zones([]PrivateZone{{Name: "a"}, {Name: "b"}}))
	assert.Len(t, s.VirtualNetworks([]VirtualNetwork{{ID: "x", Name: "x"}}), 1)
}

func TestScopeZonesExclusion(t *testing.T) {
	t.Parallel()

	s := NewScope(&ScopeOptions{ExcludeZones: []string{"privatelink.queue.core"}})
	zones := []PrivateZone{
		{Name: "privatelink.blob.core"},
		{Name: "privatelink.queue.core"},
		{Name: "privatelink.blob.core"},
	}
	assert.Equal(t, []string{"privatelink.blob.core"}, s.Zones(zones))
}

func TestScopeZonesExclusionOnlyZone(t *testing.T) {
	t.Parallel()

	s := NewScope(&ScopeOptions{ExcludeZones: []string{"privatelink.blob.core"}})
	assert.Empty(t, s.Zones([]PrivateZone{{Name: "privatelink.blob.core"}}))
}

func TestScopeZonesAllowListPrecedence(t *testing.T) {
	t.Parallel()

	s := NewScope(&ScopeOptions{
		Zones:        []string{"privatelink.file.core", "privatelink.blob.core", "privatelink.file.core", ""},
		ExcludeZones: []string{"privatelink.blob.core"},
	})
	assert.True(t, s.HasZoneAllowList())

	discovered := []PrivateZone{{Name: "privatelink.vault.azure"}}
	assert.Equal(t, []string{"privatelink.file.core", "privatelink.blob.core"}, s.Zones(discovered))

	// the returned slice is a copy.
	got := s.Zones(nil)
	got[0] = "changed"
	assert.Equal(t, "privatelink.file.core", s.Zones(nil)[0])
}

func TestScopeVirtualNetworks(t *testing.T) {
	t.Parallel()

	nets := []VirtualNetwork{
		{ID: "/subscriptions/s1/resourceGroups/rg/providers/Microsoft.Network/virtualNetworks/vnet-spoke1", Name: "vnet-spoke1"},
		{ID: "/subscriptions/s1/resourceGroups/rg/providers/Microsoft.Network/virtualNetworks/vnet-excluded", Name: "vnet-excluded"},
		{ID: "/subscriptions/s2/resourceGroups/rg/providers/Microsoft.Network/virtualNetworks/vnet-byid", Name: "vnet-byid"},
	}

	s := NewScope(&ScopeOptions{
		ExcludeNetworks: []string{"vnet-excluded", nets[2].ID},
	})
	assert.Equal(t, []VirtualNetwork{nets[0]}, s.VirtualNetworks(nets))
}
