// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package reconcile

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Azure/azgov"
	"github.com/Azure/azgov/internal/fakedirectory"
	sets "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileZoneWithoutLinks(t *testing.T) {
	t.Parallel()

	d := fakedirectory.New()
	desired := []azgov.ZoneLink{
		{Zone: blobZone, Network: vnet(spoke1ID, "a")},
		{Zone: blobZone, Network: vnet(spoke1ID, "b")},
	}

	plan := NewReconciler(d, testOptions()).Reconcile(context.Background(), &Desired{Links: desired})
	require.Len(t, plan.Decisions, 2)
	for i, dec := range plan.Decisions {
		assert.Equal(t, DecisionCreate, dec.Kind)
		assert.Equal(t, desired[i], dec.Link)
		assert.Nil(t, dec.Existing)
	}
	assert.Empty(t, d.Calls(), "reconciler must not mutate")
}

func TestReconcileExactTargetIsNoop(t *testing.T) {
	t.Parallel()

	d := fakedirectory.New()
	n := vnet(spoke1ID, "vnet-spoke1")
	existing := d.AddLink(blobZone, "some-other-name", n.ID)

	plan := NewReconciler(d, nil).Reconcile(context.Background(), &Desired{Links: []azgov.ZoneLink{{Zone: blobZone, Network: n}}})
	require.Len(t, plan.Decisions, 1)
	assert.Equal(t, DecisionNoop, plan.Decisions[0].Kind)
	assert.Equal(t, &existing, plan.Decisions[0].Existing)
	assert.Empty(t, plan.Actions())
}

func TestReconcileStaleLinkByName(t *testing.T) {
	t.Parallel()

	d := fakedirectory.New()
	n := azgov.VirtualNetwork{ID: "vnet-new", Name: "vnet-spoke1", SubscriptionID: spoke1ID}
	stale := d.AddLink(blobZone, azgov.LinkName(n), "vnet-old")

	plan := NewReconciler(d, nil).Reconcile(context.Background(), &Desired{Links: []azgov.ZoneLink{{Zone: blobZone, Network: n}}})
	require.Len(t, plan.Decisions, 1)
	assert.Equal(t, DecisionReplace, plan.Decisions[0].Kind)
	assert.Equal(t, &stale, plan.Decisions[0].Existing)

	actions := plan.Actions()
	require.Len(t, actions, 2)
	assert.Equal(t, OperationDelete, actions[0].Operation)
	assert.Equal(t, "vnet-old", actions[0].Target.TargetNetworkID)
	assert.Equal(t, OperationCreate, actions[1].Operation)
	assert.Equal(t, "vnet-new", actions[1].Decision.Link.Network.ID)
	assert.Equal(t, 0, actions[0].Seq)
	assert.Equal(t, 1, actions[1].Seq)
}

func TestReconcileStaleLinkByTargetName(t *testing.T) {
	t.Parallel()

	d := fakedirectory.New()
	n := vnet(spoke1ID, "vnet-spoke1")
	// network recreated in another resource group, link created by hand.
	old := "/subscriptions/" + spoke1ID + "/resourceGroups/rg-old/providers/Microsoft.Network/virtualNetworks/vnet-spoke1"
	d.AddLink(blobZone, "handmade", old)

	plan := NewReconciler(d, nil).Reconcile(context.Background(), &Desired{Links: []azgov.ZoneLink{{Zone: blobZone, Network: n}}})
	require.Len(t, plan.Decisions, 1)
	assert.Equal(t, DecisionReplace, plan.Decisions[0].Kind)
	assert.Equal(t, old, plan.Decisions[0].Existing.TargetNetworkID)
}

func TestReconcileUnrelatedLinkIsIgnored(t *testing.T) {
	t.Parallel()

	d := fakedirectory.New()
	n := vnet(spoke1ID, "vnet-spoke1")
	d.AddLink(blobZone, "excluded-link", vnetID(spoke2ID, "vnet-excluded"))

	plan := NewReconciler(d, nil).Reconcile(context.Background(), &Desired{Links: []azgov.ZoneLink{{Zone: blobZone, Network: n}}})
	require.Len(t, plan.Decisions, 1)
	assert.Equal(t, DecisionCreate, plan.Decisions[0].Kind)
}

func TestReconcileLinkOfAnotherDesiredNetworkIsNotStale(t *testing.T) {
	t.Parallel()

	d := fakedirectory.New()
	a := vnet(spoke1ID, "hub-vnet")
	b := vnet(spoke2ID, "hub-vnet")
	d.AddLink(blobZone, "hub-vnet", a.ID)

	desired := []azgov.ZoneLink{{Zone: blobZone, Network: b}, {Zone: blobZone, Network: a}}
	plan := NewReconciler(d, nil).Reconcile(context.Background(), &Desired{Links: desired})
	require.Len(t, plan.Decisions, 2)
	assert.Equal(t, DecisionCreate, plan.Decisions[0].Kind)
	assert.Equal(t, DecisionNoop, plan.Decisions[1].Kind)
}

func TestReconcileStaleLinkClaimedOnce(t *testing.T) {
	t.Parallel()

	d := fakedirectory.New()
	a := vnet(spoke1ID, "vnet-shared")
	b := azgov.VirtualNetwork{
		ID:             "/subscriptions/" + spoke1ID + "/resourceGroups/rg-b/providers/Microsoft.Network/virtualNetworks/vnet-shared",
		Name:           "vnet-shared",
		SubscriptionID: spoke1ID,
	}
	d.AddLink(blobZone, "old", "/subscriptions/"+spoke1ID+"/resourceGroups/rg-old/providers/Microsoft.Network/virtualNetworks/vnet-shared")

	desired := []azgov.ZoneLink{{Zone: blobZone, Network: a}, {Zone: blobZone, Network: b}}
	plan := NewReconciler(d, nil).Reconcile(context.Background(), &Desired{Links: desired})
	require.Len(t, plan.Decisions, 2)
	assert.Equal(t, DecisionReplace, plan.Decisions[0].Kind)
	assert.Equal(t, DecisionCreate, plan.Decisions[1].Kind)
}

func TestReconcileSameNameInAnotherSubscriptionIsNotStale(t *testing.T) {
	t.Parallel()

	d := fakedirectory.New()
	n := vnet(spoke1ID, "vnet-spoke1")
	d.AddLink(blobZone, "other-sub", vnetID(spoke2ID, "vnet-spoke1"))

	plan := NewReconciler(d, nil).Reconcile(context.Background(), &Desired{Links: []azgov.ZoneLink{{Zone: blobZone, Network: n}}})
	require.Len(t, plan.Decisions, 1)
	assert.Equal(t, DecisionCreate, plan.Decisions[0].Kind)
}

func TestReconcileProtectedLinksAreNotStale(t *testing.T) {
	t.Parallel()

	n := vnet(spoke1ID, "vnet-spoke1")
	excluded := vnetID(spoke1ID, "vnet-spoke1-old")
	skipped := vnetID(spoke2ID, "vnet-old")

	d := fakedirectory.New()
	// both links carry the name the desired link would get.
	d.AddLink(blobZone, azgov.LinkName(n), excluded)
	d.AddLink(fileZone, azgov.LinkName(n), skipped)

	desired := &Desired{
		Links:    []azgov.ZoneLink{{Zone: blobZone, Network: n}, {Zone: fileZone, Network: n}},
		Excluded: sets.NewThreadUnsafeSet(strings.ToLower(excluded)),
		Skipped:  sets.NewThreadUnsafeSet(strings.ToLower(spoke2ID)),
	}
	plan := NewReconciler(d, nil).Reconcile(context.Background(), desired)
	require.Len(t, plan.Decisions, 2)
	assert.Equal(t, DecisionCreate, plan.Decisions[0].Kind)
	assert.Equal(t, DecisionCreate, plan.Decisions[1].Kind)

	// without the protection both would be replaced.
	plan = NewReconciler(d, nil).Reconcile(context.Background(), &Desired{Links: desired.Links})
	assert.Equal(t, 2, plan.Count(DecisionReplace))
}

func TestReconcileNilDesired(t *testing.T) {
	t.Parallel()

	plan := NewReconciler(fakedirectory.New(), nil).Reconcile(context.Background(), nil)
	assert.Empty(t, plan.Decisions)
	assert.Empty(t, plan.Failures)
}

func TestReconcileZoneListingFailure(t *testing.T) {
	t.Parallel()

	d := fakedirectory.New()
	d.ListLinksErr[fileZone] = errors.New("boom")
	n := vnet(spoke1ID, "a")

	desired := []azgov.ZoneLink{{Zone: fileZone, Network: n}, {Zone: blobZone, Network: n}}
	plan := NewReconciler(d, testOptions()).Reconcile(context.Background(), &Desired{Links: desired})
	require.Len(t, plan.Decisions, 1)
	assert.Equal(t, blobZone, plan.Decisions[0].Link.Zone)
	require.Len(t, plan.Failures, 1)
	assert.Equal(t, "zone", plan.Failures[0].Scope)
	assert.Equal(t, fileZone, plan.Failures[0].Name)
}

func TestReconcileCompletenessAndDeterminism(t *testing.T) {
	t.Parallel()

	d := fakedirectory.New()
	zones := []string{"z1", "z2", "z3", "z4"}
	desired := make([]azgov.ZoneLink, 0)
	for _, sub := range []string{spoke1ID, spoke2ID} {
		for _, name := range []string{"n1", "n2", "n3"} {
			for _, z := range zones {
				desired = append(desired, azgov.ZoneLink{Zone: z, Network: vnet(sub, name)})
			}
		}
	}
	// a mix of existing exact and stale links.
	d.AddLink("z1", "x", vnetID(spoke1ID, "n1"))
	d.AddLink("z2", azgov.LinkName(vnet(spoke2ID, "n3")), "stale")
	d.AddLink("z3", "y", vnetID(spoke2ID, "n2"))

	r := NewReconciler(d, testOptions())
	first := r.Reconcile(context.Background(), &Desired{Links: desired})
	require.Len(t, first.Decisions, len(desired))

	seen := make(map[azgov.ZoneLink]int)
	for i, dec := range first.Decisions {
		assert.Equal(t, desired[i], dec.Link)
		seen[dec.Link]++
	}
	for _, zl := range desired {
		assert.Equal(t, 1, seen[zl], "pair %s", zl)
	}

	assert.Equal(t, 2, first.Count(DecisionNoop))
	assert.Equal(t, 1, first.Count(DecisionReplace))
	assert.Equal(t, len(desired)-3, first.Count(DecisionCreate))

	for range 5 {
		again := r.Reconcile(context.Background(), &Desired{Links: desired})
		assert.Equal(t, first.Decisions, again.Decisions)
		assert.Equal(t, first.Actions(), again.Actions())
	}
}

func TestPlanActionsReplaceSafety(t *testing.T) {
	t.Parallel()

	stale := azgov.Link{ID: "l1", Name: "old", Zone: blobZone, TargetNetworkID: "vnet-old"}
	plan := &Plan{Decisions: []Decision{
		{Kind: DecisionCreate, Link: azgov.ZoneLink{Zone: blobZone, Network: vnet(spoke1ID, "a")}},
		{Kind: DecisionReplace, Link: azgov.ZoneLink{Zone: blobZone, Network: vnet(spoke1ID, "b")}, Existing: &stale},
		{Kind: DecisionNoop, Link: azgov.ZoneLink{Zone: blobZone, Network: vnet(spoke1ID, "c")}},
		{Kind: DecisionReplace, Link: azgov.ZoneLink{Zone: fileZone, Network: vnet(spoke1ID, "d")}, Existing: &stale},
	}}

	actions := plan.Actions()
	ops := make([]Operation, len(actions))
	for i, a := range actions {
		ops[i] = a.Operation
		assert.Equal(t, i, a.Seq)
	}
	assert.Equal(t, []Operation{
		OperationCreate,
		OperationDelete, OperationCreate,
		OperationDelete, OperationCreate,
	}, ops)
	assert.Same(t, actions[1].Decision, actions[2].Decision)
	assert.Equal(t, "CREATE privatelink.blob.core => "+vnetID(spoke1ID, "a")+" (CREATE)", actions[0].String())
}
