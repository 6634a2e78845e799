// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package checker_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Azure/azgov"
	"github.com/Azure/azgov/internal/checker"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGroups struct {
	groups map[string]bool // keyed by subscription ID + "/" + name
	err    error
	calls  int
}

func (f *fakeGroups) ResourceGroupExists(_ context.Context, subscriptionID, name string) (bool, error) {
	f.calls++
	return f.groups[subscriptionID+"/"+name], f.err
}

var subs = []azgov.Subscription{
	{ID: "11111111-0000-0000-0000-000000000001", Name: "Hub"},
	{ID: "22222222-0000-0000-0000-000000000002", Name: "Spoke1"},
}

func TestValidator_Validate(t *testing.T) {
	ok := checker.NewValidatorCheck("ok", func() error { return nil })
	bad := checker.NewValidatorCheck("bad", func() error { return errors.New("bad") })

	require.NoError(t, checker.NewValidator(zerolog.Nop(), ok).Validate())

	err := checker.NewValidator(zerolog.Nop(), bad, ok).AddChecks(bad).Validate()
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 2)
}

func TestPreflight(t *testing.T) {
	groups := &fakeGroups{groups: map[string]bool{subs[0].ID + "/rg-dns": true}}

	var hub azgov.Subscription
	v := checker.NewValidator(zerolog.Nop(),
		checker.CheckSubscriptionResolvable(subs, "Hub", &hub),
		checker.CheckResourceGroupExists(context.Background(), groups, &hub, "rg-dns"),
	)

	require.NoError(t, v.Validate())
	assert.Equal(t, subs[0], hub)
	assert.Equal(t, 1, groups.calls)
}

func TestPreflightMissingResourceGroup(t *testing.T) {
	groups := &fakeGroups{groups: map[string]bool{}}

	var hub azgov.Subscription
	err := checker.NewValidator(zerolog.Nop(),
		checker.CheckSubscriptionResolvable(subs, subs[0].ID, &hub),
		checker.CheckResourceGroupExists(context.Background(), groups, &hub, "rg-dns"),
	).Validate()
	require.ErrorIs(t, err, checker.ErrResourceGroupNotFound)
}

func TestPreflightUnresolvedHubSkipsResourceGroup(t *testing.T) {
	groups := &fakeGroups{}

	var hub azgov.Subscription
	err := checker.NewValidator(zerolog.Nop(),
		checker.CheckSubscriptionResolvable(subs, "Nope", &hub),
		checker.CheckResourceGroupExists(context.Background(), groups, &hub, "rg-dns"),
	).Validate()
	require.ErrorIs(t, err, azgov.ErrNotFound)
	assert.Zero(t, groups.calls)
}

func TestPreflightResourceGroupLookupError(t *testing.T) {
	groups := &fakeGroups{err: errors.New("forbidden")}
	hub := subs[0]

	err := checker.NewValidator(zerolog.Nop(),
		checker.CheckResourceGroupExists(context.Background(), groups, &hub, "rg-dns"),
	).Validate()
	require.ErrorContains(t, err, "forbidden")
}
