// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package azgov

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindSubscription(t *testing.T) {
	subs := []Subscription{
		{ID: "aaaaaaaa-0000-0000-0000-000000000001", Name: "Hub"},
		{ID: "bbbbbbbb-0000-0000-0000-000000000002", Name: "Spoke"},
		{ID: "cccccccc-0000-0000-0000-000000000003", Name: "Spoke"},
	}

	s, err := FindSubscription(subs, "Hub")
	require.NoError(t, err)
	assert.Equal(t, subs[0], s)

	s, err = FindSubscription(subs, "BBBBBBBB-0000-0000-0000-000000000002")
	require.NoError(t, err)
	assert.Equal(t, subs[1], s)

	_, err = FindSubscription(subs, "Spoke")
	require.ErrorIs(t, err, ErrConflict)

	_, err = FindSubscription(subs, "Missing")
	require.ErrorIs(t, err, ErrNotFound)
}
