// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package azgov

import (
	"fmt"
	"strings"
)

// TaggedResource is a resource group or a resource together with its tags.
// For a resource group, ResourceGroup and Name are equal.
type TaggedResource struct {
	SubscriptionID string
	ResourceGroup  string
	Name           string
	Type           string
	ID             string
	Tags           map[string]string
}

// RoleAssignment is a role assignment at subscription scope or below.
type RoleAssignment struct {
	ID               string
	SubscriptionID   string
	PrincipalID      string
	PrincipalType    string
	RoleDefinitionID string
	Scope            string
}

// FindSubscription returns the subscription whose ID or display name matches nameOrID.
// IDs are compared case insensitively. An error is returned if nothing matches,
// or if a display name matches more than one subscription.
func FindSubscription(subs []Subscription, nameOrID string) (Subscription, error) {
	var matches []Subscription

	for _, s := range subs {
		if strings.EqualFold(s.ID, nameOrID) {
			return s, nil
		}

		if s.Name == nameOrID {
			matches = append(matches, s)
		}
	}

	switch len(matches) {
	case 0:
		return Subscription{}, fmt.Errorf("subscription %s: %w", nameOrID, ErrNotFound)
	case 1:
		return matches[0], nil
	}

	return Subscription{}, fmt.Errorf("subscription name %s is not unique, %d subscriptions match: %w", nameOrID, len(matches), ErrConflict)
}
