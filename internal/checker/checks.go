// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package checker

import (
	"context"
	"errors"
	"fmt"

	"github.com/Azure/azgov"
)

// ErrResourceGroupNotFound is returned when a required resource group does not exist.
var ErrResourceGroupNotFound = errors.New("resource group not found")

// ResourceGroupChecker reports whether a resource group exists.
type ResourceGroupChecker interface {
	ResourceGroupExists(ctx context.Context, subscriptionID, name string) (bool, error)
}

// CheckSubscriptionResolvable resolves nameOrID against subs and stores the match in resolved.
func CheckSubscriptionResolvable(subs []azgov.Subscription, nameOrID string, resolved *azgov.Subscription) ValidatorCheck {
	return NewValidatorCheck("subscription resolvable", func() error {
		s, err := azgov.FindSubscription(subs, nameOrID)
		if err != nil {
			return fmt.Errorf("checker.CheckSubscriptionResolvable: %w", err)
		}

		*resolved = s

		return nil
	})
}

// CheckResourceGroupExists checks the named resource group exists in the subscription.
// The subscription is read when the check runs, so it may be filled in by an earlier check.
// The check is skipped when the subscription is unknown.
func CheckResourceGroupExists(ctx context.Context, c ResourceGroupChecker, sub *azgov.Subscription, name string) ValidatorCheck {
	return NewValidatorCheck("resource group exists", func() error {
		if sub == nil || sub.ID == "" {
			return nil
		}

		ok, err := c.ResourceGroupExists(ctx, sub.ID, name)
		if err != nil {
			return fmt.Errorf("checker.CheckResourceGroupExists: %w", err)
		}

		if !ok {
			return fmt.Errorf("checker.CheckResourceGroupExists: %s in subscription %s: %w", name, sub.Name, ErrResourceGroupNotFound)
		}

		return nil
	})
}
