// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azgov"
	"github.com/Azure/azgov/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
)

// ResourceGroupExists reports whether the named resource group exists in the subscription.
func (c *Client) ResourceGroupExists(ctx context.Context, subscriptionID, name string) (bool, error) {
	client, err := armresources.NewResourceGroupsClient(subscriptionID, c.cred, c.clientOpts)
	if err != nil {
		return false, fmt.Errorf("azure.ResourceGroupExists: creating client: %w", err)
	}

	resp, err := client.CheckExistence(ctx, name, nil)
	if err != nil {
		return false, fmt.Errorf("azure.ResourceGroupExists: resource group %s: %w", name, mapError(err))
	}

	return resp.Success, nil
}

// ListResourceGroups returns the resource groups of the subscription with their tags.
func (c *Client) ListResourceGroups(ctx context.Context, subscriptionID string) ([]azgov.TaggedResource, error) {
	client, err := armresources.NewResourceGroupsClient(subscriptionID, c.cred, c.clientOpts)
	if err != nil {
		return nil, fmt.Errorf("azure.ListResourceGroups: creating client: %w", err)
	}

	var res []azgov.TaggedResource

	pager := client.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("azure.ListResourceGroups: subscription %s: %w", subscriptionID, mapError(err))
		}

		for _, rg := range page.Value {
			if rg == nil || rg.ID == nil {
				continue
			}

			res = append(res, azgov.TaggedResource{
				SubscriptionID: subscriptionID,
				ResourceGroup:  to.ValOrZero(rg.Name),
				Name:           to.ValOrZero(rg.Name),
				Type:           to.ValOrZero(rg.Type),
				ID:             *rg.ID,
				Tags:           to.MapValOrZero(rg.Tags),
			})
		}
	}

	return res, nil
}

// ListResources returns the resources of the subscription with their tags.
func (c *Client) ListResources(ctx context.Context, subscriptionID string) ([]azgov.TaggedResource, error) {
	client, err := armresources.NewClient(subscriptionID, c.cred, c.clientOpts)
	if err != nil {
		return nil, fmt.Errorf("azure.ListResources: creating client: %w", err)
	}

	var res []azgov.TaggedResource

	pager := client.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("azure.ListResources: subscription %s: %w", subscriptionID, mapError(err))
		}

		for _, r := range page.Value {
			if r == nil || r.ID == nil {
				continue
			}

			tr := azgov.TaggedResource{
				SubscriptionID: subscriptionID,
				Name:           to.ValOrZero(r.Name),
				Type:           to.ValOrZero(r.Type),
				ID:             *r.ID,
				Tags:           to.MapValOrZero(r.Tags),
			}

			if id, err := arm.ParseResourceID(*r.ID); err == nil {
				tr.ResourceGroup = id.ResourceGroupName
			}

			res = append(res, tr)
		}
	}

	return res, nil
}
