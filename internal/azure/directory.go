// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package azure

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Azure/azgov"
	"github.com/Azure/azgov/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v6"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/privatedns/armprivatedns"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armsubscriptions"
)

// linkLocation is the location of every private DNS zone resource.
const linkLocation = "global"

var _ azgov.Directory = (*Client)(nil)

// ListSubscriptions implements azgov.Directory.
// Disabled and deleted subscriptions are left out.
func (c *Client) ListSubscriptions(ctx context.Context) ([]azgov.Subscription, error) {
	client, err := armsubscriptions.NewClient(c.cred, c.clientOpts)
	if err != nil {
		return nil, fmt.Errorf("azure.ListSubscriptions: creating client: %w", err)
	}

	var res []azgov.Subscription

	pager := client.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("azure.ListSubscriptions: %w", mapError(err))
		}

		for _, s := range page.Value {
			if s == nil || s.SubscriptionID == nil {
				continue
			}

			if st := to.ValOrZero(s.State); st == armsubscriptions.SubscriptionStateDisabled || st == armsubscriptions.SubscriptionStateDeleted {
				continue
			}

			res = append(res, azgov.Subscription{
				ID:   *s.SubscriptionID,
				Name: to.ValOrZero(s.DisplayName),
			})
		}
	}

	return res, nil
}

// ListVirtualNetworks implements azgov.Directory.
func (c *Client) ListVirtualNetworks(ctx context.Context, subscriptionID string) ([]azgov.VirtualNetwork, error) {
	client, err := armnetwork.NewVirtualNetworksClient(subscriptionID, c.cred, c.clientOpts)
	if err != nil {
		return nil, fmt.Errorf("azure.ListVirtualNetworks: creating client: %w", err)
	}

	var res []azgov.VirtualNetwork

	pager := client.NewListAllPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("azure.ListVirtualNetworks: subscription %s: %w", subscriptionID, mapError(err))
		}

		for _, n := range page.Value {
			if n == nil || n.ID == nil {
				continue
			}

			res = append(res, azgov.VirtualNetwork{
				ID:             *n.ID,
				Name:           to.ValOrZero(n.Name),
				SubscriptionID: subscriptionID,
			})
		}
	}

	return res, nil
}

// ListPrivateZones implements azgov.Directory.
// Only the zones of the zones resource group are returned.
func (c *Client) ListPrivateZones(ctx context.Context, subscriptionID string) ([]azgov.PrivateZone, error) {
	if c.zonesResourceGroup == "" {
		return nil, errors.New("azure.ListPrivateZones: zones resource group not set")
	}

	client, err := armprivatedns.NewPrivateZonesClient(subscriptionID, c.cred, c.clientOpts)
	if err != nil {
		return nil, fmt.Errorf("azure.ListPrivateZones: creating client: %w", err)
	}

	var res []azgov.PrivateZone

	pager := client.NewListByResourceGroupPager(c.zonesResourceGroup, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("azure.ListPrivateZones: resource group %s: %w", c.zonesResourceGroup, mapError(err))
		}

		for _, z := range page.Value {
			if z == nil || z.Name == nil {
				continue
			}

			res = append(res, azgov.PrivateZone{Name: *z.Name})
		}
	}

	return res, nil
}

// ListZoneLinks implements azgov.Directory.
func (c *Client) ListZoneLinks(ctx context.Context, zoneName string) ([]azgov.Link, error) {
	client, err := c.linksClient()
	if err != nil {
		return nil, fmt.Errorf("azure.ListZoneLinks: %w", err)
	}

	var res []azgov.Link

	pager := client.NewListPager(c.zonesResourceGroup, zoneName, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("azure.ListZoneLinks: zone %s: %w", zoneName, mapError(err))
		}

		for _, l := range page.Value {
			if l == nil || l.ID == nil {
				continue
			}

			link := azgov.Link{
				ID:   *l.ID,
				Name: to.ValOrZero(l.Name),
				Zone: zoneName,
			}

			if l.Properties != nil && l.Properties.VirtualNetwork != nil {
				link.TargetNetworkID = to.ValOrZero(l.Properties.VirtualNetwork.ID)
			}

			res = append(res, link)
		}
	}

	return res, nil
}

// CreateZoneLink implements azgov.Directory.
// The link is created without auto registration. An existing link of the same name is never
// overwritten: the call fails with azgov.ErrConflict instead.
func (c *Client) CreateZoneLink(ctx context.Context, zoneName, networkID, linkName string) (string, error) {
	client, err := c.linksClient()
	if err != nil {
		return "", fmt.Errorf("azure.CreateZoneLink: %w", err)
	}

	params := armprivatedns.VirtualNetworkLink{
		Location: to.Ptr(linkLocation),
		Properties: &armprivatedns.VirtualNetworkLinkProperties{
			VirtualNetwork:      &armprivatedns.SubResource{ID: to.Ptr(networkID)},
			RegistrationEnabled: to.Ptr(false),
		},
	}

	poller, err := client.BeginCreateOrUpdate(ctx, c.zonesResourceGroup, zoneName, linkName, params,
		&armprivatedns.VirtualNetworkLinksClientBeginCreateOrUpdateOptions{IfNoneMatch: to.Ptr("*")})
	if err != nil {
		return "", fmt.Errorf("azure.CreateZoneLink: zone %s, link %s: %w", zoneName, linkName, mapError(err))
	}

	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("azure.CreateZoneLink: zone %s, link %s: %w", zoneName, linkName, mapError(err))
	}

	return to.ValOrZero(resp.ID), nil
}

// DeleteZoneLink implements azgov.Directory.
// The resource group, zone and link names are taken from the link ID.
func (c *Client) DeleteZoneLink(ctx context.Context, link azgov.Link) error {
	rg, zone, name := c.zonesResourceGroup, link.Zone, link.Name
	if id, err := arm.ParseResourceID(link.ID); err == nil && strings.EqualFold(id.ResourceType.Type, "privateDnsZones/virtualNetworkLinks") {
		rg, name = id.ResourceGroupName, id.Name
		if id.Parent != nil {
			zone = id.Parent.Name
		}
	}

	client, err := c.linksClient()
	if err != nil {
		return fmt.Errorf("azure.DeleteZoneLink: %w", err)
	}

	poller, err := client.BeginDelete(ctx, rg, zone, name, nil)
	if err != nil {
		return fmt.Errorf("azure.DeleteZoneLink: zone %s, link %s: %w", zone, name, mapError(err))
	}

	if _, err := poller.PollUntilDone(ctx, nil); err != nil {
		return fmt.Errorf("azure.DeleteZoneLink: zone %s, link %s: %w", zone, name, mapError(err))
	}

	return nil
}

// linksClient returns a virtual network links client bound to the hub subscription.
func (c *Client) linksClient() (*armprivatedns.VirtualNetworkLinksClient, error) {
	if c.hubSubscriptionID == "" || c.zonesResourceGroup == "" {
		return nil, errors.New("hub subscription and zones resource group must be set")
	}

	client, err := armprivatedns.NewVirtualNetworkLinksClient(c.hubSubscriptionID, c.cred, c.clientOpts)
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}

	return client, nil
}
