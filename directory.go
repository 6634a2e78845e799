// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package azgov

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by a Directory when the requested object does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned by a Directory when a mutation conflicts with existing state.
	ErrConflict = errors.New("conflict")
	// ErrThrottled is returned by a Directory when the control plane rejects a call because
	// of rate limits. Callers may retry.
	ErrThrottled = errors.New("throttled")
)

// Directory is the contract with the cloud control plane.
// Authentication and the hub subscription are bound when the implementation is created,
// every other call names its subscription explicitly.
type Directory interface {
	// ListSubscriptions returns the subscriptions visible in the tenant.
	ListSubscriptions(ctx context.Context) ([]Subscription, error)
	// ListVirtualNetworks returns the virtual networks in the supplied subscription.
	ListVirtualNetworks(ctx context.Context, subscriptionID string) ([]VirtualNetwork, error)
	// ListPrivateZones returns the private DNS zones hosted in the supplied subscription.
	ListPrivateZones(ctx context.Context, subscriptionID string) ([]PrivateZone, error)
	// ListZoneLinks returns the virtual network links of the named zone.
	ListZoneLinks(ctx context.Context, zoneName string) ([]Link, error)
	// CreateZoneLink links the network to the zone and returns the ID of the new link.
	CreateZoneLink(ctx context.Context, zoneName, networkID, linkName string) (string, error)
	// DeleteZoneLink removes the link.
	DeleteZoneLink(ctx context.Context, link Link) error
}
