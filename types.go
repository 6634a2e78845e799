// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package azgov

import (
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/google/uuid"
)

const (
	// maxLinkNameLength is the maximum length Azure accepts for a virtual network link name.
	maxLinkNameLength = 80
	// linkNameHashChars is the number of characters of the network ID hash used in a link name.
	linkNameHashChars = 8
)

// Subscription is a subscription discovered in the tenant.
type Subscription struct {
	ID   string
	Name string
}

// VirtualNetwork is a virtual network discovered in a subscription.
// ID is the resource ID and is treated as an opaque token.
type VirtualNetwork struct {
	ID             string
	Name           string
	SubscriptionID string
}

// PrivateZone is a private DNS zone hosted in the hub subscription.
type PrivateZone struct {
	Name string
}

// ZoneLink is the value the reconciler reasons about: this virtual network may resolve
// names in this zone.
type ZoneLink struct {
	Zone    string
	Network VirtualNetwork
}

// String implements the fmt.Stringer interface.
func (zl ZoneLink) String() string {
	return fmt.Sprintf("%s => %s", zl.Zone, zl.Network.ID)
}

// Link is a virtual network link observed in the directory.
type Link struct {
	ID              string
	Name            string
	Zone            string
	TargetNetworkID string
}

// TargetNetworkName returns the last segment of the target network ID,
// which is the virtual network name for an ARM resource ID.
func (l Link) TargetNetworkName() string {
	return lastSegment(l.TargetNetworkID)
}

// TargetSubscriptionID returns the subscription of the target network,
// or an empty string if the target is not an ARM resource ID.
func (l Link) TargetSubscriptionID() string {
	id, err := arm.ParseResourceID(l.TargetNetworkID)
	if err != nil {
		return ""
	}

	return id.SubscriptionID
}

// LinkName returns the name given to a link created for the supplied network.
// It is the network name followed by a short hash of the full resource ID, so equally
// named networks in different subscriptions or resource groups get different links.
// Resource IDs are case-insensitive and so is the hash.
func LinkName(n VirtualNetwork) string {
	hash := uuid.NewSHA1(uuid.NameSpaceURL, []byte(strings.ToLower(n.ID))).String()[:linkNameHashChars]

	name := n.Name
	if limit := maxLinkNameLength - linkNameHashChars - 1; len(name) > limit {
		name = name[:limit]
	}

	return name + "-" + hash
}

// lastSegment returns the last segment of a string separated by "/".
func lastSegment(s string) string {
	s = strings.TrimSuffix(s, "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}

	return s
}
