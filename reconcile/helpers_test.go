// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package reconcile

import (
	"fmt"
	"time"

	"github.com/Azure/azgov"
	"github.com/Azure/azgov/internal/fakedirectory"
)

const (
	hubID    = "11111111-0000-0000-0000-000000000001"
	spoke1ID = "22222222-0000-0000-0000-000000000002"
	spoke2ID = "33333333-0000-0000-0000-000000000003"
	blobZone = "privatelink.blob.core"
	fileZone = "privatelink.file.core"
)

func vnetID(sub, name string) string {
	return fmt.Sprintf("/subscriptions/%s/resourceGroups/rg-net/providers/Microsoft.Network/virtualNetworks/%s", sub, name)
}

func vnet(sub, name string) azgov.VirtualNetwork {
	return azgov.VirtualNetwork{ID: vnetID(sub, name), Name: name, SubscriptionID: sub}
}

// newTenant returns a fake directory with a hub and a single spoke that has one network.
func newTenant() *fakedirectory.Directory {
	d := fakedirectory.New()
	d.Subscriptions = []azgov.Subscription{
		{ID: hubID, Name: "Hub"},
		{ID: spoke1ID, Name: "Spoke1"},
	}
	d.Networks[spoke1ID] = []azgov.VirtualNetwork{vnet(spoke1ID, "vnet-spoke1")}
	d.Zones[hubID] = []azgov.PrivateZone{{Name: blobZone}}

	return d
}

func testOptions() *Options {
	opts := DefaultOptions()
	opts.Parallelism = 4
	opts.MaxRetries = 3
	opts.RetryInitialDelay = time.Millisecond
	opts.RetryMaxDelay = 5 * time.Millisecond
	opts.RunID = "test-run"

	return opts
}
