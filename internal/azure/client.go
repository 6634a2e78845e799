// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package azure

import (
	"errors"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
)

const (
	moduleName    = "azgov"
	moduleVersion = "v0.1.0"

	// defaultGraphEndpoint is the Microsoft Graph endpoint of the public cloud.
	defaultGraphEndpoint = "https://graph.microsoft.com"
)

// Options configures a Client.
type Options struct {
	// HubSubscriptionID is the subscription that hosts the private DNS zones.
	HubSubscriptionID string
	// ZonesResourceGroup is the resource group of the hub subscription that holds the zones.
	ZonesResourceGroup string
	// GraphEndpoint is the Microsoft Graph endpoint, defaults to the public cloud.
	GraphEndpoint string
	// ClientOptions are passed to every Azure Resource Manager client.
	ClientOptions *arm.ClientOptions
}

// Client is the Azure implementation of azgov.Directory.
// It also serves the resource, role assignment and principal lookups of the other chores.
type Client struct {
	cred               azcore.TokenCredential
	clientOpts         *arm.ClientOptions
	hubSubscriptionID  string
	zonesResourceGroup string
	graphEndpoint      string
	graph              runtime.Pipeline
}

// NewClient returns a Client that authenticates with cred.
func NewClient(cred azcore.TokenCredential, opts *Options) (*Client, error) {
	if cred == nil {
		return nil, errors.New("azure: credential is nil")
	}

	if opts == nil {
		opts = new(Options)
	}

	clientOpts := opts.ClientOptions
	if clientOpts == nil {
		clientOpts = new(arm.ClientOptions)
	}

	graphEndpoint := strings.TrimSuffix(opts.GraphEndpoint, "/")
	if graphEndpoint == "" {
		graphEndpoint = defaultGraphEndpoint
	}

	graphOpts := clientOpts.ClientOptions
	bearer := runtime.NewBearerTokenPolicy(cred, []string{graphEndpoint + "/.default"}, &policy.BearerTokenOptions{
		InsecureAllowCredentialWithHTTP: graphOpts.InsecureAllowCredentialWithHTTP,
	})

	return &Client{
		cred:               cred,
		clientOpts:         clientOpts,
		hubSubscriptionID:  opts.HubSubscriptionID,
		zonesResourceGroup: opts.ZonesResourceGroup,
		graphEndpoint:      graphEndpoint,
		graph: runtime.NewPipeline(moduleName, moduleVersion, runtime.PipelineOptions{
			PerRetry: []policy.Policy{bearer},
		}, &graphOpts),
	}, nil
}

// ForHub returns a copy of the client bound to the supplied hub subscription.
func (c *Client) ForHub(subscriptionID string) *Client {
	cp := *c
	cp.hubSubscriptionID = subscriptionID

	return &cp
}
