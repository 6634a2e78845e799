// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package dnslinks contains the commands that manage private DNS zone virtual network links.
package dnslinks

import (
	"github.com/spf13/cobra"
)

// DNSLinksCmd represents the dnslinks command.
var DNSLinksCmd = cobra.Command{
	Use:   "dnslinks",
	Short: "Manage the virtual network links of the hub private DNS zones.",
	Long: `Manage the virtual network links of the private DNS zones hosted in the hub subscription.

Every private DNS zone of the zones resource group is linked to every virtual network of every
subscription in scope. Links are named after the virtual network and its subscription.`,
}

func init() {
	DNSLinksCmd.AddCommand(&reconcileCmd)
}
