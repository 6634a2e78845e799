// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package tags contains the commands that audit resource tags.
package tags

import (
	"github.com/spf13/cobra"
)

// TagsCmd represents the tags command.
var TagsCmd = cobra.Command{
	Use:   "tags",
	Short: "Audit the tags of resource groups and resources.",
}

func init() {
	TagsCmd.AddCommand(&auditCmd)
}
