// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package roles contains the commands that maintain role assignments.
package roles

import (
	"github.com/spf13/cobra"
)

// RolesCmd represents the roles command.
var RolesCmd = cobra.Command{
	Use:   "roles",
	Short: "Maintain Azure role assignments.",
}

func init() {
	RolesCmd.AddCommand(&purgeCmd)
}
