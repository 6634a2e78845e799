// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package command

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Azure/azgov/cmd/azgovtool/command/dnslinks"
	"github.com/Azure/azgov/cmd/azgovtool/command/roles"
	"github.com/Azure/azgov/cmd/azgovtool/command/setup"
	"github.com/Azure/azgov/cmd/azgovtool/command/tags"
	"github.com/spf13/cobra"
)

var version = "dev"

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "azgovtool",
	Version: version,
	Short:   "A cli tool for tenant wide Azure governance chores",
	Long: `A cli tool for tenant wide Azure governance chores.

This tool can:

- Reconcile the virtual network links of the private DNS zones hosted in a hub subscription.
- Report resource groups and resources that miss required tags.
- Remove role assignments whose principal no longer exists.

Settings are read from AZGOV_* environment variables, then from the --config file,
then from the command line. Credentials are read from the ARM_* and AZURE_* environment variables.
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// An interrupt cancels the running chore: mutations in flight complete, the rest are skipped.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	setup.AddPersistentFlags(rootCmd)
	rootCmd.AddCommand(&dnslinks.DNSLinksCmd)
	rootCmd.AddCommand(&tags.TagsCmd)
	rootCmd.AddCommand(&roles.RolesCmd)
}
