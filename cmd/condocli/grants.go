package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/brito101/medicaodigitalx/storage/model"
)

func grantCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "grant <username> <capability...>",
		Short: "Grant capabilities to a user",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			caps, err := parseCapabilities(args[1:])
			if err != nil {
				return err
			}
			u, err := c.backends.Users.Grant(args[0], caps...)
			if err != nil {
				return err
			}
			c.forget(u.Username)
			return printPermissions(cmd, u)
		},
	}
}

func revokeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <username> <capability...>",
		Short: "Revoke capabilities from a user",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			caps, err := parseCapabilities(args[1:])
			if err != nil {
				return err
			}
			u, err := c.backends.Users.Revoke(args[0], caps...)
			if err != nil {
				return err
			}
			c.forget(u.Username)
			return printPermissions(cmd, u)
		},
	}
}

func printPermissions(cmd *cobra.Command, u *model.User) error {
	caps := make([]string, len(u.Permissions))
	for i, p := range u.Permissions {
		caps[i] = string(p.Capability)
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", u.Username, strings.Join(caps, ", "))
	return err
}

func capabilitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "capabilities",
		Short: "List the capabilities that can be granted",
		Args:  cobra.NoArgs,
		// no storage needed
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, info := range model.CapabilityInfos() {
				_, _ = fmt.Fprintf(w, "%s\t%s\n", info.Capability, info.Label)
			}
			return w.Flush()
		},
	}
}
