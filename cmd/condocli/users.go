package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func usersCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users",
	}

	var (
		password    string
		displayName string
		email       string
	)
	create := &cobra.Command{
		Use:   "create <username> [capability...]",
		Short: "Create a user, optionally granting capabilities",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				return errors.New("--password is required")
			}
			caps, err := parseCapabilities(args[1:])
			if err != nil {
				return err
			}
			u, err := c.backends.Users.Create(args[0], password, displayName, email)
			if err != nil {
				return err
			}
			if len(caps) > 0 {
				if u, err = c.backends.Users.Grant(u.Username, caps...); err != nil {
					return err
				}
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "created user %s (id %d)\n", u.Username, u.ID)
			return err
		},
	}
	create.Flags().StringVarP(&password, "password", "p", "", "the password of the user")
	create.Flags().StringVar(&displayName, "display-name", "", "the display name of the user")
	create.Flags().StringVar(&email, "email", "", "the e-mail address of the user")

	list := &cobra.Command{
		Use:   "list",
		Short: "List users with their capabilities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := c.backends.Users.List()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tUSERNAME\tNAME\tDISABLED\tCAPABILITIES")
			for _, u := range users {
				caps := make([]string, len(u.Permissions))
				for i, p := range u.Permissions {
					caps[i] = string(p.Capability)
				}
				_, _ = fmt.Fprintf(
					w, "%d\t%s\t%s\t%t\t%s\n", u.ID, u.Username, u.Name(), u.Disabled, strings.Join(caps, ","),
				)
			}
			return w.Flush()
		},
	}

	del := &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete a user and its capabilities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.backends.Users.Delete(args[0]); err != nil {
				return err
			}
			c.forget(args[0])
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "deleted user %s\n", args[0])
			return err
		},
	}

	cmd.AddCommand(create, list, del)
	return cmd
}
