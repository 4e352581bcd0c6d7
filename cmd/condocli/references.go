package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/brito101/medicaodigitalx/service"
	"github.com/brito101/medicaodigitalx/storage/model"
)

func complexesCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complexes",
		Short: "Manage residential complexes",
	}
	var name string
	add := &cobra.Command{
		Use:   "add <alias>",
		Short: "Add a complex",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cx, err := c.backends.Complexes.Create(
				cmd.Context(), model.AddComplex{
					AliasName: args[0],
					Name:      name,
				},
			)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "added complex %s (id %d)\n", cx.AliasName, cx.ID)
			return err
		},
	}
	add.Flags().StringVar(&name, "name", "", "the full name of the complex")
	cmd.AddCommand(add)
	return cmd
}

func dealershipsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dealerships",
		Short: "Manage dealerships",
	}
	var svc string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a dealership",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if svc == "" {
				return errors.New("--service must not be empty")
			}
			d, err := c.backends.Dealerships.Create(
				cmd.Context(), model.AddDealership{
					Name:    args[0],
					Service: svc,
				},
			)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "added dealership %s (id %d, %s)\n", d.Name, d.ID, d.Service)
			return err
		},
	}
	add.Flags().StringVar(&svc, "service", service.DefaultWaterService, "the utility the dealership provides")
	cmd.AddCommand(add)
	return cmd
}
