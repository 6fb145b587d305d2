package main

import (
	"context"

	"github.com/spf13/cobra"

	service "github.com/okian/planner/internal/app"
)

func addMonth(topLevel *cobra.Command, c *cli) {
	var (
		offset int
		list   bool
	)
	cmd := &cobra.Command{
		Use:   "month",
		Short: "Show a month grid with the days that hold events",
		Example: `
planner month
planner month --offset -1
planner month --offset 2 --list
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				if err := svc.Navigate(ctx, offset); err != nil {
					return err
				}
				grid := svc.Month()
				printMonth(cmd.OutOrStdout(), grid)
				if list {
					printMonthEvents(cmd.OutOrStdout(), grid, svc.Events(), svc.Categories().List())
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&offset, "offset", 0, "months relative to the current one")
	cmd.Flags().BoolVar(&list, "list", false, "also list the month's events by day")
	topLevel.AddCommand(cmd)
}
