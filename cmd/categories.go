package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	service "github.com/okian/planner/internal/app"
	"github.com/okian/planner/internal/domain/model"
)

func addCategories(topLevel *cobra.Command, c *cli) {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category", "cat"},
		Short:   "List and change categories",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List categories",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withService(cmd, func(_ context.Context, svc *service.Service) error {
				printCategories(cmd.OutOrStdout(), svc.Categories().List())
				return nil
			})
		},
	})

	var color string
	add := &cobra.Command{
		Use:     "add NAME...",
		Short:   "Add a category",
		Example: "\nplanner categories add deep work --color '#3b82f6'\n",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) < 1 {
				return errors.New("requires the category name")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				cat, err := svc.AddCategory(ctx, name, color)
				if err != nil {
					return err
				}
				printCategories(cmd.OutOrStdout(), []model.Category{cat})
				return nil
			})
		},
	}
	add.Flags().StringVar(&color, "color", "", "display color, e.g. #3b82f6")
	_ = add.MarkFlagRequired("color")
	cmd.AddCommand(add)

	var newName, newColor string
	edit := &cobra.Command{
		Use:   "edit ID",
		Short: "Rename or recolor a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch model.CategoryPatch
			if cmd.Flags().Changed("name") {
				patch.Name = &newName
			}
			if cmd.Flags().Changed("color") {
				patch.Color = &newColor
			}
			if patch.Empty() {
				return errors.New("nothing to change; pass --name or --color")
			}
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				cat, err := svc.EditCategory(ctx, args[0], patch)
				if err != nil {
					return err
				}
				printCategories(cmd.OutOrStdout(), []model.Category{cat})
				return nil
			})
		},
	}
	edit.Flags().StringVar(&newName, "name", "", "new name")
	edit.Flags().StringVar(&newColor, "color", "", "new color")
	cmd.AddCommand(edit)

	cmd.AddCommand(&cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a category; its events become uncategorized",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				if err := svc.RemoveCategory(ctx, args[0]); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "deleted", args[0])
				return nil
			})
		},
	})

	topLevel.AddCommand(cmd)
}
