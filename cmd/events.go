package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	service "github.com/okian/planner/internal/app"
	"github.com/okian/planner/internal/domain/datekey"
	"github.com/okian/planner/internal/domain/model"
)

func addEvents(topLevel *cobra.Command, c *cli) {
	cmd := &cobra.Command{
		Use:     "events",
		Aliases: []string{"event", "ev"},
		Short:   "List and change events",
	}
	addEventsList(cmd, c)
	addEventsAdd(cmd, c)
	addEventsEdit(cmd, c)
	addEventsRemove(cmd, c)
	topLevel.AddCommand(cmd)
}

func addEventsList(parent *cobra.Command, c *cli) {
	var month, day string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List events by day",
		Example: `
planner events list
planner events list --month 2024-03
planner events list --day 2024-03-05
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := keyFilter(month, day)
			if err != nil {
				return err
			}
			return c.withService(cmd, func(_ context.Context, svc *service.Service) error {
				var rows []model.Event
				for _, key := range svc.Events().Keys() {
					if filter(key) {
						rows = append(rows, svc.Events().Bucket(key)...)
					}
				}
				printEvents(cmd.OutOrStdout(), rows, svc.Categories().List())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "only this month (YYYY-MM)")
	cmd.Flags().StringVar(&day, "day", "", "only this day (YYYY-MM-DD)")
	parent.AddCommand(cmd)
}

func addEventsAdd(parent *cobra.Command, c *cli) {
	var date, category string
	cmd := &cobra.Command{
		Use:   "add TEXT...",
		Short: "Add an event",
		Example: `
planner events add dentist appointment --date 2024-03-05
planner events add standup --date 2024-03-06 --category 3f2a...
`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) < 1 {
				return errors.New("requires the event text")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				e, err := svc.AddEvent(ctx, text, date, optional(category))
				if err != nil {
					return err
				}
				printEvents(cmd.OutOrStdout(), []model.Event{e}, svc.Categories().List())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day of the event (YYYY-MM-DD or a timestamp)")
	cmd.Flags().StringVar(&category, "category", "", "category id")
	_ = cmd.MarkFlagRequired("date")
	parent.AddCommand(cmd)
}

func addEventsEdit(parent *cobra.Command, c *cli) {
	var (
		text, date, category string
		clearCategory        bool
	)
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change an event's text, day or category",
		Example: `
planner events edit 3f2a... --date 2024-03-07
planner events edit 3f2a... --clear-category
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch model.EventPatch
			flags := cmd.Flags()
			if flags.Changed("text") {
				patch.Text = &text
			}
			if flags.Changed("date") {
				patch.Date = &date
			}
			switch {
			case clearCategory:
				patch.SetCategory = true
			case flags.Changed("category"):
				patch.SetCategory = true
				patch.CategoryID = optional(category)
			}
			if patch.Empty() {
				return errors.New("nothing to change; pass --text, --date, --category or --clear-category")
			}
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				e, err := svc.EditEvent(ctx, args[0], patch)
				if err != nil {
					return err
				}
				printEvents(cmd.OutOrStdout(), []model.Event{e}, svc.Categories().List())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "new text")
	cmd.Flags().StringVar(&date, "date", "", "new day")
	cmd.Flags().StringVar(&category, "category", "", "new category id")
	cmd.Flags().BoolVar(&clearCategory, "clear-category", false, "remove the category")
	cmd.MarkFlagsMutuallyExclusive("category", "clear-category")
	parent.AddCommand(cmd)
}

func addEventsRemove(parent *cobra.Command, c *cli) {
	cmd := &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete an event",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				if err := svc.RemoveEvent(ctx, args[0]); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "deleted", args[0])
				return nil
			})
		},
	}
	parent.AddCommand(cmd)
}

// keyFilter builds a day predicate from the --month and --day flags.
func keyFilter(month, day string) (func(datekey.Key) bool, error) {
	switch {
	case month != "" && day != "":
		return nil, errors.New("--month and --day cannot be combined")
	case day != "":
		key := datekey.Key(day)
		if !key.Valid() {
			return nil, fmt.Errorf("--day: %w: %q", datekey.ErrInvalidKey, day)
		}
		return func(k datekey.Key) bool { return k == key }, nil
	case month != "":
		if !datekey.Key(month + "-01").Valid() {
			return nil, fmt.Errorf("--month: want YYYY-MM, got %q", month)
		}
		prefix := month + "-"
		return func(k datekey.Key) bool { return strings.HasPrefix(string(k), prefix) }, nil
	default:
		return func(datekey.Key) bool { return true }, nil
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
