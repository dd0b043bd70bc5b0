package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/username/legal-deadline-engine/internal/deadline"
	"github.com/username/legal-deadline-engine/internal/store"
	"github.com/username/legal-deadline-engine/pkg/dateutil"
)

func createCmd() *cobra.Command {
	var req deadline.NewDeadlineRequest
	var startStr string

	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Open a new deadline",
		Example: "  deadline-engine create --type contestacao --start 2025-01-03 --case 0001234-56.2025.8.26.0100 --court TJSP",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := dateutil.ParseDate(startStr)
			if err != nil {
				return fmt.Errorf("invalid start date: %w", err)
			}
			req.StartDate = start

			a, err := loadApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.close()

			v, err := a.mgr.Create(cmd.Context(), req)
			if err != nil {
				return err
			}
			return showView(v)
		},
	}

	cmd.Flags().StringVar(&req.Type, "type", "", "Deadline type (see 'types')")
	cmd.Flags().StringVar(&startStr, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&req.BusinessDays, "days", 0, "Business days, for --type custom")
	cmd.Flags().StringVar(&req.CaseID, "case", "", "Case number")
	cmd.Flags().StringVar(&req.Court, "court", "", "Court whose holidays apply")
	cmd.Flags().StringVar(&req.Description, "description", "", "Free-text description")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one deadline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.close()

			v, err := a.mgr.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return showView(v)
		},
	}
}

func listCmd() *cobra.Command {
	var f store.Filter
	var status string
	var suspendedOnly, activeOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List deadlines, most urgent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.Status = deadline.Status(status)
			switch {
			case suspendedOnly && activeOnly:
				return fmt.Errorf("--suspended and --active are mutually exclusive")
			case suspendedOnly:
				yes := true
				f.Suspended = &yes
			case activeOnly:
				no := false
				f.Suspended = &no
			}

			a, err := loadApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.close()

			views, err := a.mgr.List(cmd.Context(), f)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(views)
			}
			printViewTable(views)
			return nil
		},
	}

	cmd.Flags().StringVar(&f.CaseID, "case", "", "Only this case")
	cmd.Flags().StringVar(&f.Court, "court", "", "Only this court")
	cmd.Flags().StringVar(&status, "status", "", "pending, overdue or fulfilled")
	cmd.Flags().BoolVar(&suspendedOnly, "suspended", false, "Only suspended deadlines")
	cmd.Flags().BoolVar(&activeOnly, "active", false, "Only running (not suspended) deadlines")
	return cmd
}

func suspendCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "suspend <id>",
		Short: "Suspend a deadline, freezing its remaining business days",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.close()

			v, err := a.mgr.Suspend(cmd.Context(), args[0], reason)
			if err != nil {
				return err
			}
			return showView(v)
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Why the deadline is suspended")
	return cmd
}

func resumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume <id>",
		Short: "Resume a suspended deadline from today",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.close()

			v, err := a.mgr.Resume(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return showView(v)
		},
	}
}

func fulfilCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "fulfil <id>",
		Aliases: []string{"fulfill"},
		Short:   "Mark a deadline as fulfilled",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.close()

			v, err := a.mgr.Fulfil(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return showView(v)
		},
	}
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "Show the lifecycle events of a deadline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.close()

			events, err := a.mgr.History(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(events)
			}

			outPrintf("\n📜 History of %s\n", args[0])
			outPrintln(rule)
			for _, e := range events {
				line := fmt.Sprintf("  %s  %-9s", e.At.Format("2006-01-02 15:04"), e.Kind)
				if e.RemainingDays != nil {
					line += fmt.Sprintf("  %d day(s) frozen", *e.RemainingDays)
				}
				if e.Reason != "" {
					line += "  " + e.Reason
				}
				outPrintln(line)
			}
			return nil
		},
	}
}

func showView(v deadline.View) error {
	if jsonOutput {
		return printJSON(v)
	}
	printView(v)
	return nil
}
