package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/username/legal-deadline-engine/internal/calendar"
	"github.com/username/legal-deadline-engine/internal/deadline"
	"github.com/username/legal-deadline-engine/internal/holiday"
	"github.com/username/legal-deadline-engine/internal/store"
	"github.com/username/legal-deadline-engine/pkg/dateutil"
)

func addDaysCmd() *cobra.Command {
	var court string

	cmd := &cobra.Command{
		Use:     "add-days <start-date> <business-days>",
		Short:   "Compute the date n business days after a start date",
		Example: "  deadline-engine add-days 2025-01-03 15 --court TJSP",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := dateutil.ParseDate(args[0])
			if err != nil {
				return fmt.Errorf("invalid start date: %w", err)
			}
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid business-day count %q", args[1])
			}

			a, err := loadApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.close()

			due, err := a.mgr.AddBusinessDays(cmd.Context(), start, n, court)
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(map[string]interface{}{
					"start_date": dateutil.Format(start),
					"days":       n,
					"court":      court,
					"due_date":   dateutil.Format(due),
				})
			}
			outPrintf("%s + %d business day(s)%s = %s (%s)\n",
				dateutil.Format(start), n, courtSuffix(court), dateutil.Format(due), due.Weekday())
			return nil
		},
	}

	cmd.Flags().StringVar(&court, "court", "", "Court whose holidays apply (national only when empty)")
	return cmd
}

func remainingCmd() *cobra.Command {
	var court string

	cmd := &cobra.Command{
		Use:   "remaining <due-date>",
		Short: "Count business days left until a due date, as of today",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			due, err := dateutil.ParseDate(args[0])
			if err != nil {
				return fmt.Errorf("invalid due date: %w", err)
			}

			a, err := loadApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.close()

			remaining, level, err := a.mgr.Remaining(cmd.Context(), due, court)
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(map[string]interface{}{
					"today":          dateutil.Format(a.mgr.Today()),
					"due_date":       dateutil.Format(due),
					"court":          court,
					"remaining_days": remaining,
					"alert_level":    level,
				})
			}
			outPrintf("%d business day(s) left until %s%s (today %s)\n",
				remaining, dateutil.Format(due), courtSuffix(court), dateutil.Format(a.mgr.Today()))
			return nil
		},
	}

	cmd.Flags().StringVar(&court, "court", "", "Court whose holidays apply")
	return cmd
}

func alertCmd() *cobra.Command {
	var court string

	cmd := &cobra.Command{
		Use:   "alert <due-date>",
		Short: "Classify a due date into an alert level, as of today",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			due, err := dateutil.ParseDate(args[0])
			if err != nil {
				return fmt.Errorf("invalid due date: %w", err)
			}

			a, err := loadApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.close()

			remaining, level, err := a.mgr.Remaining(cmd.Context(), due, court)
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(map[string]interface{}{
					"due_date":    dateutil.Format(due),
					"alert_level": level,
				})
			}
			outPrintf("%s %s (%d business day(s) left)\n", levelIcon(level), level, remaining)
			return nil
		},
	}

	cmd.Flags().StringVar(&court, "court", "", "Court whose holidays apply")
	return cmd
}

func calendarCmd() *cobra.Command {
	var court string

	cmd := &cobra.Command{
		Use:   "calendar [YYYY-MM]",
		Short: "Show the working-day calendar of a month",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.close()

			first := dateutil.Date(a.mgr.Today().Year(), a.mgr.Today().Month(), 1)
			if len(args) == 1 {
				t, err := time.Parse("2006-01", args[0])
				if err != nil {
					return fmt.Errorf("invalid month %q, expected YYYY-MM", args[0])
				}
				first = dateutil.Date(t.Year(), t.Month(), 1)
			}
			last := first.AddDate(0, 1, -1)

			cal, err := a.mgr.Calendar(cmd.Context(), court, first, last)
			if err != nil {
				return err
			}
			info := cal.MonthInfo(first.Year(), first.Month())

			if jsonOutput {
				return printJSON(info)
			}
			printMonth(info, court)
			return nil
		},
	}

	cmd.Flags().StringVar(&court, "court", "", "Court whose holidays apply")
	return cmd
}

func printMonth(info calendar.MonthInfo, court string) {
	outPrintf("\n📅 %s %d%s\n", info.Month, info.Year, courtSuffix(court))
	outPrintln(rule)
	outPrintf("  Working days:   %d\n", info.WorkDays)
	outPrintf("  Weekend days:   %d\n", info.Weekends)
	outPrintf("  Holidays:       %d\n", info.Holidays)

	outPrintln("\n  Non-working days:")
	for _, day := range info.Days {
		if day.IsWorkday {
			continue
		}
		note := day.Note
		if note == "" {
			note = day.Type.String()
		}
		outPrintf("  %s %s  %s\n", dateutil.Format(day.Date), day.Date.Weekday().String()[:3], note)
	}
}

func holidaysCmd() *cobra.Command {
	var fromStr, toStr, court string

	cmd := &cobra.Command{
		Use:   "holidays",
		Short: "List holidays in a date range (default: this year)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.close()

			year := a.mgr.Today().Year()
			from := dateutil.Date(year, time.January, 1)
			to := dateutil.Date(year, time.December, 31)
			if fromStr != "" {
				if from, err = dateutil.ParseDate(fromStr); err != nil {
					return fmt.Errorf("invalid from date: %w", err)
				}
			}
			if toStr != "" {
				if to, err = dateutil.ParseDate(toStr); err != nil {
					return fmt.Errorf("invalid to date: %w", err)
				}
			}

			hs, err := a.mgr.Holidays(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			if court != "" {
				filtered := hs[:0]
				for _, h := range hs {
					if h.Applies(court) {
						filtered = append(filtered, h)
					}
				}
				hs = filtered
			}

			if jsonOutput {
				return printJSON(hs)
			}
			outPrintf("\n🗓  Holidays %s .. %s%s\n", dateutil.Format(from), dateutil.Format(to), courtSuffix(court))
			outPrintln(rule)
			for _, h := range hs {
				outPrintln("  " + holiday.FormatLine(h))
			}
			outPrintf("\n  %d holiday(s)\n", len(hs))
			return nil
		},
	}

	cmd.Flags().StringVar(&fromStr, "from", "", "Range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toStr, "to", "", "Range end (YYYY-MM-DD)")
	cmd.Flags().StringVar(&court, "court", "", "Only holidays applicable to this court")

	cmd.AddCommand(holidaysImportCmd())
	return cmd
}

func holidaysImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <holidays-file>",
		Short: "Import a holiday file into the postgres holidays table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.close()

			pg, ok := a.repo.(*store.Postgres)
			if !ok {
				return fmt.Errorf("holiday import needs store.type postgres, got %q", a.cfg.Store.Type)
			}

			src := holiday.NewFileSource(args[0], logger)
			if err := src.Load(); err != nil {
				return err
			}
			hs, err := src.Holidays(cmd.Context(), dateutil.Date(1900, time.January, 1), dateutil.Date(2999, time.December, 31))
			if err != nil {
				return err
			}

			n, err := store.NewPostgresHolidaySource(pg.DB(), logger).Import(cmd.Context(), hs)
			if err != nil {
				return err
			}
			logger.Info("Holidays imported", zap.String("file", args[0]), zap.Int("count", n))
			outPrintf("✅ Imported %d holiday(s) from %s\n", n, args[0])
			return nil
		},
	}
}

func typesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the deadline types and their business-day counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := deadline.Catalog()
			if jsonOutput {
				return printJSON(catalog)
			}
			outPrintln("  Key                      | Days | Label")
			outPrintln("---------------------------+------+--------------------------------")
			for _, t := range catalog {
				days := strconv.Itoa(t.DefaultDays)
				if t.Key == deadline.TypeCustom {
					days = "--days"
				}
				outPrintf("  %-24s | %4s | %s\n", t.Key, days, t.Label)
			}
			return nil
		},
	}
}

func courtSuffix(court string) string {
	if court == "" {
		return ""
	}
	return " [" + court + "]"
}
