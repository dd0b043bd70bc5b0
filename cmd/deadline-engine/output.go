package main

import (
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/username/legal-deadline-engine/internal/deadline"
	"github.com/username/legal-deadline-engine/pkg/dateutil"
)

func outPrintf(format string, a ...interface{}) {
	fmt.Fprintf(out, format, a...)
}

func outPrintln(a ...interface{}) {
	fmt.Fprintln(out, a...)
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	outPrintln(string(data))
	return nil
}

const rule = "═══════════════════════════════════════════════════════"

func levelIcon(level deadline.AlertLevel) string {
	switch level {
	case deadline.AlertOverdue:
		return "⛔"
	case deadline.AlertDueToday:
		return "🔴"
	case deadline.AlertThreeDays:
		return "🟠"
	case deadline.AlertSevenDays:
		return "🟡"
	case deadline.AlertFifteenDays:
		return "🔵"
	case deadline.AlertSuspended:
		return "⏸"
	case deadline.AlertFulfilled:
		return "✅"
	default:
		return "🟢"
	}
}

func printView(v deadline.View) {
	dl := v.Deadline
	outPrintf("\n%s %s  [%s]\n", levelIcon(v.AlertLevel), dl.ID, v.AlertLevel)
	outPrintln(rule)
	if dl.CaseID != "" {
		outPrintf("  Case:           %s\n", dl.CaseID)
	}
	outPrintf("  Type:           %s\n", dl.Type)
	if dl.Description != "" {
		outPrintf("  Description:    %s\n", dl.Description)
	}
	if dl.Court != "" {
		outPrintf("  Court:          %s\n", dl.Court)
	}
	outPrintf("  Start:          %s (+%d business days)\n", dateutil.Format(dl.StartDate), dl.BusinessDays)
	outPrintf("  Due:            %s\n", dateutil.Format(dl.DueAt))
	if dl.OriginalDueAt != nil && !dl.OriginalDueAt.Equal(dl.DueAt) {
		outPrintf("  Original due:   %s\n", dateutil.Format(*dl.OriginalDueAt))
	}
	outPrintf("  Status:         %s\n", dl.Status)
	if v.Suspension != nil {
		outPrintf("  Suspended:      since %s, %s\n",
			v.Suspension.SuspendedAt.Format("2006-01-02 15:04"), v.Suspension.Reason)
	}
	if dl.Status != deadline.StatusFulfilled {
		outPrintf("  Remaining:      %d business day(s) as of %s\n", v.RemainingDays, dateutil.Format(v.Today))
	}
}

func printViewTable(views []deadline.View) {
	if len(views) == 0 {
		outPrintln("No deadlines found")
		return
	}
	outPrintln("  Level        | Due        | Left | Type                     | Case / ID")
	outPrintln("---------------+------------+------+--------------------------+---------------------------")
	for _, v := range views {
		ref := v.Deadline.CaseID
		if ref == "" {
			ref = v.Deadline.ID
		}
		outPrintf("%s %-11s | %s | %4d | %-24s | %s\n",
			levelIcon(v.AlertLevel),
			v.AlertLevel,
			dateutil.Format(v.Deadline.DueAt),
			v.RemainingDays,
			truncate(v.Deadline.Type, 24),
			ref)
	}
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
