package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/loykin/respawn/internal/registry"
	"github.com/loykin/respawn/pkg/client"
)

// statusRow is the printable projection shared by local and remote status.
type statusRow struct {
	Name     string
	Status   string
	PID      int
	Uptime   time.Duration
	Restarts int
	ExitCode *int
}

func localRow(rec registry.Record) statusRow {
	return statusRow{
		Name:     rec.Name,
		Status:   string(rec.Status),
		PID:      rec.PID,
		Uptime:   rec.Uptime(time.Now()),
		Restarts: rec.Restarts,
		ExitCode: rec.ExitCode,
	}
}

func remoteRow(st client.ProcessStatus) statusRow {
	return statusRow{
		Name:     st.Name,
		Status:   st.Status,
		PID:      st.PID,
		Uptime:   time.Duration(st.UptimeSeconds * float64(time.Second)),
		Restarts: st.Restarts,
		ExitCode: st.ExitCode,
	}
}

func printStatusTable(w io.Writer, rows []statusRow) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tSTATUS\tPID\tUPTIME\tRESTARTS\tEXIT")
	for _, row := range rows {
		pid := "-"
		if row.PID > 0 {
			pid = fmt.Sprintf("%d", row.PID)
		}
		exit := "-"
		if row.ExitCode != nil {
			exit = fmt.Sprintf("%d", *row.ExitCode)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			row.Name, row.Status, pid, formatUptime(row.Uptime), row.Restarts, exit)
	}
	_ = tw.Flush()
}

// formatUptime renders a coarse human-readable duration; "-" when not running.
func formatUptime(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
