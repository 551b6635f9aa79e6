// Package cli renders plant care data for the command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/plantcare/internal/care"
	"github.com/plantcare/internal/db"
	"github.com/plantcare/internal/locale"
	"github.com/plantcare/internal/reminder"
	"github.com/plantcare/internal/service"
)

// DueRow is one outstanding care event joined with its plant.
type DueRow struct {
	PlantID   uint
	Plant     string
	Room      string
	Kind      string
	Due       time.Time
	DaysUntil int
}

// PlantSource is the part of the plant service the report needs.
type PlantSource interface {
	ListAll(ctx context.Context) ([]db.Plant, error)
}

// OutstandingSource is the part of the event store the report needs.
type OutstandingSource interface {
	OutstandingForPlant(ctx context.Context, plantID uint) ([]db.CareEvent, error)
}

// CollectDue gathers outstanding events that fall due within horizonDays of now.
// Overdue events are always included. A negative horizon lists everything.
func CollectDue(ctx context.Context, plants PlantSource, events OutstandingSource, now time.Time, horizonDays int) ([]DueRow, error) {
	all, err := plants.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]DueRow, 0, len(all))
	for _, p := range all {
		outstanding, err := events.OutstandingForPlant(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		for _, e := range outstanding {
			days := care.DaysUntil(e.PlannedDue(), now)
			if horizonDays >= 0 && days > horizonDays {
				continue
			}
			rows = append(rows, DueRow{
				PlantID:   p.ID,
				Plant:     p.Name,
				Room:      p.Room,
				Kind:      e.Kind,
				Due:       e.PlannedDue(),
				DaysUntil: days,
			})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Due.Before(rows[j].Due)
	})
	return rows, nil
}

func dueColor(days int) *color.Color {
	switch {
	case days < 0:
		return color.New(color.FgRed, color.Bold)
	case days == 0:
		return color.New(color.FgYellow, color.Bold)
	case days <= 2:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}

// PrintDue writes rows as an aligned table in the given language.
func PrintDue(w io.Writer, rows []DueRow, language string, loc *time.Location) {
	if len(rows) == 0 {
		_, _ = color.New(color.Faint, color.Italic).Fprintln(w, locale.Pick(language, "nothing is due", "ничего не запланировано"))
		return
	}

	bold := color.New(color.Bold)
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 40
	tbl.AddRow(
		bold.Sprint("ID"),
		bold.Sprint(locale.Pick(language, "Plant", "Растение")),
		bold.Sprint(locale.Pick(language, "Room", "Комната")),
		bold.Sprint(locale.Pick(language, "Care", "Уход")),
		bold.Sprint(locale.Pick(language, "Due", "Срок")),
		bold.Sprint(locale.Pick(language, "When", "Когда")),
	)
	for _, r := range rows {
		tbl.AddRow(
			r.PlantID,
			r.Plant,
			r.Room,
			locale.KindAction(language, r.Kind),
			r.Due.In(loc).Format("2006-01-02 15:04"),
			dueColor(r.DaysUntil).Sprint(locale.DueIn(language, r.DaysUntil)),
		)
	}
	tbl.RightAlign(0)
	_, _ = fmt.Fprintln(w, tbl)
}

// PrintScan summarizes a reminder scan per tier.
func PrintScan(w io.Writer, result reminder.ScanResult) {
	tbl := uitable.New()
	tbl.Separator = "  "
	bold := color.New(color.Bold)
	tbl.AddRow(bold.Sprint("Tier"), bold.Sprint("Dispatched"))
	for _, tier := range service.Tiers() {
		tbl.AddRow(string(tier), result.Dispatched[tier])
	}
	tbl.AddRow(color.New(color.Faint).Sprint("skipped"), result.Skipped)
	tbl.RightAlign(1)
	_, _ = fmt.Fprintln(w, tbl)
	_, _ = fmt.Fprintf(w, "%d reminder(s) for %d plant(s)\n", result.Total(), result.Plants)
}
