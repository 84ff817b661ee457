package replay

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/okian/palmares/internal/domain/model"
	"github.com/okian/palmares/internal/domain/timeline"
	"github.com/okian/palmares/internal/domain/types"
)

// valueTolerance absorbs float noise from JSON round trips.
const valueTolerance = 1e-6

// verifyResults checks every athlete's views. It fails when any timeline is
// out of order or any record is missing from its merged view.
func verifyResults(_ context.Context, config *Config, views []Views, stats *Stats) error {
	log.Println("🔍 Verifying results...")

	if len(views) == 0 {
		return fmt.Errorf("no views to verify")
	}

	var violations []string
	for _, v := range views {
		for _, err := range verifyTimelineOrder(v.Timeline) {
			violations = append(violations, v.AthleteID+": "+err.Error())
		}
		for _, err := range verifyRecordsInMerged(v.Records, v.Merged) {
			violations = append(violations, v.AthleteID+": "+err.Error())
		}
	}
	stats.Violations = len(violations)

	if config.Verbose || len(violations) > 0 {
		for _, msg := range violations {
			log.Printf("❌ %s", msg)
		}
	}
	if len(violations) > 0 {
		return fmt.Errorf("%d violations across %d athletes", len(violations), len(views))
	}

	log.Println("✅ Result verification completed")
	return nil
}

// verifyTimelineOrder reports every point dated before its predecessor.
func verifyTimelineOrder(tl types.Timeline) []error {
	var errs []error
	for i := 1; i < len(tl.Points); i++ {
		if tl.Points[i].Date.Before(tl.Points[i-1].Date) {
			errs = append(errs, fmt.Errorf("timeline point %d (%s) precedes point %d (%s)",
				i, tl.Points[i].Date.Format("2006-01-02"), i-1, tl.Points[i-1].Date.Format("2006-01-02")))
		}
	}
	return errs
}

// verifyRecordsInMerged reports every dated record with no matching point in
// the merged view. Undated records cannot appear on a timeline and are
// skipped.
func verifyRecordsInMerged(records []types.RecordView, merged types.Timeline) []error {
	var errs []error
	for _, r := range records {
		if r.Record.Date == nil {
			continue
		}
		if !containsMark(merged.Points, r.Discipline, r.Record) {
			errs = append(errs, fmt.Errorf("record %s %q on %s missing from merged view",
				r.Discipline, r.Record.Raw, r.Record.Date.Format("2006-01-02")))
		}
	}
	return errs
}

func containsMark(points []model.TimelinePoint, discipline string, m types.Mark) bool {
	for _, p := range points {
		if !timeline.Matches(p.Discipline, discipline) {
			continue
		}
		if !p.Date.Equal(*m.Date) {
			continue
		}
		if m.Value != nil && p.Value.IsNumber && math.Abs(p.Value.Number-*m.Value) < valueTolerance {
			return true
		}
		if m.Value == nil && !p.Value.IsNumber && p.Value.Text == m.Raw {
			return true
		}
	}
	return false
}
