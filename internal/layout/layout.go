// Package layout packs overlapping appointments into non-overlapping
// visual columns for calendar rendering. It is a pure computation: the
// same input always produces bit-identical positions.
package layout

import (
	"math"

	"github.com/clinicboard/appointment-registry/internal/appointment"
)

// Config fixes the geometry of one rendering scope (one day column).
type Config struct {
	ScopeStartMinutes int     // first visible minute of the day
	SlotMinutes       int     // minutes represented by one grid slot
	SlotHeight        int     // pixel height of one grid slot
	GapPercent        float64 // horizontal gap between columns, in percent of full width
	MinWidthPercent   float64 // floor so crowded columns stay visible
}

// Position is the computed placement for one appointment. Top and Height
// are pixels; LeftPercent and WidthPercent are percentages of the scope
// width.
type Position struct {
	ID           string
	Top          int
	Height       int
	LeftPercent  float64
	WidthPercent float64
	Column       int
	Columns      int
}

// Compute places every appointment in the scope. Each placement depends
// only on the overlap graph induced by the whole input, so the result
// for one appointment is independent of slice order beyond the ordering
// rule below.
func Compute(appts []appointment.Appointment, cfg Config) []Position {
	out := make([]Position, len(appts))
	for i := range appts {
		out[i] = place(i, appts, cfg)
	}
	return out
}

func place(i int, appts []appointment.Appointment, cfg Config) Position {
	a := appts[i]
	start, end := a.StartMinutes(), a.EndMinutes()

	top := int(math.Round(float64(start-cfg.ScopeStartMinutes) / float64(cfg.SlotMinutes) * float64(cfg.SlotHeight)))
	height := int(math.Round(float64(a.Duration) / float64(cfg.SlotMinutes) * float64(cfg.SlotHeight)))
	if height < cfg.SlotHeight {
		// Anything shorter than one slot still gets a full slot of
		// height so it stays clickable.
		height = cfg.SlotHeight
	}

	// Column index: among the appointments overlapping this one, count
	// how many sort strictly before it. The overlap set is never
	// materialized or sorted; counting against a total order gives the
	// same answer.
	overlapping := 0
	before := 0
	for j := range appts {
		if j == i {
			continue
		}
		b := appts[j]
		if !appointment.Overlaps(start, end, b.StartMinutes(), b.EndMinutes()) {
			continue
		}
		overlapping++
		if sortsBefore(b, a) {
			before++
		}
	}

	// Width derives from this appointment's own overlap count, not a
	// shared count for the connected cluster. In chain-shaped scopes
	// (a overlaps b, b overlaps c, a and c disjoint) the counts differ
	// and neighboring spans can intersect; packing is exact within
	// mutually overlapping groups.
	columns := overlapping + 1
	width := (100 - float64(columns-1)*cfg.GapPercent) / float64(columns)
	if width < cfg.MinWidthPercent {
		width = cfg.MinWidthPercent
	}

	return Position{
		ID:           a.ID,
		Top:          top,
		Height:       height,
		LeftPercent:  float64(before) * (width + cfg.GapPercent),
		WidthPercent: width,
		Column:       before,
		Columns:      columns,
	}
}

// sortsBefore is the ordering rule for overlapping appointments: earlier
// start first, then doctor name. The id tie-break keeps the order total
// for degenerate inputs a store would normally reject, such as two
// cancelled visits sharing a doctor and start time.
func sortsBefore(b, a appointment.Appointment) bool {
	bs, as := b.StartMinutes(), a.StartMinutes()
	if bs != as {
		return bs < as
	}
	if b.DoctorName != a.DoctorName {
		return b.DoctorName < a.DoctorName
	}
	return b.ID < a.ID
}
