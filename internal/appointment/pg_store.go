package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	redisclient "github.com/clinicboard/appointment-registry/internal/redis"
)

// PgStore implements Store on Postgres for deployments that need the
// registry to survive restarts. Semantics are identical to MemoryStore;
// the conflict check runs inside a transaction, optionally guarded by a
// per doctor/date Redis lock when multiple replicas share the database.
type PgStore struct {
	pool   *pgxpool.Pool
	locker redisclient.Locker // nil when a single writer owns the database
}

func NewPgStore(pool *pgxpool.Pool, locker redisclient.Locker) *PgStore {
	return &PgStore{pool: pool, locker: locker}
}

const appointmentColumns = `id, patient_name, doctor_name, visit_date, visit_time, duration_minutes, status, mode`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID,
		&a.PatientName,
		&a.DoctorName,
		&a.Date,
		&a.Time,
		&a.Duration,
		&a.Status,
		&a.Mode,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *PgStore) List(ctx context.Context, f Filter) ([]Appointment, error) {
	q := `SELECT ` + appointmentColumns + ` FROM appointments`

	var conds []string
	var args []any
	if f.Date != "" {
		args = append(args, f.Date)
		conds = append(conds, fmt.Sprintf("visit_date = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.DoctorName != "" {
		args = append(args, f.DoctorName)
		conds = append(conds, fmt.Sprintf("doctor_name = $%d", len(args)))
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at, id"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *PgStore) Create(ctx context.Context, p CreateParams) (*Appointment, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	a := Appointment{
		ID:          newID(),
		PatientName: p.PatientName,
		DoctorName:  p.DoctorName,
		Date:        p.Date,
		Time:        p.Time,
		Duration:    p.Duration,
		Status:      p.statusOrDefault(),
		Mode:        p.Mode,
	}

	insert := func(ctx context.Context) error {
		return s.insertChecked(ctx, a)
	}

	var err error
	if s.locker != nil {
		err = s.locker.WithScheduleLock(ctx, a.DoctorName, a.Date, insert)
	} else {
		err = insert(ctx)
	}
	if err != nil {
		return nil, err
	}

	out := a
	return &out, nil
}

// insertChecked runs the conflict scan and the insert in one transaction
// so the candidate set cannot change between check and write.
func (s *PgStore) insertChecked(ctx context.Context, a Appointment) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create: %w", err)
	}
	defer tx.Rollback(ctx)

	// FOR UPDATE cannot lock rows that do not exist yet, so two
	// transactions scanning the same empty schedule would both pass the
	// conflict check. The advisory lock serializes creates per
	// doctor/day across every connection to this database and releases
	// on commit or rollback; the Redis locker remains the layer for
	// replicas that do not share one database.
	_, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1 || '|' || $2))`, a.DoctorName, a.Date)
	if err != nil {
		return fmt.Errorf("acquire schedule lock: %w", err)
	}

	// The conflict invariant binds pairs where neither side is
	// cancelled, so a record arriving already cancelled checks nothing.
	if a.Status != StatusCancelled {
		rows, err := tx.Query(ctx, `
			SELECT `+appointmentColumns+`
			FROM appointments
			WHERE doctor_name = $1
			  AND visit_date = $2
			  AND status != $3
			FOR UPDATE
		`, a.DoctorName, a.Date, StatusCancelled)
		if err != nil {
			return fmt.Errorf("load schedule for conflict check: %w", err)
		}

		var existing []Appointment
		for rows.Next() {
			e, err := scanAppointment(rows)
			if err != nil {
				rows.Close()
				return err
			}
			existing = append(existing, *e)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		newStart, newEnd := a.StartMinutes(), a.EndMinutes()
		for _, e := range existing {
			if Overlaps(newStart, newEnd, e.StartMinutes(), e.EndMinutes()) {
				return conflictWith(a.DoctorName, a.Date, e)
			}
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO appointments (id, patient_name, doctor_name, visit_date, visit_time, duration_minutes, status, mode, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
	`, a.ID, a.PatientName, a.DoctorName, a.Date, a.Time, a.Duration, a.Status, a.Mode)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *PgStore) UpdateStatus(ctx context.Context, id string, status Status) (*Appointment, error) {
	if !status.Valid() {
		return nil, &ValidationError{Field: "status", Reason: "must be one of Scheduled, Confirmed, Upcoming, Cancelled"}
	}

	row := s.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns+`
	`, id, status)

	return scanAppointment(row)
}

func (s *PgStore) Delete(ctx context.Context, id string) (bool, error) {
	ct, err := s.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}
