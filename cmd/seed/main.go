package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicboard/appointment-registry/internal/appointment"
	"github.com/clinicboard/appointment-registry/internal/db"
)

// seed fills an empty database with a demo week: two doctors, a dozen
// visits spread over the next seven days. All inserts go through the
// store so the seed data obeys the same conflict rules as live traffic.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := ensureSchema(context.Background(), pool); err != nil {
		log.Fatalf("create schema: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedDemoWeek(context.Background(), pool); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	log.Println("seed complete")
}

func ensureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS appointments (
			id               text PRIMARY KEY,
			patient_name     text NOT NULL,
			doctor_name      text NOT NULL,
			visit_date       text NOT NULL,
			visit_time       text NOT NULL,
			duration_minutes integer NOT NULL CHECK (duration_minutes > 0),
			status           text NOT NULL,
			mode             text NOT NULL,
			created_at       timestamptz NOT NULL DEFAULT now(),
			updated_at       timestamptz NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_appointments_schedule
			ON appointments (doctor_name, visit_date);
	`)
	return err
}

type demoVisit struct {
	daysAhead int
	startTime string
	duration  int
	doctor    string
	status    appointment.Status
	mode      appointment.Mode
}

func seedDemoWeek(ctx context.Context, pool *pgxpool.Pool) error {
	visits := []demoVisit{
		{1, "09:00", 30, "Dr. A", appointment.StatusConfirmed, appointment.ModeInPerson},
		{1, "10:30", 45, "Dr. A", appointment.StatusScheduled, appointment.ModeVirtual},
		{1, "11:30", 30, "Dr. A", appointment.StatusScheduled, appointment.ModeVirtual},
		{2, "14:00", 60, "Dr. B", appointment.StatusUpcoming, appointment.ModeInPerson},
		{2, "15:30", 30, "Dr. B", appointment.StatusConfirmed, appointment.ModePhone},
		{3, "11:00", 45, "Dr. A", appointment.StatusScheduled, appointment.ModeVirtual},
		{3, "13:00", 30, "Dr. A", appointment.StatusUpcoming, appointment.ModeInPerson},
		{4, "09:30", 60, "Dr. B", appointment.StatusConfirmed, appointment.ModeInPerson},
		{5, "10:00", 30, "Dr. A", appointment.StatusCancelled, appointment.ModeVirtual},
		{5, "14:30", 45, "Dr. B", appointment.StatusScheduled, appointment.ModeInPerson},
		{6, "16:00", 30, "Dr. A", appointment.StatusUpcoming, appointment.ModePhone},
		{7, "08:00", 60, "Dr. B", appointment.StatusConfirmed, appointment.ModeInPerson},
	}

	store := appointment.NewPgStore(pool, nil)
	today := time.Now()

	created := 0
	for _, v := range visits {
		date := today.AddDate(0, 0, v.daysAhead).Format(appointment.DateLayout)

		// Conflict checks do not catch rerunning a Cancelled visit, so
		// skip any slot this seed has already filled.
		existing, err := store.List(ctx, appointment.Filter{DoctorName: v.doctor, Date: date})
		if err != nil {
			return err
		}
		if hasVisitAt(existing, v.startTime) {
			log.Printf("skipping %s %s %s: already seeded", v.doctor, date, v.startTime)
			continue
		}

		_, err = store.Create(ctx, appointment.CreateParams{
			PatientName: gofakeit.Name(),
			DoctorName:  v.doctor,
			Date:        date,
			Time:        v.startTime,
			Duration:    v.duration,
			Status:      v.status,
			Mode:        v.mode,
		})
		if err != nil {
			var cErr *appointment.ConflictError
			if errors.As(err, &cErr) {
				// Re-running seed against a populated database; skip.
				log.Printf("skipping %s %s %s: %v", v.doctor, date, v.startTime, err)
				continue
			}
			return err
		}
		created++
	}

	log.Printf("seeded %d appointments", created)
	return nil
}

func hasVisitAt(appts []appointment.Appointment, start string) bool {
	for _, a := range appts {
		if a.Time == start {
			return true
		}
	}
	return false
}
