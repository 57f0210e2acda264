package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/clinicboard/appointment-registry/internal/appointment"
)

// simulate hammers one doctor's day with concurrent create requests.
// Every worker races for the same small set of time slots, so the run
// verifies the store's serialization contract: each slot is won exactly
// once, everyone else gets a conflict, and nothing ever double-books.

type SimConfig struct {
	APIBaseURL string
	Workers    int
	Duration   time.Duration
	DoctorName string
	Date       string
}

type Metrics struct {
	Total     int64
	Created   int64
	Conflict  int64
	Error     int64
	mu        sync.Mutex
	latencies []time.Duration
}

func (m *Metrics) Record(latency time.Duration, status int, err error) {
	atomic.AddInt64(&m.Total, 1)
	switch {
	case err != nil:
		atomic.AddInt64(&m.Error, 1)
	case status == http.StatusCreated:
		atomic.AddInt64(&m.Created, 1)
	case status == http.StatusConflict:
		atomic.AddInt64(&m.Conflict, 1)
	default:
		atomic.AddInt64(&m.Error, 1)
	}

	m.mu.Lock()
	m.latencies = append(m.latencies, latency)
	m.mu.Unlock()
}

func (m *Metrics) Stats() (avg, p50, p95 time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.latencies) == 0 {
		return 0, 0, 0
	}

	latencies := make([]time.Duration, len(m.latencies))
	copy(latencies, m.latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	avg = sum / time.Duration(len(latencies))
	p50 = latencies[len(latencies)*50/100]

	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	p95 = latencies[p95Idx]
	return avg, p50, p95
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := loadSimConfig()
	log.Printf("simulate starting: url=%s workers=%d duration=%s doctor=%q date=%s",
		cfg.APIBaseURL, cfg.Workers, cfg.Duration, cfg.DoctorName, cfg.Date)

	gofakeit.Seed(time.Now().UnixNano())

	// 30-minute slots between 08:00 and 18:00; workers fight over these.
	var slots []string
	for m := 8 * 60; m < 18*60; m += 30 {
		slots = append(slots, appointment.ClockString(m))
	}

	metrics := &Metrics{}
	deadline := time.Now().Add(cfg.Duration)

	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			client := &http.Client{Timeout: 5 * time.Second}

			for time.Now().Before(deadline) {
				slot := slots[rng.Intn(len(slots))]
				postAppointment(client, cfg, slot, metrics)
			}
		}(time.Now().UnixNano() + int64(i))
	}
	wg.Wait()

	avg, p50, p95 := metrics.Stats()
	log.Printf("done: total=%d created=%d conflict=%d error=%d",
		metrics.Total, metrics.Created, metrics.Conflict, metrics.Error)
	log.Printf("latency: avg=%s p50=%s p95=%s", avg, p50, p95)

	if metrics.Created > int64(len(slots)) {
		log.Fatalf("INVARIANT VIOLATED: %d creates for %d slots, schedule is double-booked",
			metrics.Created, len(slots))
	}
	log.Printf("invariant held: %d creates for %d available slots", metrics.Created, len(slots))
}

func postAppointment(client *http.Client, cfg SimConfig, slot string, metrics *Metrics) {
	payload := map[string]any{
		"patientName": gofakeit.Name(),
		"doctorName":  cfg.DoctorName,
		"date":        cfg.Date,
		"time":        slot,
		"duration":    30,
		"mode":        string(appointment.ModeVirtual),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		metrics.Record(0, 0, err)
		return
	}

	start := time.Now()
	resp, err := client.Post(cfg.APIBaseURL+"/appointments", "application/json", bytes.NewReader(body))
	latency := time.Since(start)
	if err != nil {
		metrics.Record(latency, 0, err)
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	metrics.Record(latency, resp.StatusCode, nil)
}

func loadSimConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8080"),
		Workers:    getInt("SIM_WORKERS", 20),
		Duration:   getDuration("SIM_DURATION", 10*time.Second),
		DoctorName: getEnv("SIM_DOCTOR", "Dr. A"),
		Date:       getEnv("SIM_DATE", time.Now().AddDate(0, 0, 1).Format(appointment.DateLayout)),
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		fmt.Fprintf(os.Stderr, "invalid integer for %s=%q, using default %d\n", key, v, def)
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		fmt.Fprintf(os.Stderr, "invalid duration for %s=%q, using default %s\n", key, v, def)
	}
	return def
}
