package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// simulate drives a running API with concurrent patients. Each round fires
// Contenders bookings at one window at the same instant; exactly one may
// win. Between rounds workers book random free slots and cancel some.

type SimConfig struct {
	APIBaseURL string
	Token      string
	Date       string
	Duration   time.Duration
	Workers    int
	Contenders int
	Rounds     int
	Minutes    int
	Buffer     int
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, p50, p95, max time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0
	}

	latencies := append([]time.Duration(nil), om.Latencies...)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	p50 = latencies[len(latencies)*50/100]
	p95 = latencies[min(len(latencies)*95/100, len(latencies)-1)]
	max = latencies[len(latencies)-1]
	return avg, p50, p95, max
}

type Metrics struct {
	Contended OperationMetrics
	Booking   OperationMetrics
	Cancel    OperationMetrics
	Slots     OperationMetrics
}

type Simulator struct {
	config  SimConfig
	client  *http.Client
	metrics Metrics

	// rounds where more than one contender got a 201
	doubleBooked int64

	mu     sync.Mutex
	booked []string
}

type slot struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if cfg.Workers <= 0 || cfg.Contenders <= 0 || cfg.Duration <= 0 {
		log.Fatalf("SIM_WORKERS, SIM_CONTENDERS and SIM_DURATION must be > 0")
	}

	log.Printf("config: date=%s duration=%s workers=%d contenders=%d rounds=%d",
		cfg.Date, cfg.Duration, cfg.Workers, cfg.Contenders, cfg.Rounds)

	sim := &Simulator{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	sim.runContention(ctx)
	sim.runMixed(ctx)
	sim.PrintReport()

	if atomic.LoadInt64(&sim.doubleBooked) > 0 {
		os.Exit(1)
	}
}

func loadConfig() SimConfig {
	return SimConfig{
		APIBaseURL: getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Token:      os.Getenv("SIM_TOKEN"),
		Date:       getEnv("SIM_DATE", time.Now().AddDate(0, 0, 7).Format("2006-01-02")),
		Duration:   getDuration("SIM_DURATION", 30*time.Second),
		Workers:    getInt("SIM_WORKERS", 10),
		Contenders: getInt("SIM_CONTENDERS", 20),
		Rounds:     getInt("SIM_ROUNDS", 5),
		Minutes:    getInt("SIM_MINUTES", 60),
		Buffer:     getInt("SIM_BUFFER", 15),
	}
}

// ======================================================
// CONTENTION
// ======================================================

func (s *Simulator) runContention(ctx context.Context) {
	for round := 0; round < s.config.Rounds; round++ {
		free, err := s.fetchSlots(ctx)
		if err != nil {
			log.Printf("round %d: fetch slots: %v", round, err)
			return
		}
		if len(free) == 0 {
			log.Printf("round %d: no free slots left on %s", round, s.config.Date)
			return
		}
		target := free[0]

		var (
			wg      sync.WaitGroup
			winners int64
			gate    = make(chan struct{})
		)

		for i := 0; i < s.config.Contenders; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-gate
				ok, conflict, _ := s.book(ctx, gofakeit.Email(), target.StartTime)
				s.metrics.Contended.Record(0, ok, conflict)
				if ok {
					atomic.AddInt64(&winners, 1)
				}
			}()
		}

		close(gate)
		wg.Wait()

		if winners > 1 {
			atomic.AddInt64(&s.doubleBooked, 1)
		}
		log.Printf("round %d: %s winners=%d", round, target.StartTime, winners)
	}
}

// ======================================================
// MIXED LOAD
// ======================================================

func (s *Simulator) runMixed(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}
	wg.Wait()
	log.Println("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		switch r := rng.Float64(); {
		case r < 0.6:
			start := time.Now()
			free, err := s.fetchSlots(ctx)
			s.metrics.Slots.Record(time.Since(start), err == nil, false)
			if err != nil || len(free) == 0 {
				continue
			}
			target := free[rng.Intn(len(free))]

			start = time.Now()
			ok, conflict, _ := s.book(ctx, gofakeit.Email(), target.StartTime)
			s.metrics.Booking.Record(time.Since(start), ok, conflict)

		default:
			id, ok := s.randomBooked(rng)
			if !ok {
				continue
			}
			start := time.Now()
			ok, conflict := s.cancel(ctx, id)
			s.metrics.Cancel.Record(time.Since(start), ok, conflict)
		}
	}
}

// ======================================================
// HTTP
// ======================================================

func (s *Simulator) fetchSlots(ctx context.Context) ([]slot, error) {
	q := url.Values{}
	q.Set("date", s.config.Date)
	q.Set("duration", strconv.Itoa(s.config.Minutes))
	q.Set("buffer", strconv.Itoa(s.config.Buffer))

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, s.config.APIBaseURL+"/api/slots?"+q.Encode(), nil)
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var body struct {
		Slots []slot `json:"slots"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.Slots, nil
}

func (s *Simulator) book(ctx context.Context, patient, startTime string) (success, conflict bool, err error) {
	body, _ := json.Marshal(map[string]any{
		"patient_key":      patient,
		"date":             s.config.Date,
		"start_time":       startTime,
		"duration_minutes": s.config.Minutes,
		"buffer_minutes":   s.config.Buffer,
		"service_name":     "cleaning",
	})

	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIBaseURL+"/api/appointments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.authorize(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return false, false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
		var ap struct {
			ID string `json:"id"`
		}
		raw, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(raw, &ap) == nil && ap.ID != "" {
			s.mu.Lock()
			s.booked = append(s.booked, ap.ID)
			s.mu.Unlock()
		}
		return true, false, nil
	case http.StatusConflict:
		return false, true, nil
	default:
		return false, false, fmt.Errorf("status %d", resp.StatusCode)
	}
}

func (s *Simulator) cancel(ctx context.Context, id string) (success, conflict bool) {
	body, _ := json.Marshal(map[string]string{
		"status": "cancelled",
		"reason": "patient_request",
	})

	req, _ := http.NewRequestWithContext(ctx, http.MethodPatch,
		fmt.Sprintf("%s/api/appointments/%s/status", s.config.APIBaseURL, id), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.authorize(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return false, false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK, resp.StatusCode == http.StatusConflict
}

func (s *Simulator) authorize(req *http.Request) {
	if s.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.config.Token)
	}
}

func (s *Simulator) randomBooked(rng *rand.Rand) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.booked) == 0 {
		return "", false
	}
	i := rng.Intn(len(s.booked))
	id := s.booked[i]
	s.booked = append(s.booked[:i], s.booked[i+1:]...)
	return id, true
}

// ======================================================
// REPORT
// ======================================================

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Date: %s  Window: %d+%d min\n", s.config.Date, s.config.Minutes, s.config.Buffer)
	fmt.Printf("Double-booked rounds: %d\n\n", atomic.LoadInt64(&s.doubleBooked))

	printOperationReport("Contended booking", &s.metrics.Contended, false)
	printOperationReport("Booking", &s.metrics.Booking, true)
	printOperationReport("Cancel", &s.metrics.Cancel, true)
	printOperationReport("Slots query", &s.metrics.Slots, true)
}

func printOperationReport(name string, om *OperationMetrics, latency bool) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	if latency {
		avg, p50, p95, max := om.Stats()
		fmt.Printf("  Latency: avg=%s p50=%s p95=%s max=%s\n",
			avg.Round(time.Millisecond), p50.Round(time.Millisecond),
			p95.Round(time.Millisecond), max.Round(time.Millisecond))
	}
	fmt.Println()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
