// Command validate replays a readings fixture through the status
// determination pipeline and checks engine invariants offline: threshold
// banding, snapshot idempotence, and transition coherence. It is the
// pre-flight check for fixtures produced by genreadings.
//
// Usage:
//
//	go run ./cmd/validate -readings testdata/readings.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/couchcryptid/beach-status-engine/internal/domain"
	"github.com/couchcryptid/beach-status-engine/internal/engine"
	"github.com/couchcryptid/beach-status-engine/internal/observability"
	"github.com/couchcryptid/beach-status-engine/internal/store/memory"
)

// readingFixture matches the genreadings output format.
type readingFixture struct {
	BeachID       int64     `json:"beach_id"`
	Timestamp     time.Time `json:"ts"`
	Source        string    `json:"source"`
	WaveHeightFt  float64   `json:"wave_height_ft"`
	WavePeriodSec float64   `json:"wave_period_sec"`
	WindMph       float64   `json:"wind_mph"`
	WindDirDeg    float64   `json:"wind_dir_deg"`
	WaterTempF    float64   `json:"water_temp_f"`
}

func (f readingFixture) toDomain() domain.Reading {
	return domain.Reading{
		BeachID:   f.BeachID,
		Timestamp: f.Timestamp,
		Source:    f.Source,
		Values: map[domain.Metric]float64{
			domain.MetricWaveHeightFt:  f.WaveHeightFt,
			domain.MetricWavePeriodSec: f.WavePeriodSec,
			domain.MetricWindMph:       f.WindMph,
			domain.MetricWindDirDeg:    f.WindDirDeg,
			domain.MetricWaterTempF:    f.WaterTempF,
		},
	}
}

// phase tracks pass/fail for one validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	readingsPath := flag.String("readings", "", "path to the readings fixture JSON")
	flag.Parse()

	if *readingsPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*readingsPath); code != 0 {
		os.Exit(code)
	}
}

func run(readingsPath string) int {
	fmt.Println("=== Beach Status Fixture Validation ===")
	fmt.Println()

	fixtures, err := loadFixture(readingsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load readings fixture: %v\n", err)
		return 1
	}
	fmt.Printf("Loaded %d readings\n", len(fixtures))

	phases := []*phase{
		validateFixture(fixtures),
		validateBanding(fixtures),
		validateReplay(fixtures),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadFixture(path string) ([]readingFixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fixtures []readingFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return nil, err
	}
	return fixtures, nil
}

// validateFixture checks the raw fixture for structural problems.
func validateFixture(fixtures []readingFixture) *phase {
	p := &phase{name: "fixture integrity"}

	seen := make(map[string]bool)
	for i, f := range fixtures {
		if f.BeachID <= 0 {
			p.errorf("reading %d: non-positive beach_id %d", i, f.BeachID)
		}
		if f.Timestamp.IsZero() {
			p.errorf("reading %d: zero timestamp", i)
		}
		if f.Source == "" {
			p.errorf("reading %d: empty source", i)
		}
		if f.WaveHeightFt < 0 || f.WaveHeightFt > 60 {
			p.errorf("reading %d: implausible wave height %.1f ft", i, f.WaveHeightFt)
		}
		if f.WindMph < 0 || f.WindMph > 200 {
			p.errorf("reading %d: implausible wind %.1f mph", i, f.WindMph)
		}

		key := fmt.Sprintf("%d|%d|%s", f.BeachID, f.Timestamp.UnixNano(), f.Source)
		if seen[key] {
			p.errorf("reading %d: duplicate (beach, ts, source) %s", i, key)
		}
		seen[key] = true
	}
	return p
}

// validateBanding recomputes the threshold band for every reading and
// checks monotonicity: a reading with higher wave and wind than another
// can never classify as less severe.
func validateBanding(fixtures []readingFixture) *phase {
	p := &phase{name: "threshold banding"}
	thresholds := domain.DefaultThresholds

	for i, f := range fixtures {
		cond := domain.Conditions{
			AsOf: f.Timestamp,
			Values: map[domain.Metric]domain.Observation{
				domain.MetricWaveHeightFt: {Value: f.WaveHeightFt, Source: f.Source, ObservedAt: f.Timestamp},
				domain.MetricWindMph:      {Value: f.WindMph, Source: f.Source, ObservedAt: f.Timestamp},
			},
		}
		det := domain.EvaluateThresholds(cond, thresholds)

		if !det.Status.Valid() {
			p.errorf("reading %d: invalid status %q", i, det.Status)
			continue
		}
		if f.WaveHeightFt > thresholds.WaveCautionMax && det.Status != domain.StatusDangerous {
			p.errorf("reading %d: wave %.1f above caution-max but status %s", i, f.WaveHeightFt, det.Status)
		}
		if f.WaveHeightFt <= thresholds.WaveSafeMax && f.WindMph <= thresholds.WindSafeMax && det.Status != domain.StatusSafe {
			p.errorf("reading %d: conditions in safe band but status %s", i, det.Status)
		}
	}
	return p
}

// validateReplay runs the full compiler over the fixture chronologically
// and checks snapshot idempotence and transition chaining.
func validateReplay(fixtures []readingFixture) *phase {
	p := &phase{name: "pipeline replay"}
	ctx := context.Background()

	s := memory.New()
	beaches := make(map[int64]domain.Beach)
	timestamps := make(map[int64][]time.Time)
	for _, f := range fixtures {
		if err := s.Readings.RecordReading(ctx, f.toDomain()); err != nil {
			p.errorf("record reading: %v", err)
			return p
		}
		if _, ok := beaches[f.BeachID]; !ok {
			beaches[f.BeachID] = domain.Beach{ID: f.BeachID, Slug: fmt.Sprintf("beach-%d", f.BeachID), Active: true}
		}
		timestamps[f.BeachID] = append(timestamps[f.BeachID], f.Timestamp)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	compiler := engine.NewCompiler(
		s.Readings, s.Advisories, s.Overrides, s.Snapshots,
		nil, time.Hour, domain.DefaultSourcePrecedence, logger,
		observability.NewMetricsForTesting(),
	)

	for beachID, beach := range beaches {
		ts := timestamps[beachID]
		sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })

		prior := domain.StatusUnknown
		for _, at := range ts {
			snap, transition, err := compiler.Compute(ctx, beach, at)
			if err != nil {
				p.errorf("beach %d at %s: compute: %v", beachID, at, err)
				continue
			}
			if transition != nil {
				if transition.From != prior {
					p.errorf("beach %d at %s: transition from %s, expected %s", beachID, at, transition.From, prior)
				}
				if transition.From == transition.To {
					p.errorf("beach %d at %s: self-transition %s", beachID, at, transition.To)
				}
			}
			prior = snap.Status

			// Recompute the same instant: must be a silent no-op.
			if _, retransition, err := compiler.Compute(ctx, beach, at); err != nil {
				p.errorf("beach %d at %s: recompute errored: %v", beachID, at, err)
			} else if retransition != nil {
				p.errorf("beach %d at %s: recompute re-emitted a transition", beachID, at)
			}
		}

		if got, want := s.Snapshots.Count(beachID), len(ts); got != want {
			p.errorf("beach %d: %d snapshots for %d computations", beachID, got, want)
		}
	}
	return p
}
