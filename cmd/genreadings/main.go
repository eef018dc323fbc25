// Command genreadings generates a reproducible series of mock reading
// messages for local development and test fixtures. Conditions follow a
// smooth per-beach swell cycle so the engine produces believable status
// transitions instead of noise.
//
// Usage:
//
//	go run ./cmd/genreadings -beaches 1,2,3 -hours 24 -step 30m \
//	  -out testdata/readings.json
//
// With -publish the readings are also produced to the readings topic
// configured via KAFKA_BROKERS / KAFKA_READINGS_TOPIC.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
)

var baseDate = time.Date(2026, time.July, 14, 0, 0, 0, 0, time.UTC)

// readingMessage matches the wire format consumed by the engine's
// readings topic reader.
type readingMessage struct {
	BeachID       int64     `json:"beach_id"`
	Timestamp     time.Time `json:"ts"`
	Source        string    `json:"source"`
	WaveHeightFt  float64   `json:"wave_height_ft"`
	WavePeriodSec float64   `json:"wave_period_sec"`
	WindMph       float64   `json:"wind_mph"`
	WindDirDeg    float64   `json:"wind_dir_deg"`
	WaterTempF    float64   `json:"water_temp_f"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	beachList := flag.String("beaches", "1,2,3", "comma-separated beach IDs")
	hours := flag.Int("hours", 24, "hours of readings to generate")
	step := flag.Duration("step", 30*time.Minute, "interval between readings")
	out := flag.String("out", "", "output path for the JSON fixture")
	publish := flag.Bool("publish", false, "also produce to the readings topic")
	flag.Parse()

	if *out == "" && !*publish {
		flag.Usage()
		return fmt.Errorf("nothing to do: need -out and/or -publish")
	}

	beaches, err := parseBeachIDs(*beachList)
	if err != nil {
		return err
	}

	// Fixed clock keeps fixtures byte-identical across runs.
	clock := clockwork.NewFakeClockAt(baseDate)
	readings := generate(beaches, clock.Now(), *hours, *step)
	log.Printf("generated %d readings for %d beaches", len(readings), len(beaches))

	if *out != "" {
		if err := writeFixture(*out, readings); err != nil {
			return fmt.Errorf("writing fixture: %w", err)
		}
		log.Printf("wrote fixture: %s", *out)
	}

	if *publish {
		if err := publishReadings(readings); err != nil {
			return fmt.Errorf("publishing readings: %w", err)
		}
		log.Printf("published %d readings", len(readings))
	}
	return nil
}

func parseBeachIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid beach id %q", part)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no beach ids given")
	}
	return ids, nil
}

// generate builds one swell cycle per beach: wave height oscillates
// through the safe/caution/dangerous bands over roughly a day, phase
// shifted per beach, with wind loosely tracking the swell.
func generate(beaches []int64, start time.Time, hours int, step time.Duration) []readingMessage {
	var out []readingMessage
	end := start.Add(time.Duration(hours) * time.Hour)

	for _, beachID := range beaches {
		phase := float64(beachID) * 1.7
		for ts := start; ts.Before(end); ts = ts.Add(step) {
			t := ts.Sub(start).Hours()
			swell := math.Sin(2*math.Pi*t/26 + phase)

			out = append(out, readingMessage{
				BeachID:       beachID,
				Timestamp:     ts,
				Source:        "noaa",
				WaveHeightFt:  round1(4.0 + 3.5*swell),
				WavePeriodSec: round1(11 + 3*swell),
				WindMph:       round1(14 + 9*math.Sin(2*math.Pi*t/19+phase)),
				WindDirDeg:    round1(math.Mod(45+10*t+20*float64(beachID), 360)),
				WaterTempF:    round1(79 + 1.5*math.Sin(2*math.Pi*t/24)),
			})
		}
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func writeFixture(path string, readings []readingMessage) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(readings)
}

func publishReadings(readings []readingMessage) error {
	brokers := strings.Split(envOrDefault("KAFKA_BROKERS", "localhost:9092"), ",")
	topic := envOrDefault("KAFKA_READINGS_TOPIC", "beach-readings")

	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	defer w.Close()

	msgs := make([]kafkago.Message, len(readings))
	for i, r := range readings {
		data, err := json.Marshal(r)
		if err != nil {
			return err
		}
		msgs[i] = kafkago.Message{
			Key:   []byte(strconv.FormatInt(r.BeachID, 10)),
			Value: data,
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return w.WriteMessages(ctx, msgs...)
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
