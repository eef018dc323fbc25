package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/beach-status-engine/internal/domain"
)

func TestSerializeAlert(t *testing.T) {
	at := time.Date(2026, 7, 14, 12, 15, 0, 0, time.UTC)
	event := domain.AlertEvent{
		ID:      "evt-1",
		BeachID: 12,
		RuleID:  "rule-7",
		From:    domain.StatusSafe,
		To:      domain.StatusDangerous,
		At:      at,
	}

	msg, err := serializeAlert(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("12"), msg.Key)
	assert.Contains(t, string(msg.Value), `"from":"safe"`)
	assert.Contains(t, string(msg.Value), `"to":"dangerous"`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "rule_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("rule-7"), msg.Headers[0].Value)
	assert.Equal(t, "emitted_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(at.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestDecodeReading(t *testing.T) {
	payload := []byte(`{
		"beach_id": 3,
		"ts": "2026-07-14T12:00:00Z",
		"source": "noaa",
		"wave_height_ft": 4.5,
		"wind_mph": 12,
		"water_temp_f": 78.2
	}`)

	reading, err := decodeReading(payload)
	require.NoError(t, err)

	assert.Equal(t, int64(3), reading.BeachID)
	assert.Equal(t, time.Date(2026, 7, 14, 12, 0, 0, 0, time.UTC), reading.Timestamp)
	assert.Equal(t, "noaa", reading.Source)
	assert.Equal(t, map[domain.Metric]float64{
		domain.MetricWaveHeightFt: 4.5,
		domain.MetricWindMph:      12,
		domain.MetricWaterTempF:   78.2,
	}, reading.Values)
}

func TestDecodeReading_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", `not-json`},
		{"missing beach_id", `{"ts":"2026-07-14T12:00:00Z","source":"noaa","wind_mph":5}`},
		{"missing ts", `{"beach_id":1,"source":"noaa","wind_mph":5}`},
		{"missing source", `{"beach_id":1,"ts":"2026-07-14T12:00:00Z","wind_mph":5}`},
		{"no metrics", `{"beach_id":1,"ts":"2026-07-14T12:00:00Z","source":"noaa"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeReading([]byte(tt.payload))
			assert.Error(t, err)
		})
	}
}
