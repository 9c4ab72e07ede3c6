// Package feed replays historical yield-curve snapshots from a CSV file
// onto the bus topic, pacing messages by the timestamp deltas in the
// data so a recorded trading session plays back at a configurable
// multiple of real time.
package feed

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/riskdesk/fi-risk-engine/internal/tenor"
)

// maxPacingSleep caps the inter-row wait so a gap in the recording
// (overnight, weekend) doesn't stall the replay for hours.
const maxPacingSleep = 60 * time.Second

// Tick is one outbound curve snapshot, matching the consumer's wire
// shape.
type Tick struct {
	Timestamp int64              `json:"timestamp"`
	CurveDate string             `json:"curve_date"`
	CurveType string             `json:"curve_type"`
	Rates     map[string]float64 `json:"rates"`
}

// ParseTimestamp accepts the three timestamp formats seen in recorded
// curve files: RFC3339-style ISO, bare date, and unix epoch millis.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp %q", s)
}

// Replayer streams a CSV of curve snapshots as Ticks.
type Replayer struct {
	path        string
	replaySpeed float64
	loopForever bool
	log         zerolog.Logger

	// sleep is swapped out by tests to avoid real waits.
	sleep func(time.Duration)
}

// NewReplayer builds a Replayer over the CSV at path. replaySpeed 1.0
// is real time; higher is faster. With loopForever the replay restarts
// from the top when the file is exhausted.
func NewReplayer(path string, replaySpeed float64, loopForever bool, log zerolog.Logger) *Replayer {
	if replaySpeed <= 0 {
		replaySpeed = 1.0
	}
	return &Replayer{
		path:        path,
		replaySpeed: replaySpeed,
		loopForever: loopForever,
		log:         log.With().Str("component", "feed_replayer").Logger(),
		sleep:       time.Sleep,
	}
}

// Run reads the file row by row, emitting one Tick per row until the
// file (or, with loopForever, ctx) is exhausted. emit failures abort
// the replay.
func (r *Replayer) Run(ctx context.Context, emit func(Tick) error) error {
	iteration := 0
	for {
		iteration++
		r.log.Info().Int("iteration", iteration).Msg("starting data replay")

		count, err := r.replayOnce(ctx, emit)
		if err != nil {
			return err
		}
		r.log.Info().Int("rows", count).Msg("completed replay")

		if !r.loopForever || ctx.Err() != nil {
			return ctx.Err()
		}
		r.sleep(time.Second)
	}
}

func (r *Replayer) replayOnce(ctx context.Context, emit func(Tick) error) (int, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return 0, fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	tsIdx, ok := col["timestamp"]
	if !ok {
		return 0, fmt.Errorf("data file has no timestamp column")
	}

	var prev time.Time
	count := 0
	for {
		if ctx.Err() != nil {
			return count, nil
		}
		row, err := reader.Read()
		if err == io.EOF {
			return count, nil
		}
		if err != nil {
			r.log.Warn().Err(err).Msg("skipping unreadable row")
			continue
		}

		ts, err := ParseTimestamp(row[tsIdx])
		if err != nil {
			r.log.Warn().Err(err).Msg("skipping row with invalid timestamp")
			continue
		}

		if !prev.IsZero() {
			delta := ts.Sub(prev)
			if delta > 0 {
				wait := time.Duration(float64(delta) / r.replaySpeed)
				if wait > maxPacingSleep {
					wait = maxPacingSleep
				}
				if wait > time.Millisecond {
					r.sleep(wait)
				}
			}
		}

		if err := emit(r.buildTick(row, col, ts)); err != nil {
			return count, err
		}
		prev = ts
		count++
	}
}

// buildTick assembles the outbound message from one row: every
// recognized tenor column with a parseable value becomes a rate.
func (r *Replayer) buildTick(row []string, col map[string]int, ts time.Time) Tick {
	rates := make(map[string]float64)
	for _, t := range tenor.All {
		idx, ok := col[string(t)]
		if !ok || idx >= len(row) || row[idx] == "" {
			continue
		}
		v, err := strconv.ParseFloat(row[idx], 64)
		if err != nil {
			continue
		}
		rates[string(t)] = v
	}

	curveType := "USD_SOFR"
	if idx, ok := col["curve_type"]; ok && idx < len(row) && row[idx] != "" {
		curveType = row[idx]
	}

	return Tick{
		Timestamp: ts.UnixMilli(),
		CurveDate: ts.Format("2006-01-02"),
		CurveType: curveType,
		Rates:     rates,
	}
}
