// Package replay feeds recorded price samples back through the indicator
// tracker and the trade decision engine, for offline backtests.
package replay

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/abhay-codes07/dream-trade-bot/internal/model"
)

// MaxGap caps the sleep between two samples at any speed.
const MaxGap = 5 * time.Second

// Load parses CSV rows of "timestamp,symbol,price". Timestamps are RFC 3339
// or Unix seconds. A header row and blank lines are skipped. The result is
// sorted by time.
func Load(r io.Reader) ([]model.PriceSample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	var out []model.PriceSample
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("replay: %w", err)
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "timestamp") {
			continue
		}
		s, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("replay: line %d: %w", line, err)
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TS.Before(out[j].TS) })
	return out, nil
}

func parseRow(rec []string) (model.PriceSample, error) {
	ts, err := parseTime(strings.TrimSpace(rec[0]))
	if err != nil {
		return model.PriceSample{}, err
	}
	symbol := strings.TrimSpace(rec[1])
	if symbol == "" {
		return model.PriceSample{}, errors.New("empty symbol")
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
	if err != nil {
		return model.PriceSample{}, fmt.Errorf("price %q: %w", rec[2], err)
	}
	return model.PriceSample{Symbol: symbol, Price: price, TS: ts.UTC()}, nil
}

func parseTime(s string) (time.Time, error) {
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q: %w", s, err)
	}
	return t, nil
}

// Stream emits samples into out, honouring the recorded gaps scaled by
// speed (1 = real time, 10 = 10x, 0 = as fast as possible). It closes out
// when done.
func Stream(ctx context.Context, samples []model.PriceSample, speed float64, out chan<- model.PriceSample) error {
	defer close(out)

	var prev time.Time
	emitted := 0
	for _, s := range samples {
		if speed > 0 && !prev.IsZero() {
			if gap := s.TS.Sub(prev); gap > 0 {
				wait := time.Duration(float64(gap) / speed)
				if wait > MaxGap {
					wait = MaxGap
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(wait):
				}
			}
		}
		prev = s.TS

		select {
		case out <- s:
			emitted++
		case <-ctx.Done():
			log.Printf("[replay] cancelled after %d samples", emitted)
			return ctx.Err()
		}
	}
	log.Printf("[replay] completed: %d samples replayed", emitted)
	return nil
}
