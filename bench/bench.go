package bench

import (
	"context"
	"fmt"
	"time"

	"github.com/zoobzio/fastpack"
)

// Codec is a codec under measurement.
type Codec struct {
	Name string
	fastpack.Codec
}

// Result is the measurement of one codec on one dataset.
type Result struct {
	Codec  string
	Pack   time.Duration // mean time per Marshal
	Unpack time.Duration // mean time per Unmarshal
	Size   int
}

// Report holds every codec's result for one dataset.
type Report struct {
	Dataset  string
	Extended bool
	Results  []Result
}

// Result returns the result recorded for codec.
func (r Report) Result(codec string) (Result, bool) {
	for _, res := range r.Results {
		if res.Codec == codec {
			return res, true
		}
	}
	return Result{}, false
}

// Reduction returns the size saving of candidate against baseline as a
// percentage.
func (r Report) Reduction(baseline, candidate string) (float64, bool) {
	base, ok := r.Result(baseline)
	if !ok || base.Size == 0 {
		return 0, false
	}
	cand, ok := r.Result(candidate)
	if !ok {
		return 0, false
	}
	return (1 - float64(cand.Size)/float64(base.Size)) * 100, true
}

// Measure times iterations of Marshal and Unmarshal of v with c.
func Measure(c Codec, v any, iterations int) (Result, error) {
	if iterations <= 0 {
		return Result{}, fmt.Errorf("bench: iterations must be positive, got %d", iterations)
	}

	data, err := c.Marshal(v)
	if err != nil {
		return Result{}, fmt.Errorf("%s marshal: %w", c.Name, err)
	}
	var out any
	if err := c.Unmarshal(data, &out); err != nil {
		return Result{}, fmt.Errorf("%s unmarshal: %w", c.Name, err)
	}

	start := time.Now()
	for i := 0; i < iterations; i++ {
		if _, err := c.Marshal(v); err != nil {
			return Result{}, fmt.Errorf("%s marshal: %w", c.Name, err)
		}
	}
	pack := time.Since(start) / time.Duration(iterations)

	start = time.Now()
	for i := 0; i < iterations; i++ {
		if err := c.Unmarshal(data, &out); err != nil {
			return Result{}, fmt.Errorf("%s unmarshal: %w", c.Name, err)
		}
	}
	unpack := time.Since(start) / time.Duration(iterations)

	return Result{Codec: c.Name, Pack: pack, Unpack: unpack, Size: len(data)}, nil
}

// Run measures every codec on every dataset. It stops early when ctx is
// cancelled.
func Run(ctx context.Context, datasets []Dataset, codecs []Codec, iterations int) ([]Report, error) {
	reports := make([]Report, 0, len(datasets))
	for _, d := range datasets {
		report := Report{Dataset: d.Name, Extended: d.Extended}
		for _, c := range codecs {
			if err := ctx.Err(); err != nil {
				return reports, err
			}
			res, err := Measure(c, d.Value, iterations)
			if err != nil {
				return reports, fmt.Errorf("dataset %s: %w", d.Name, err)
			}
			report.Results = append(report.Results, res)
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// StreamResult is the measurement of PackMany and UnpackMany.
type StreamResult struct {
	Count  int
	Pack   time.Duration
	Unpack time.Duration
	Size   int
}

// MeasureStream times PackMany and UnpackMany of values with p.
func MeasureStream(p *fastpack.Processor, values []any, iterations int) (StreamResult, error) {
	if iterations <= 0 {
		return StreamResult{}, fmt.Errorf("bench: iterations must be positive, got %d", iterations)
	}

	data, err := p.PackMany(values)
	if err != nil {
		return StreamResult{}, err
	}

	start := time.Now()
	for i := 0; i < iterations; i++ {
		if _, err := p.PackMany(values); err != nil {
			return StreamResult{}, err
		}
	}
	pack := time.Since(start) / time.Duration(iterations)

	start = time.Now()
	for i := 0; i < iterations; i++ {
		if _, err := p.UnpackMany(data); err != nil {
			return StreamResult{}, err
		}
	}
	unpack := time.Since(start) / time.Duration(iterations)

	return StreamResult{Count: len(values), Pack: pack, Unpack: unpack, Size: len(data)}, nil
}
