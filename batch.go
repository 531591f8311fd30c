// This file is part of https://github.com/racingmars/go5250/
// Copyright 2025 by Matthew R. Wilson, licensed under the MIT license. See
// LICENSE in the project root for license information.

package go5250

import (
	"context"
	"encoding/csv"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DataRows reads a CSV data-row source (header row plus one row per
// workflow execution) per spec.md §6, returning each row as a
// column-name-keyed map ready for ${name} substitution.
func DataRows(r io.Reader) ([]map[string]string, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, &ConfigError{Reason: "reading CSV data rows", Err: err}
	}
	if len(records) == 0 {
		return nil, nil
	}
	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// RunResult pairs one batch execution's WorkflowResult with its
// run ID, wall-clock duration, and quality scores.
type RunResult struct {
	RunID    uuid.UUID
	Result   WorkflowResult
	Duration time.Duration
	Quality  RunQuality
}

// RunQuality holds the three quality scores spec.md §4.7 names for a
// single batch execution, each in [0,1].
type RunQuality struct {
	CorrectnessScore float64
	LatencyScore     float64
	IdempotencyScore float64
}

// BatchMetrics aggregates a batch run's per-execution results:
// success count, p50/p99 latency, and the mean of each run's quality
// scores, per spec.md §4.7.
type BatchMetrics struct {
	Total        int
	Succeeded    int
	Failed       int
	P50Latency   time.Duration
	P99Latency   time.Duration

	CorrectnessScore float64
	LatencyScore     float64
	IdempotencyScore float64

	Runs []RunResult
}

// RunBatch executes wf once per entry in rows, running up to
// concurrency executions at a time, and aggregates the results. Each
// execution gets its own Session (RunWorkflow dials fresh via its
// Login step) and its own run ID, so artifact files never collide.
func RunBatch(ctx context.Context, wf *Workflow, rows []map[string]string, concurrency int, sink ArtifactSink) BatchMetrics {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]RunResult, len(rows))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, row := range rows {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, row map[string]string) {
			defer wg.Done()
			defer func() { <-sem }()

			start := time.Now()
			res := RunWorkflow(ctx, wf, row, sink)
			results[i] = RunResult{RunID: res.RunID, Result: res, Duration: time.Since(start)}
		}(i, row)
	}
	wg.Wait()

	return summarize(rows, results, wf.Tolerances)
}

func summarize(rows []map[string]string, results []RunResult, tol Tolerances) BatchMetrics {
	m := BatchMetrics{Total: len(results), Runs: results}
	durations := make([]time.Duration, 0, len(results))

	idempotency := idempotencyScores(rows, results)
	for i := range results {
		r := &results[i]
		if r.Result.Success() {
			m.Succeeded++
		} else {
			m.Failed++
		}
		durations = append(durations, r.Duration)

		r.Quality = RunQuality{
			CorrectnessScore: correctnessScore(r.Result),
			LatencyScore:     latencyScore(r.Duration, tol),
			IdempotencyScore: idempotency[i],
		}
		m.CorrectnessScore += r.Quality.CorrectnessScore
		m.LatencyScore += r.Quality.LatencyScore
		m.IdempotencyScore += r.Quality.IdempotencyScore
	}
	if len(results) > 0 {
		n := float64(len(results))
		m.CorrectnessScore /= n
		m.LatencyScore /= n
		m.IdempotencyScore /= n
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	m.P50Latency = percentile(durations, 0.50)
	m.P99Latency = percentile(durations, 0.99)
	return m
}

// correctnessScore is the fraction of this run's Assert steps that
// passed, per spec.md §4.7's "correctness = field values match
// expectation". A run with no Assert steps scores 1.0.
func correctnessScore(res WorkflowResult) float64 {
	asserts, passed := 0, 0
	for _, sr := range res.StepResults {
		if sr.Action != ActionAssert {
			continue
		}
		asserts++
		if sr.Err == nil {
			passed++
		}
	}
	if asserts == 0 {
		return 1.0
	}
	return float64(passed) / float64(asserts)
}

// latencyScore reports 1.0 if d is within tol's MaxDurationMs, 0.0
// otherwise. A zero MaxDurationMs means no tolerance was configured,
// so every duration passes.
func latencyScore(d time.Duration, tol Tolerances) float64 {
	if tol.MaxDurationMs <= 0 || d.Milliseconds() <= int64(tol.MaxDurationMs) {
		return 1.0
	}
	return 0.0
}

// totalRetries sums the retries recorded across every step of a run.
func totalRetries(res WorkflowResult) int {
	n := 0
	for _, sr := range res.StepResults {
		n += sr.Retries
	}
	return n
}

// rowKey builds a stable identity for a data row so duplicate rows
// in a batch (the idempotence scenario of spec.md §8) can be matched
// back to the run that first used that data.
func rowKey(row map[string]string) string {
	var b strings.Builder
	for _, k := range sortedKeys(row) {
		if b.Len() > 0 {
			b.WriteByte(';')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(row[k])
	}
	return b.String()
}

// idempotencyScores implements spec.md §4.7's "idempotency = retries
// equal original": for each unique data row, the first run that uses
// it is the original (score 1.0); every later run with the same row
// scores 1.0 iff it required the same number of retries as the
// original, else 0.0. A run with no earlier duplicate is itself the
// original.
func idempotencyScores(rows []map[string]string, results []RunResult) []float64 {
	scores := make([]float64, len(results))
	originalRetries := make(map[string]int)
	seen := make(map[string]bool)
	for i, r := range results {
		var key string
		if i < len(rows) {
			key = rowKey(rows[i])
		}
		retries := totalRetries(r.Result)
		if !seen[key] {
			seen[key] = true
			originalRetries[key] = retries
			scores[i] = 1.0
			continue
		}
		if retries == originalRetries[key] {
			scores[i] = 1.0
		} else {
			scores[i] = 0.0
		}
	}
	return scores
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
