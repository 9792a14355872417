// Package loadgen drives a running bookability server with synthetic DJs and
// checks every answer against the local scoring engine.
package loadgen

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/bookability/internal/apiclient"
	"github.com/okian/bookability/pkg/logger"
)

var (
	// ErrVerification is returned with the report when any check failed.
	ErrVerification = errors.New("verification failed")

	// ErrDrainTimeout is returned when the server queue did not empty in time.
	ErrDrainTimeout = errors.New("queue did not drain")
)

// submission addresses one snapshot of one plan.
type submission struct {
	plan, snap int
}

// Run generates cfg.DJs DJs, submits their snapshots concurrently and out of
// order, waits for the server to evaluate them and verifies the results.
func Run(ctx context.Context, cfg Config) (*Report, error) {
	cfg = cfg.withDefaults()
	log := logger.Get().Named("loadgen")
	client := apiclient.New(cfg.BaseURL, cfg.Timeout)
	start := time.Now()

	log.Info(ctx, "starting bookability load test",
		logger.String("base_url", cfg.BaseURL),
		logger.Int("djs", cfg.DJs),
		logger.Int("snapshots_per_dj", cfg.SnapshotsPerDJ),
		logger.Int("workers", cfg.Workers),
		logger.Uint64("seed", cfg.Seed),
	)

	if err := client.Health(ctx); err != nil {
		return nil, fmt.Errorf("service health check: %w", err)
	}
	before, err := client.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("read stats: %w", err)
	}

	rep := &Report{Seed: cfg.Seed, DJs: cfg.DJs, ByProfile: make(map[string]int)}
	gen := NewGenerator(cfg.Seed, start.Add(-time.Duration(cfg.SnapshotsPerDJ)*time.Hour))
	plans := make([]Plan, cfg.DJs)
	accepted := make([][]bool, cfg.DJs)
	work := make([]submission, 0, cfg.DJs*cfg.SnapshotsPerDJ)
	for p := range plans {
		plans[p] = gen.Plan(cfg.SnapshotsPerDJ)
		accepted[p] = make([]bool, cfg.SnapshotsPerDJ)
		rep.ByProfile[plans[p].Profile]++
		for s := range cfg.SnapshotsPerDJ {
			work = append(work, submission{plan: p, snap: s})
		}
	}
	gen.Shuffle(len(work), func(i, j int) { work[i], work[j] = work[j], work[i] })
	rep.Generated = len(work)

	// Phase 1: submit.
	var nAccepted, nRetries, nFailed atomic.Int64
	forEach(ctx, cfg.Workers, len(work), func(i int) {
		w := work[i]
		_, retries, err := submit(ctx, client, plans[w.plan].Snapshots[w.snap])
		nRetries.Add(int64(retries))
		if err != nil {
			nFailed.Add(1)
			log.Debug(ctx, "snapshot submission failed", logger.Error(err))
			return
		}
		accepted[w.plan][w.snap] = true // each element has a single writer
		nAccepted.Add(1)
	})
	rep.Accepted = int(nAccepted.Load())
	rep.Retries = int(nRetries.Load())
	rep.Failed = int(nFailed.Load())
	log.Info(ctx, "snapshots submitted",
		logger.Int("accepted", rep.Accepted),
		logger.Int("failed", rep.Failed),
		logger.Int("retries", rep.Retries),
	)

	var (
		mu      sync.Mutex
		samples []Mismatch
		total   int
	)
	report := func(m ...Mismatch) {
		mu.Lock()
		defer mu.Unlock()
		total += len(m)
		for _, x := range m {
			if len(samples) < maxReportedMismatches {
				samples = append(samples, x)
			}
		}
	}

	// Phase 2: resubmit a few ids; every one must be reported duplicate.
	if cfg.DuplicateEvery > 0 {
		var nDup atomic.Int64
		forEach(ctx, cfg.Workers, len(plans)/cfg.DuplicateEvery, func(i int) {
			p := i * cfg.DuplicateEvery
			idx := firstAccepted(accepted[p])
			if idx < 0 {
				return
			}
			ack, _, err := submit(ctx, client, plans[p].Snapshots[idx])
			switch {
			case err != nil:
				report(Mismatch{DJID: plans[p].DJID, Field: "duplicate", Expected: "200 duplicate", Actual: err.Error()})
			case !ack.Duplicate:
				report(Mismatch{DJID: plans[p].DJID, Field: "duplicate", Expected: "duplicate", Actual: ack.Status})
			default:
				nDup.Add(1)
			}
		})
		rep.Duplicates = int(nDup.Load())
	}

	// Phase 3: wait until every accepted snapshot was evaluated.
	if err := waitForDrain(ctx, client, before.Processed+int64(rep.Accepted), cfg.DrainTimeout); err != nil {
		return rep, err
	}

	// Phase 4: verify every DJ and the leaderboard.
	var nVerified atomic.Int64
	forEach(ctx, cfg.Workers, len(plans), func(p int) {
		want, ok := latestAccepted(plans[p], accepted[p])
		if !ok {
			return
		}
		got, err := client.DJ(ctx, plans[p].DJID)
		if err != nil {
			report(Mismatch{DJID: plans[p].DJID, Field: "fetch", Expected: "200", Actual: err.Error()})
			return
		}
		if m := compareEntry(want, got); len(m) > 0 {
			report(m...)
			return
		}
		nVerified.Add(1)
	})
	rep.Verified = int(nVerified.Load())

	board, err := client.Leaderboard(ctx, cfg.TopN)
	if err != nil {
		return rep, fmt.Errorf("fetch leaderboard: %w", err)
	}
	rep.LeaderboardEntries = len(board)
	report(checkLeaderboard(board)...)

	rep.Duration = time.Since(start)
	if secs := rep.Duration.Seconds(); secs > 0 {
		rep.SnapshotsPerSecond = float64(rep.Accepted) / secs
	}
	rep.Mismatches = total
	rep.Samples = samples

	log.Info(ctx, "load test finished",
		logger.Int("verified", rep.Verified),
		logger.Int("mismatches", rep.Mismatches),
		logger.Int("duplicates", rep.Duplicates),
		logger.Duration("duration", rep.Duration),
		logger.Float64("snapshots_per_second", rep.SnapshotsPerSecond),
	)
	if rep.Mismatches > 0 {
		return rep, fmt.Errorf("%w: %d mismatches", ErrVerification, rep.Mismatches)
	}
	if err := ctx.Err(); err != nil {
		return rep, err
	}
	return rep, nil
}

// submit posts req, retrying backpressure and rate limit answers.
func submit(ctx context.Context, c *apiclient.Client, req apiclient.SnapshotRequest) (apiclient.Ack, int, error) {
	for attempt := 1; ; attempt++ {
		ack, err := c.Submit(ctx, req)
		if err == nil {
			return ack, attempt - 1, nil
		}
		var se *apiclient.StatusError
		if !errors.As(err, &se) || !se.Retryable() || attempt >= maxSubmitAttempts {
			return ack, attempt - 1, err
		}
		select {
		case <-ctx.Done():
			return ack, attempt - 1, ctx.Err()
		case <-time.After(time.Duration(attempt) * retryBackoff):
		}
	}
}

// waitForDrain polls /stats until the queue is empty and processed reaches target.
func waitForDrain(ctx context.Context, c *apiclient.Client, target int64, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(drainPollInterval)
	defer ticker.Stop()
	for {
		st, err := c.Stats(ctx)
		if err == nil && st.QueueLength == 0 && st.Processed >= target {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w after %s (processed target %d)", ErrDrainTimeout, timeout, target)
		case <-ticker.C:
		}
	}
}

// forEach calls fn(0..n-1) from up to workers goroutines and stops feeding
// indices once ctx is done.
func forEach(ctx context.Context, workers, n int, fn func(i int)) {
	idx := make(chan int, workers*2)
	var wg sync.WaitGroup
	for range min(workers, n) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				fn(i)
			}
		}()
	}

feed:
	for i := range n {
		select {
		case <-ctx.Done():
			break feed
		case idx <- i:
		}
	}
	close(idx)
	wg.Wait()
}
