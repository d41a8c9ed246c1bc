package simulation

import (
	"fmt"
	"sync"

	"github.com/yourusername/market-lens/internal/metrics"
	"github.com/yourusername/market-lens/internal/models"
)

// TickerJob is one ticker's input to a parallel evaluation pass
type TickerJob struct {
	Ticker string
	Bars   models.PriceSeries
	Fund   models.Fundamentals
}

// TickerResult is the outcome of evaluating one ticker. A non-nil Err means
// the ticker is excluded from aggregates; it never fails the whole run.
type TickerResult struct {
	Ticker string
	Value  any
	Err    error
}

// RunTickerJobs fans jobs out across a bounded worker pool. Tickers share no
// mutable state during the pass, so the only coordination is the job feed and
// the result join. Result order matches job order. A panic inside fn is
// captured as that ticker's error.
func RunTickerJobs(jobs []TickerJob, workers int, fn func(TickerJob) (any, error)) []TickerResult {
	if workers <= 0 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	results := make([]TickerResult, len(jobs))
	indexes := make(chan int, len(jobs))
	for i := range jobs {
		indexes <- i
	}
	close(indexes)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				job := jobs[i]
				value, err := runOne(job, fn)
				if err != nil {
					metrics.ScannerErrorsTotal.Inc()
				}
				results[i] = TickerResult{Ticker: job.Ticker, Value: value, Err: err}
			}
		}()
	}
	wg.Wait()
	return results
}

func runOne(job TickerJob, fn func(TickerJob) (any, error)) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scanner panic on %s: %v", job.Ticker, r)
		}
	}()
	return fn(job)
}
