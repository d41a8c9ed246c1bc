package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/market-lens/internal/service"
)

// Scheduler manages scheduled market data refresh jobs
type Scheduler struct {
	cron         *cron.Cron
	ingestionSvc *service.IngestionService
	data         *service.MarketDataService
	logger       logrus.FieldLogger
	mu           sync.RWMutex
	isRunning    bool
	jobIDs       []cron.EntryID
}

// NewScheduler creates a new scheduler
func NewScheduler(ingestionSvc *service.IngestionService, data *service.MarketDataService, logger logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		cron:         cron.New(cron.WithLocation(time.UTC)),
		ingestionSvc: ingestionSvc,
		data:         data,
		logger:       logger,
		jobIDs:       make([]cron.EntryID, 0),
	}
}

// ScheduleNightlyRefresh schedules the after-close bar refresh. Every active
// universe symbol fetches the gap since its latest stored bar.
func (s *Scheduler) ScheduleNightlyRefresh(cronExpression, sourceName string, lookbackYears int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}
	if lookbackYears <= 0 {
		lookbackYears = 2
	}

	jobFunc := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 4*time.Hour)
		defer cancel()

		symbols, err := s.data.ActiveSymbols(ctx)
		if err != nil {
			s.logger.WithField("error", err.Error()).Error("Nightly refresh: failed to list universe")
			return
		}

		endDate := time.Now().UTC()
		startDate := endDate.AddDate(-lookbackYears, 0, 0)

		s.logger.WithFields(logrus.Fields{
			"source":  sourceName,
			"tickers": len(symbols),
		}).Info("Starting nightly bar refresh")

		metrics, err := s.ingestionSvc.IngestHistory(ctx, sourceName, symbols, startDate, endDate)
		if err != nil {
			s.logger.WithField("error", err.Error()).Error("Nightly refresh failed")
			return
		}

		for _, symbol := range symbols {
			s.data.InvalidateTicker(symbol)
		}
		s.logger.WithField("summary", metrics.String()).Info("Nightly refresh complete")
	}

	entryID, err := s.cron.AddFunc(cronExpression, jobFunc)
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithField("cron", cronExpression).Info("Scheduled nightly bar refresh")

	return nil
}

// ScheduleUniverseRefresh schedules the listing universe resync
func (s *Scheduler) ScheduleUniverseRefresh(cronExpression, sourceName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	jobFunc := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		count, err := s.ingestionSvc.RefreshUniverse(ctx, sourceName)
		if err != nil {
			s.logger.WithField("error", err.Error()).Error("Universe refresh failed")
			return
		}
		s.logger.WithField("tickers", count).Info("Universe refresh complete")
	}

	entryID, err := s.cron.AddFunc(cronExpression, jobFunc)
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithField("cron", cronExpression).Info("Scheduled universe refresh")

	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	<-s.cron.Stop().Done()
	s.isRunning = false
	s.logger.Info("Scheduler stopped")

	return nil
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			if nextRun.IsZero() || entry.Next.Before(nextRun) {
				nextRun = entry.Next
			}
		}
	}

	return nextRun
}

// Entries returns information about scheduled entries
func (s *Scheduler) Entries() []cron.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]cron.Entry, 0, len(s.jobIDs))
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			entries = append(entries, entry)
		}
	}

	return entries
}
