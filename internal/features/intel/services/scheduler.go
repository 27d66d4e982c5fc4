package services

import (
	"context"
	"sync"
	"time"

	"ctifeed/internal/core"
)

// SchedulerService triggers periodic scans. Each cycle runs to completion
// before the next can start; the pipeline itself stays sequential.
type SchedulerService struct {
	ingest   *IngestService
	logger   *core.Logger
	interval time.Duration
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewSchedulerService creates a new scheduler service
func NewSchedulerService(ingest *IngestService, logger *core.Logger, interval time.Duration) *SchedulerService {
	return &SchedulerService{
		ingest:   ingest,
		logger:   logger,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the scheduler
func (s *SchedulerService) Start(ctx context.Context) error {
	s.logger.Info("Starting intel scan scheduler", "interval", s.interval)

	s.wg.Add(1)
	go s.updateLoop(ctx)

	return nil
}

// Stop gracefully stops the scheduler
func (s *SchedulerService) Stop(ctx context.Context) error {
	s.logger.Info("Stopping intel scan scheduler")
	close(s.stopChan)
	s.wg.Wait()
	return nil
}

func (s *SchedulerService) updateLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Initial scan on startup
	s.runScan(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler context cancelled")
			return
		case <-s.stopChan:
			s.logger.Info("Scheduler stop signal received")
			return
		case <-ticker.C:
			s.runScan(ctx)
		}
	}
}

func (s *SchedulerService) runScan(ctx context.Context) {
	summary, err := s.ingest.UpdateAll(ctx)
	if err != nil {
		s.logger.Error("Scheduled scan failed", "error", err)
		return
	}
	s.logger.Info("Scheduled scan finished", "sources", summary.SourcesProcessed, "new_articles", summary.NewArticles)
}
