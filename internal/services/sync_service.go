package services

import (
	"context"
	"sync"
	"time"

	"nft-marketplace/internal/domain"
	"nft-marketplace/pkg/logger"

	"github.com/pkg/errors"
)

// SyncService supervises the chain indexer so it can be started and stopped at runtime.
type SyncService struct {
	indexer domain.ChainIndexer
	log     logger.Logger
	now     func() time.Time

	mu     sync.Mutex
	status domain.SyncStatus
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSyncService(indexer domain.ChainIndexer, log logger.Logger) *SyncService {
	return &SyncService{
		indexer: indexer,
		log:     log,
		now:     time.Now,
	}
}

// Start launches the indexer on a context derived from parent, not from the caller's request.
func (s *SyncService) Start(parent context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status.Running {
		return domain.ErrSyncAlreadyRunning
	}

	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	startedAt := s.now()

	s.cancel = cancel
	s.done = done
	s.status.Running = true
	s.status.LastError = ""
	s.status.StartedAt = &startedAt
	s.status.StoppedAt = nil

	go s.run(ctx, done)

	s.log.Info("Sync service started")
	return nil
}

func (s *SyncService) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	err := s.indexer.Run(ctx, func(block uint64) {
		s.mu.Lock()
		s.status.LastIndexedBlock = block
		s.mu.Unlock()
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	stoppedAt := s.now()
	s.status.Running = false
	s.status.StoppedAt = &stoppedAt
	if err != nil && !errors.Is(err, context.Canceled) {
		s.status.LastError = err.Error()
		s.log.Error("Sync service exited", "error", err)
	}
}

// Stop cancels the indexer and waits for it to exit or for ctx to expire.
func (s *SyncService) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.status.Running {
		s.mu.Unlock()
		return domain.ErrSyncNotRunning
	}
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	select {
	case <-done:
		s.log.Info("Sync service stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SyncService) Status() domain.SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Wait blocks until the current run exits. It returns immediately when nothing is running.
func (s *SyncService) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}
