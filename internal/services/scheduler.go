package services

import (
	"context"
	"sync"

	"nft-marketplace/internal/domain"
	"nft-marketplace/pkg/logger"

	"github.com/robfig/cron/v3"
)

// StatusSweeper periodically ends expired auctions in the background. Only the instance
// holding the leader lease runs the sweep; reads still refresh lazily on every instance.
type StatusSweeper struct {
	cron           *cron.Cron
	spec           string
	auctionMgr     *AuctionManager
	leaderElection domain.LeaderElection
	instanceID     string
	log            logger.Logger

	mu     sync.Mutex
	leader bool
}

func NewStatusSweeper(spec string, auctionMgr *AuctionManager, leaderElection domain.LeaderElection,
	instanceID string, log logger.Logger) *StatusSweeper {
	return &StatusSweeper{
		cron:           cron.New(cron.WithSeconds()),
		spec:           spec,
		auctionMgr:     auctionMgr,
		leaderElection: leaderElection,
		instanceID:     instanceID,
		log:            log,
	}
}

func (s *StatusSweeper) Start(ctx context.Context) error {
	s.log.Info("Starting status sweeper", "spec", s.spec, "instance_id", s.instanceID)

	_, err := s.cron.AddFunc(s.spec, func() {
		s.Sweep(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits for a running sweep and gives up the lease if this instance held it.
func (s *StatusSweeper) Stop(ctx context.Context) error {
	s.log.Info("Stopping status sweeper")
	<-s.cron.Stop().Done()

	s.mu.Lock()
	wasLeader := s.leader
	s.leader = false
	s.mu.Unlock()

	if wasLeader && s.leaderElection != nil {
		return s.leaderElection.ReleaseLeadership(ctx, s.instanceID)
	}
	return nil
}

// Sweep runs one pass. It reports whether this instance was leader.
func (s *StatusSweeper) Sweep(ctx context.Context) bool {
	if s.leaderElection != nil {
		isLeader, err := s.leaderElection.BecomeLeader(ctx, s.instanceID)
		if err != nil {
			s.log.Error("Leader election failed", "error", err)
			return false
		}

		s.mu.Lock()
		changed := s.leader != isLeader
		s.leader = isLeader
		s.mu.Unlock()
		if changed {
			s.log.Info("Sweeper leadership changed", "instance_id", s.instanceID, "leader", isLeader)
		}
		if !isLeader {
			return false
		}
	}

	if _, err := s.auctionMgr.RefreshExpired(ctx); err != nil {
		s.log.Error("Status sweep failed", "error", err)
	}
	return true
}
