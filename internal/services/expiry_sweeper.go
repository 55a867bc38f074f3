package services

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"sourcing-system/internal/domain"
	"sourcing-system/pkg/logger"
)

// ExpirySweeper periodically re-evaluates RFQ expiry dates against the wall
// clock and expires overdue published RFQs, emitting the same rfq.updated
// cascade a direct status change would. Only the leader instance sweeps, so
// multiple replicas don't race each other.
type ExpirySweeper struct {
	cron           *cron.Cron
	coordinator    *RfqCoordinator
	leaderElection domain.LeaderElection
	instanceID     string
	log            logger.Logger
}

func NewExpirySweeper(coordinator *RfqCoordinator, leaderElection domain.LeaderElection, instanceID string, log logger.Logger) *ExpirySweeper {
	return &ExpirySweeper{
		cron:           cron.New(),
		coordinator:    coordinator,
		leaderElection: leaderElection,
		instanceID:     instanceID,
		log:            log,
	}
}

func (s *ExpirySweeper) Start(ctx context.Context, interval string) error {
	s.log.Info("Starting expiry sweeper", "interval", interval)

	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		s.sweep(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *ExpirySweeper) Stop() error {
	s.log.Info("Stopping expiry sweeper")
	s.cron.Stop()
	return nil
}

func (s *ExpirySweeper) sweep(ctx context.Context) {
	isLeader, err := s.leaderElection.IsLeader(ctx, s.instanceID)
	if err != nil {
		s.log.Error("Failed to check leadership", "error", err)
		return
	}
	if !isLeader {
		return
	}

	if err := s.coordinator.ExpireOverdueRfqs(ctx); err != nil {
		s.log.Error("Expiry sweep failed", "error", err)
	}
}
