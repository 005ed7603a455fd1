package scheduler

import (
	"context"
	"time"

	"github.com/booktime/booktime-backend/internal/app/service"
	"github.com/booktime/booktime-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// BasketPurger is the part of the basket service the scheduler drives.
type BasketPurger interface {
	PurgeAbandoned(ctx context.Context, olderThan time.Duration) (int64, error)
}

var _ BasketPurger = service.BasketService(nil)

// BasketScheduler deletes anonymous baskets nobody touched for a while.
type BasketScheduler struct {
	cron      *cron.Cron
	purger    BasketPurger
	spec      string
	olderThan time.Duration
}

// NewBasketScheduler takes a standard five-field cron spec, e.g.
// "0 3 * * *" for daily at 03:00.
func NewBasketScheduler(purger BasketPurger, spec string, olderThan time.Duration) *BasketScheduler {
	return &BasketScheduler{
		cron:      cron.New(),
		purger:    purger,
		spec:      spec,
		olderThan: olderThan,
	}
}

func (s *BasketScheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, s.Purge)
	if err != nil {
		logger.Error("Failed to add cron job for basket purge", err, map[string]interface{}{
			"spec": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Basket purge scheduler started", map[string]interface{}{
		"spec":       s.spec,
		"older_than": s.olderThan.String(),
	})
	return nil
}

// Purge runs one purge pass.
func (s *BasketScheduler) Purge() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := s.purger.PurgeAbandoned(ctx, s.olderThan)
	if err != nil {
		logger.Error("Failed to purge abandoned baskets", err)
		return
	}
	logger.Info("Purged abandoned baskets", map[string]interface{}{
		"removed": removed,
	})
}

// Stop waits for a running purge to finish.
func (s *BasketScheduler) Stop() {
	<-s.cron.Stop().Done()
	logger.Info("Basket purge scheduler stopped")
}
