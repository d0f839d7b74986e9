package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// WorkerService runs periodic housekeeping for the intake form
type WorkerService struct {
	reservations *ReservationService
	interval     time.Duration
	logger       *zap.Logger
}

func NewWorkerService(reservations *ReservationService, interval time.Duration, logger *zap.Logger) *WorkerService {
	return &WorkerService{
		reservations: reservations,
		interval:     interval,
		logger:       logger,
	}
}

// Start sweeps expired sample number reservations until ctx is cancelled
func (w *WorkerService) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("reservation sweeper started", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reservation sweeper stopped")
			return
		case <-ticker.C:
			if dropped := w.reservations.Sweep(); dropped > 0 {
				w.logger.Debug("expired reservations dropped",
					zap.Int("dropped", dropped),
					zap.Int("active", w.reservations.Active()))
			}
		}
	}
}
