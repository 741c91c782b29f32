package cron

import (
	"context"
	"fmt"

	"github.com/jmcastellanos/tienda-backend/pkg/logger"
	"github.com/jmcastellanos/tienda-backend/pkg/metrics"
)

// sweeper releases expired stock reservations and reports how many it cleaned.
type sweeper interface {
	Sweep(ctx context.Context, batchSize int) (int, error)
}

// ReservationSweepJobParams configure the expiry sweep job.
type ReservationSweepJobParams struct {
	Logger    *logger.Logger
	Sweeper   sweeper
	Metrics   *metrics.CronJobMetrics
	BatchSize int
}

type reservationSweepJob struct {
	logg      *logger.Logger
	sweeper   sweeper
	metrics   *metrics.CronJobMetrics
	batchSize int
}

// NewReservationSweepJob builds the job that returns expired holds to stock.
func NewReservationSweepJob(params ReservationSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sweeper == nil {
		return nil, fmt.Errorf("sweeper required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = 200
	}
	return &reservationSweepJob{
		logg:      params.Logger,
		sweeper:   params.Sweeper,
		metrics:   params.Metrics,
		batchSize: batchSize,
	}, nil
}

func (j *reservationSweepJob) Name() string { return "reservation-sweep" }

func (j *reservationSweepJob) Run(ctx context.Context) error {
	cleaned, err := j.sweeper.Sweep(ctx, j.batchSize)
	if j.metrics != nil {
		j.metrics.AddReservationsReleased(cleaned)
	}
	logCtx := j.logg.WithField(ctx, "cleaned", cleaned)
	if err != nil {
		j.logg.Error(logCtx, "reservation sweep finished with errors", err)
		return err
	}
	j.logg.Info(logCtx, "reservation sweep complete")
	return nil
}
