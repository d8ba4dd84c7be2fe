package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/OneKeyCoder/batdongscam-backend/pkg/logger"
)

const (
	defaultOverdueWindow = 24 * time.Hour
	defaultOverdueBatch  = 500
)

type overdueEmitter interface {
	EmitOverdueEvents(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// PaymentOverdueJobParams configure the overdue payment sweep.
type PaymentOverdueJobParams struct {
	Logger   *logger.Logger
	Payments overdueEmitter
	Window   time.Duration
	Batch    int
}

// NewPaymentOverdueJob builds the job that flags pending payments whose due
// date passed more than the grace window ago.
func NewPaymentOverdueJob(params PaymentOverdueJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payment service required")
	}
	window := params.Window
	if window <= 0 {
		window = defaultOverdueWindow
	}
	batch := params.Batch
	if batch <= 0 {
		batch = defaultOverdueBatch
	}
	return &paymentOverdueJob{
		logg:     params.Logger,
		payments: params.Payments,
		window:   window,
		batch:    batch,
		now:      time.Now,
	}, nil
}

type paymentOverdueJob struct {
	logg     *logger.Logger
	payments overdueEmitter
	window   time.Duration
	batch    int
	now      func() time.Time
}

func (j *paymentOverdueJob) Name() string { return "payment-overdue" }

func (j *paymentOverdueJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.window)
	processed, err := j.payments.EmitOverdueEvents(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("payment overdue sweep: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":    cutoff,
		"window":    j.window.String(),
		"processed": processed,
	})
	j.logg.Info(logCtx, "payment overdue sweep complete")
	return nil
}
