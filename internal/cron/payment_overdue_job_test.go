package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/OneKeyCoder/batdongscam-backend/pkg/logger"
)

type fakeOverdueEmitter struct {
	lastCutoff time.Time
	lastLimit  int
	called     int
	err        error
}

func (f *fakeOverdueEmitter) EmitOverdueEvents(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	f.called++
	f.lastCutoff = cutoff
	f.lastLimit = limit
	if f.err != nil {
		return 0, f.err
	}
	return 3, nil
}

func TestPaymentOverdueJobUsesGraceWindow(t *testing.T) {
	now := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	emitter := &fakeOverdueEmitter{}
	jobIface, err := NewPaymentOverdueJob(PaymentOverdueJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Payments: emitter,
		Window:   48 * time.Hour,
		Batch:    200,
	})
	if err != nil {
		t.Fatalf("NewPaymentOverdueJob: %v", err)
	}
	job := jobIface.(*paymentOverdueJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	expectedCutoff := now.UTC().Add(-48 * time.Hour)
	if !emitter.lastCutoff.Equal(expectedCutoff) {
		t.Fatalf("expected cutoff %s, got %s", expectedCutoff, emitter.lastCutoff)
	}
	if emitter.lastLimit != 200 {
		t.Fatalf("expected batch 200, got %d", emitter.lastLimit)
	}
	if emitter.called != 1 {
		t.Fatalf("expected emitter called once, got %d", emitter.called)
	}
}

func TestPaymentOverdueJobPropagatesError(t *testing.T) {
	emitter := &fakeOverdueEmitter{err: errors.New("boom")}
	jobIface, err := NewPaymentOverdueJob(PaymentOverdueJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Payments: emitter,
	})
	if err != nil {
		t.Fatalf("NewPaymentOverdueJob: %v", err)
	}
	if err := jobIface.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestPaymentOverdueJobDefaults(t *testing.T) {
	emitter := &fakeOverdueEmitter{}
	jobIface, err := NewPaymentOverdueJob(PaymentOverdueJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Payments: emitter,
	})
	if err != nil {
		t.Fatalf("NewPaymentOverdueJob: %v", err)
	}
	if err := jobIface.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if emitter.lastLimit != defaultOverdueBatch {
		t.Fatalf("expected default batch %d, got %d", defaultOverdueBatch, emitter.lastLimit)
	}
}
