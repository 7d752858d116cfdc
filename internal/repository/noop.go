package repository

import (
	"context"

	"BarPulse/internal/domain/models"
)

// NoopFillRecorder drops fills. Used when no ledger backend is configured.
type NoopFillRecorder struct{}

// Record implements repository.FillRecorder.
func (NoopFillRecorder) Record(ctx context.Context, fill *models.Fill) error { return nil }

// Close implements repository.FillRecorder.
func (NoopFillRecorder) Close() error { return nil }
