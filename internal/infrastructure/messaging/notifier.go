// Package messaging delivers checkout events after a commit.
package messaging

import (
	"context"
	"errors"

	"github.com/sangkips/investify-pos/internal/domain/event"
	"go.uber.org/zap"
)

// LogNotifier writes events to the structured log
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SaleCommitted(ctx context.Context, e event.SaleCommitted) error {
	n.logger.Info("sale committed",
		zap.String("receipt_number", e.ReceiptNumber),
		zap.String("receipt_id", e.ReceiptID.String()),
		zap.String("business_id", e.BusinessID.String()),
		zap.String("total", e.Total.StringFixed(2)),
		zap.Int("items", e.ItemCount),
		zap.String("payment_method", e.PaymentMethod),
		zap.Bool("simulated", e.Simulated),
	)
	return nil
}

func (n *LogNotifier) LowStock(ctx context.Context, e event.LowStock) error {
	n.logger.Warn("low stock",
		zap.String("item_id", e.ItemID.String()),
		zap.String("name", e.Name),
		zap.Int("remaining", e.Remaining),
		zap.Int("threshold", e.Threshold),
		zap.String("business_id", e.BusinessID.String()),
	)
	return nil
}

// MultiNotifier fans an event out to every notifier and joins their errors
type MultiNotifier []event.Notifier

func (m MultiNotifier) SaleCommitted(ctx context.Context, e event.SaleCommitted) error {
	var errs []error
	for _, n := range m {
		if err := n.SaleCommitted(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiNotifier) LowStock(ctx context.Context, e event.LowStock) error {
	var errs []error
	for _, n := range m {
		if err := n.LowStock(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
