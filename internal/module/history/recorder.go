package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dostavo/server/internal/shared/database"
	"gorm.io/gorm"
)

// HistoryWriteError wraps an integrity violation on a history insert.
// A failed history write is fatal for the surrounding transition.
type HistoryWriteError struct {
	Err error
}

func (e *HistoryWriteError) Error() string {
	return fmt.Sprintf("history write failed: %v", e.Err)
}

func (e *HistoryWriteError) Unwrap() error {
	return e.Err
}

// Recorder appends to the two history streams: the polymorphic audit
// log and the per-order status history.
type Recorder interface {
	// RecordAudit appends one audit entry.
	RecordAudit(ctx context.Context, entry *Entry) error

	// RecordStatusHistory inserts the (orderID, statusID) row if it does
	// not exist yet. The returned flag reports whether a new row was
	// created, so callers can gate current-status updates on it.
	RecordStatusHistory(ctx context.Context, orderID, statusID int64, at time.Time) (*OrderStatus, bool, error)

	// DeleteStatusHistory wipes all status history rows for an order.
	// Used by the `new` handler when an order is reset to the start of
	// its graph.
	DeleteStatusHistory(ctx context.Context, orderID int64) error
}

type recorder struct {
	db *gorm.DB
}

// NewRecorder creates a database-backed history recorder.
func NewRecorder(db *gorm.DB) Recorder {
	return &recorder{db: db}
}

func (r *recorder) RecordAudit(ctx context.Context, entry *Entry) error {
	if err := database.FromContext(ctx, r.db).Create(entry).Error; err != nil {
		return &HistoryWriteError{Err: err}
	}
	return nil
}

func (r *recorder) RecordStatusHistory(ctx context.Context, orderID, statusID int64, at time.Time) (*OrderStatus, bool, error) {
	db := database.FromContext(ctx, r.db)

	var row OrderStatus
	res := db.Where(OrderStatus{OrderID: orderID, StatusID: statusID}).
		Attrs(OrderStatus{CreatedAt: at}).
		FirstOrCreate(&row)
	if res.Error != nil {
		// A concurrent insert may beat the create; the unique index on
		// (order_id, status_id) is the backstop. Re-read and report the
		// row as pre-existing.
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			if err := db.Where("order_id = ? AND status_id = ?", orderID, statusID).First(&row).Error; err != nil {
				return nil, false, &HistoryWriteError{Err: err}
			}
			return &row, false, nil
		}
		return nil, false, &HistoryWriteError{Err: res.Error}
	}

	return &row, res.RowsAffected > 0, nil
}

func (r *recorder) DeleteStatusHistory(ctx context.Context, orderID int64) error {
	return database.FromContext(ctx, r.db).
		Where("order_id = ?", orderID).
		Delete(&OrderStatus{}).Error
}
