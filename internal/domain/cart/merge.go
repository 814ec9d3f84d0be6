// internal/domain/cart/merge.go
package cart

import (
	"context"

	"github.com/sirupsen/logrus"
	pkgerrors "github.com/your-org/storefront/internal/pkg/errors"
	"github.com/your-org/storefront/internal/pkg/metrics"
	"gorm.io/gorm"
)

// MergeResult describes what a merge moved into the persistent cart.
type MergeResult struct {
	CartID uint `json:"cart_id,omitempty"`
	Lines  int  `json:"lines"`
	Units  int  `json:"units"`
}

// Merger folds a session cart into a user's persistent cart at login.
type Merger struct {
	db       *gorm.DB
	sessions *SessionCart
	metrics  *metrics.Metrics
	logger   *logrus.Logger
}

// NewMerger creates a cart merger
func NewMerger(db *gorm.DB, sessions *SessionCart, m *metrics.Metrics, logger *logrus.Logger) *Merger {
	return &Merger{db: db, sessions: sessions, metrics: m, logger: logger}
}

// Merge adds every resolvable session line to the user's cart, summing
// quantities with existing lines, inside one transaction. The session cart
// is cleared only after the transaction commits; on failure it is left
// untouched. An empty session creates no cart.
func (m *Merger) Merge(ctx context.Context, userID uint, sessionID string) (*MergeResult, error) {
	lines, err := m.sessions.Materialize(ctx, sessionID)
	if err != nil {
		m.metrics.Merge(metrics.MergeFailed, 0)
		return nil, wrapInternal(err, "failed to read session cart")
	}

	if len(lines) == 0 {
		if err := m.sessions.store.Clear(ctx, sessionID); err != nil {
			return nil, wrapInternal(err, "failed to clear session cart")
		}
		m.metrics.Merge(metrics.MergeEmpty, 0)
		return &MergeResult{}, nil
	}

	result := &MergeResult{}
	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := getOrCreate(tx, userID)
		if err != nil {
			return err
		}
		result.CartID = cart.ID

		for _, line := range lines {
			if _, err := addItem(tx, cart.ID, line.ProductID, line.Quantity); err != nil {
				return err
			}
			result.Lines++
			result.Units += line.Quantity
		}
		return nil
	})
	if err != nil {
		m.metrics.Merge(metrics.MergeFailed, 0)
		m.logger.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"lines":   len(lines),
		}).Warn("cart merge rolled back, session cart kept")
		return nil, pkgerrors.Internal(err, "failed to merge cart")
	}

	if err := m.sessions.store.Clear(ctx, sessionID); err != nil {
		m.logger.WithError(err).WithField("user_id", userID).Error("cart merged but session cart could not be cleared")
		return result, wrapInternal(err, "failed to clear session cart")
	}

	m.metrics.Merge(metrics.MergeApplied, result.Units)
	m.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"cart_id": result.CartID,
		"lines":   result.Lines,
		"units":   result.Units,
	}).Info("session cart merged")

	return result, nil
}
