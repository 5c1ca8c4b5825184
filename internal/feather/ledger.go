// Package feather implements the point currency ledger. Users earn feather by
// posting and spend it by commenting; a balance can never go negative.
package feather

import (
	"context"
	"errors"
	"fmt"

	"github.com/kawaii-gallery/backend/internal/logger"
	"github.com/kawaii-gallery/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrInsufficientFeather = errors.New("insufficient feather balance")
	ErrInvalidAmount       = errors.New("amount must be positive")
)

// Ledger mutates per-user feather balances. All updates are single UPDATE
// statements with the arithmetic done in the store, so concurrent callers
// can never interleave a stale read-modify-write.
type Ledger struct {
	db *gorm.DB
}

// NewLedger creates a ledger over the given database handle.
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Increment adds amount feather to the user and returns the new balance.
// Returns ErrUserNotFound if the user does not exist.
func (l *Ledger) Increment(ctx context.Context, userID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	res := l.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("feather", gorm.Expr("feather + ?", amount))
	if res.Error != nil {
		return 0, fmt.Errorf("feather increment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, ErrUserNotFound
	}

	balance, err := l.Balance(ctx, userID)
	if err != nil {
		return 0, err
	}

	logger.Log.Debug("feather credited",
		logger.WithUserID(userID),
		zap.Int("amount", amount),
		zap.Int("balance", balance),
	)
	return balance, nil
}

// Decrement subtracts amount feather from the user and returns the new
// balance. Returns ErrInsufficientFeather when the balance would go negative,
// leaving it unchanged, and ErrUserNotFound if the user does not exist.
func (l *Ledger) Decrement(ctx context.Context, userID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	// Guarded update: the balance check and subtraction are one statement
	res := l.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND feather >= ?", userID, amount).
		UpdateColumn("feather", gorm.Expr("feather - ?", amount))
	if res.Error != nil {
		return 0, fmt.Errorf("feather decrement: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Disambiguate: missing user vs. not enough balance
		var count int64
		if err := l.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
			return 0, fmt.Errorf("feather decrement: %w", err)
		}
		if count == 0 {
			return 0, ErrUserNotFound
		}
		return 0, ErrInsufficientFeather
	}

	balance, err := l.Balance(ctx, userID)
	if err != nil {
		return 0, err
	}

	logger.Log.Debug("feather debited",
		logger.WithUserID(userID),
		zap.Int("amount", amount),
		zap.Int("balance", balance),
	)
	return balance, nil
}

// Balance returns the user's current feather balance.
func (l *Ledger) Balance(ctx context.Context, userID string) (int, error) {
	var user models.User
	err := l.db.WithContext(ctx).Select("feather").First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("feather balance: %w", err)
	}
	return user.Feather, nil
}
