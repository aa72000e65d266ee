package repository

import (
	"context"
	"time"

	"voucher-service/internal/model"

	"github.com/google/uuid"
)

// VoucherRepository defines the interface for voucher and card data access
// operations. Vouchers own their cards: cards are created and deleted only
// as part of their voucher, and the conditional card updates below are the
// sole mutation path for a card.
type VoucherRepository interface {
	// Create inserts a voucher and all of its cards in a single
	// transaction. Batch creation is all-or-nothing.
	Create(ctx context.Context, voucher *model.Voucher) error

	// GetByID retrieves a voucher with its cards. Returns nil if the
	// voucher does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Voucher, error)

	// List retrieves all vouchers with their cards, newest first.
	List(ctx context.Context) ([]model.Voucher, error)

	// Delete removes a voucher and, by cascade, its cards. Returns the
	// deleted voucher, or nil if it did not exist. Deletion is
	// unconditional: used cards do not block it.
	Delete(ctx context.Context, id uuid.UUID) (*model.Voucher, error)

	// FindCardByValue searches all vouchers for a card whose card number
	// or QR payload equals value, returning the card with its owning
	// voucher. Returns nils if no card matches. More than one match is a
	// data-integrity failure and returns model.ErrDuplicateCard.
	FindCardByValue(ctx context.Context, value string) (*model.Voucher, *model.Card, error)

	// FindCardByNumber retrieves a card by its exact card number together
	// with its owning voucher. Returns nils if no card matches.
	FindCardByNumber(ctx context.Context, cardNumber string) (*model.Voucher, *model.Card, error)

	// MarkCardUsed transitions a card from active to used. The update is
	// conditional on the stored status still being active, so of any
	// number of concurrent callers exactly one receives the updated card;
	// the rest receive nil.
	MarkCardUsed(ctx context.Context, cardNumber string, usedAt time.Time, usedBy string) (*model.Card, error)

	// MarkCardExpired transitions a card from active to expired. Returns
	// whether a row was updated; losing the race to a concurrent writer
	// is not an error.
	MarkCardExpired(ctx context.Context, cardNumber string) (bool, error)
}
