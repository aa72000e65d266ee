package service

import (
	"context"

	"voucher-service/internal/model"

	"github.com/google/uuid"
)

// VoucherService defines operations for voucher batch management.
type VoucherService interface {
	// Create validates the request, generates the card batch and persists
	// the voucher. Creation is all-or-nothing.
	Create(ctx context.Context, req *model.CreateVoucherRequest) (*model.Voucher, error)

	// List retrieves all vouchers, newest first, with date-derived card
	// statuses and per-voucher usage counts.
	List(ctx context.Context) ([]model.VoucherListItem, error)

	// GetCards retrieves a voucher's cards with date-derived statuses.
	GetCards(ctx context.Context, voucherID uuid.UUID) ([]model.Card, error)

	// Delete removes a voucher and its cards unconditionally. Redemption
	// history on the voucher's used cards is lost.
	Delete(ctx context.Context, voucherID uuid.UUID) error
}

// RedemptionService defines the card redemption state machine and read-only
// card lookup.
type RedemptionService interface {
	// Redeem consumes a card identified by its exact card number,
	// transitioning it from active to used at most once across any number
	// of concurrent callers.
	Redeem(ctx context.Context, cardNumber, usedBy string) (*model.CardResponse, error)

	// Lookup retrieves a card by card number or QR payload together with
	// its voucher's display fields. Lookup never mutates the card; a card
	// past its expiry date is reported expired without a state write.
	Lookup(ctx context.Context, value string) (*model.CardResponse, error)
}
