package model

import (
	"time"

	"github.com/google/uuid"
)

// Card status values. Status is monotonic: once a card leaves
// CardStatusActive it never returns to it.
const (
	CardStatusActive  = "active"
	CardStatusUsed    = "used"
	CardStatusExpired = "expired"
)

// Discount type values.
const (
	DiscountTypeAllTests      = "all_tests"
	DiscountTypeSpecificTests = "specific_tests"
)

// Voucher represents an issuance batch of single-use discount cards sharing
// a shop, discount terms and expiry date.
type Voucher struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	ShopName           string    `json:"shopName" db:"shop_name"`
	IDName             string    `json:"idName" db:"id_name"`
	PartnerArea        string    `json:"partnerArea" db:"partner_area"`
	DiscountType       string    `json:"discountType" db:"discount_type"`
	SpecificTests      []string  `json:"specificTests" db:"specific_tests"`
	DiscountPercentage int       `json:"discountPercentage" db:"discount_percentage"`
	ExpiryDate         time.Time `json:"expiryDate" db:"expiry_date"`
	TotalCards         int       `json:"totalCards" db:"total_cards"`
	Cards              []Card    `json:"cards,omitempty"`
	CreatedAt          time.Time `json:"createdAt" db:"created_at"`
}

// Card represents one single-use redemption unit within a voucher.
type Card struct {
	CardNumber string     `json:"cardNumber" db:"card_number"`
	QRCode     string     `json:"qrCode" db:"qr_code"`
	VoucherID  uuid.UUID  `json:"-" db:"voucher_id"`
	Status     string     `json:"status" db:"status"`
	UsedAt     *time.Time `json:"usedAt,omitempty" db:"used_at"`
	UsedBy     *string    `json:"usedBy,omitempty" db:"used_by"`
}

// EffectiveStatus returns the status a card should be displayed with at the
// given instant. Expiry is materialised lazily: a card past its voucher's
// expiry date may still be stored as active, so display paths must derive the
// expired state from the date instead of trusting the stored status.
func (c Card) EffectiveStatus(expiryDate, now time.Time) string {
	if c.Status == CardStatusActive && now.After(expiryDate) {
		return CardStatusExpired
	}
	return c.Status
}

// VoucherSummary carries the voucher display fields a caller needs to apply
// or render a card's discount.
type VoucherSummary struct {
	ShopName           string    `json:"shopName"`
	DiscountPercentage int       `json:"discountPercentage"`
	DiscountType       string    `json:"discountType"`
	SpecificTests      []string  `json:"specificTests"`
	ExpiryDate         time.Time `json:"expiryDate"`
}

// Summary returns the voucher's display fields.
func (v *Voucher) Summary() VoucherSummary {
	return VoucherSummary{
		ShopName:           v.ShopName,
		DiscountPercentage: v.DiscountPercentage,
		DiscountType:       v.DiscountType,
		SpecificTests:      v.SpecificTests,
		ExpiryDate:         v.ExpiryDate,
	}
}

// VoucherListItem represents a voucher in a listing, with card counts derived
// from the effective (date-aware) card statuses.
type VoucherListItem struct {
	Voucher
	UsedCards      int `json:"usedCards"`
	RemainingCards int `json:"remainingCards"`
}

// CreateVoucherRequest represents the request payload for creating a voucher
// batch.
type CreateVoucherRequest struct {
	ShopName           string    `json:"shopName"`
	IDName             string    `json:"idName"`
	PartnerArea        string    `json:"partnerArea"`
	DiscountType       string    `json:"discountType"`
	SpecificTests      []string  `json:"specificTests,omitempty"`
	DiscountPercentage int       `json:"discountPercentage"`
	ExpiryDate         time.Time `json:"expiryDate"`
	TotalCards         int       `json:"totalCards"`
}

// RedeemCardRequest represents the request payload for redeeming a card.
type RedeemCardRequest struct {
	CardNumber string `json:"cardNumber"`
	UsedBy     string `json:"usedBy,omitempty"`
}

// CardResponse represents a card together with its voucher's display fields.
type CardResponse struct {
	Card    Card           `json:"card"`
	Voucher VoucherSummary `json:"voucher"`
}

// CreateVoucherResponse represents the response payload for voucher creation.
type CreateVoucherResponse struct {
	Message string  `json:"message"`
	Voucher Voucher `json:"voucher"`
}

// RedeemCardResponse represents the response payload for a successful
// redemption.
type RedeemCardResponse struct {
	Message string         `json:"message"`
	Card    Card           `json:"card"`
	Voucher VoucherSummary `json:"voucher"`
}

// MessageResponse represents a plain confirmation message.
type MessageResponse struct {
	Message string `json:"message"`
}
