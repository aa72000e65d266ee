package service

import (
	"context"
	"fmt"
	"time"

	"voucher-service/internal/cardcode"
	"voucher-service/internal/model"
	"voucher-service/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// voucherService implements VoucherService.
type voucherService struct {
	repo      repository.VoucherRepository
	generator cardcode.Generator
	logger    zerolog.Logger
}

// NewVoucherService creates a new voucher service.
func NewVoucherService(
	repo repository.VoucherRepository,
	generator cardcode.Generator,
	logger zerolog.Logger,
) VoucherService {
	return &voucherService{
		repo:      repo,
		generator: generator,
		logger:    logger.With().Str("service", "voucher").Logger(),
	}
}

// Create validates the request, generates the card batch and persists the
// voucher with all cards initialised to active.
func (s *voucherService) Create(ctx context.Context, req *model.CreateVoucherRequest) (*model.Voucher, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, err
	}

	voucherID := uuid.New()

	// The millisecond timestamp plus random suffix makes duplicates within
	// a batch unlikely but not impossible at batch-generation speed, so
	// regenerate on an in-batch duplicate. Cross-batch duplicates are
	// rejected by the card number's storage uniqueness constraint.
	cards := make([]model.Card, 0, req.TotalCards)
	seen := make(map[string]struct{}, req.TotalCards)
	for len(cards) < req.TotalCards {
		cardNumber, qrCode := s.generator.Generate(req.IDName)
		if _, dup := seen[cardNumber]; dup {
			continue
		}
		seen[cardNumber] = struct{}{}
		cards = append(cards, model.Card{
			CardNumber: cardNumber,
			QRCode:     qrCode,
			VoucherID:  voucherID,
			Status:     model.CardStatusActive,
		})
	}

	specificTests := []string{}
	if req.DiscountType == model.DiscountTypeSpecificTests {
		specificTests = req.SpecificTests
	}

	voucher := &model.Voucher{
		ID:                 voucherID,
		ShopName:           req.ShopName,
		IDName:             req.IDName,
		PartnerArea:        req.PartnerArea,
		DiscountType:       req.DiscountType,
		SpecificTests:      specificTests,
		DiscountPercentage: req.DiscountPercentage,
		ExpiryDate:         req.ExpiryDate,
		TotalCards:         req.TotalCards,
		Cards:              cards,
		CreatedAt:          time.Now(),
	}

	if err := s.repo.Create(ctx, voucher); err != nil {
		s.logger.Error().Err(err).Str("voucher_id", voucherID.String()).Msg("failed to create voucher")
		return nil, fmt.Errorf("failed to create voucher: %w", err)
	}

	s.logger.Info().
		Str("voucher_id", voucherID.String()).
		Str("shop_name", voucher.ShopName).
		Int("card_count", len(cards)).
		Msg("voucher created successfully")

	return voucher, nil
}

// List retrieves all vouchers, newest first. Stored card statuses may lag
// reality because expiry is materialised lazily, so statuses and counts are
// derived from the expiry date before returning.
func (s *voucherService) List(ctx context.Context) ([]model.VoucherListItem, error) {
	vouchers, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list vouchers")
		return nil, fmt.Errorf("failed to list vouchers: %w", err)
	}

	now := time.Now()
	items := make([]model.VoucherListItem, 0, len(vouchers))
	for _, voucher := range vouchers {
		item := model.VoucherListItem{Voucher: voucher}
		for i, card := range voucher.Cards {
			status := card.EffectiveStatus(voucher.ExpiryDate, now)
			item.Cards[i].Status = status
			switch status {
			case model.CardStatusUsed:
				item.UsedCards++
			case model.CardStatusActive:
				item.RemainingCards++
			}
		}
		items = append(items, item)
	}

	return items, nil
}

// GetCards retrieves a voucher's cards with date-derived statuses.
func (s *voucherService) GetCards(ctx context.Context, voucherID uuid.UUID) ([]model.Card, error) {
	voucher, err := s.repo.GetByID(ctx, voucherID)
	if err != nil {
		s.logger.Error().Err(err).Str("voucher_id", voucherID.String()).Msg("failed to get voucher")
		return nil, fmt.Errorf("failed to get voucher: %w", err)
	}

	if voucher == nil {
		s.logger.Debug().Str("voucher_id", voucherID.String()).Msg("voucher not found")
		return nil, model.ErrVoucherNotFound
	}

	now := time.Now()
	cards := make([]model.Card, len(voucher.Cards))
	for i, card := range voucher.Cards {
		card.Status = card.EffectiveStatus(voucher.ExpiryDate, now)
		cards[i] = card
	}

	return cards, nil
}

// Delete removes a voucher unconditionally.
func (s *voucherService) Delete(ctx context.Context, voucherID uuid.UUID) error {
	voucher, err := s.repo.Delete(ctx, voucherID)
	if err != nil {
		s.logger.Error().Err(err).Str("voucher_id", voucherID.String()).Msg("failed to delete voucher")
		return fmt.Errorf("failed to delete voucher: %w", err)
	}

	if voucher == nil {
		s.logger.Debug().Str("voucher_id", voucherID.String()).Msg("voucher not found for deletion")
		return model.ErrVoucherNotFound
	}

	s.logger.Info().
		Str("voucher_id", voucherID.String()).
		Str("shop_name", voucher.ShopName).
		Msg("voucher deleted")

	return nil
}

// validateCreateRequest validates the voucher creation request.
func (s *voucherService) validateCreateRequest(req *model.CreateVoucherRequest) error {
	if req == nil {
		return model.NewValidationError("request is nil")
	}

	if req.ShopName == "" {
		return model.NewValidationError("shop name is required")
	}

	if req.IDName == "" {
		return model.NewValidationError("id name is required")
	}

	if req.PartnerArea == "" {
		return model.NewValidationError("partner area is required")
	}

	switch req.DiscountType {
	case model.DiscountTypeAllTests:
	case model.DiscountTypeSpecificTests:
		if len(req.SpecificTests) == 0 {
			return model.NewValidationError("specific tests are required for discount type specific_tests")
		}
	default:
		return model.NewValidationError(fmt.Sprintf("invalid discount type: %s", req.DiscountType))
	}

	if req.DiscountPercentage <= 0 || req.DiscountPercentage > 100 {
		return model.NewValidationError("discount percentage must be between 1 and 100")
	}

	if req.ExpiryDate.IsZero() {
		return model.NewValidationError("expiry date is required")
	}

	if req.TotalCards <= 0 {
		s.logger.Warn().Int("total_cards", req.TotalCards).Msg("invalid total cards")
		return model.NewValidationError("total cards must be greater than zero")
	}

	return nil
}
