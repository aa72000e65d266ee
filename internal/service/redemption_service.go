package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"voucher-service/internal/model"
	"voucher-service/internal/repository"

	"github.com/rs/zerolog"
)

// defaultUsedBy is recorded when the redeemer does not identify themselves.
const defaultUsedBy = "Unknown"

// redemptionService implements RedemptionService.
type redemptionService struct {
	repo   repository.VoucherRepository
	logger zerolog.Logger
}

// NewRedemptionService creates a new redemption service.
func NewRedemptionService(repo repository.VoucherRepository, logger zerolog.Logger) RedemptionService {
	return &redemptionService{
		repo:   repo,
		logger: logger.With().Str("service", "redemption").Logger(),
	}
}

// Redeem runs the card state machine: active cards past their voucher's
// expiry date transition to expired, active cards within it transition to
// used. Both writes are conditional on the stored status still being active,
// so for a given card exactly one concurrent caller can win the transition.
func (s *redemptionService) Redeem(ctx context.Context, cardNumber, usedBy string) (*model.CardResponse, error) {
	voucher, card, err := s.repo.FindCardByNumber(ctx, cardNumber)
	if err != nil {
		s.logger.Error().Err(err).Str("card_number", cardNumber).Msg("failed to find card")
		return nil, fmt.Errorf("failed to find card: %w", err)
	}

	if card == nil {
		s.logger.Debug().Str("card_number", cardNumber).Msg("card not found")
		return nil, model.ErrCardNotFound
	}

	if card.Status != model.CardStatusActive {
		s.logger.Info().
			Str("card_number", cardNumber).
			Str("status", card.Status).
			Msg("redemption rejected, card not active")
		return nil, model.NewCardNotActiveError(card.Status)
	}

	now := time.Now()
	if now.After(voucher.ExpiryDate) {
		// Lazy expiry: the stored status is only brought up to date on
		// the redemption attempt that discovers the deadline has passed.
		// The read-time check is authoritative for the outcome, so a
		// failed or raced write still reports the card expired.
		if _, err := s.repo.MarkCardExpired(ctx, cardNumber); err != nil {
			s.logger.Warn().Err(err).Str("card_number", cardNumber).Msg("failed to persist expiry transition")
		}
		s.logger.Info().
			Str("card_number", cardNumber).
			Time("expiry_date", voucher.ExpiryDate).
			Msg("redemption rejected, card expired")
		return nil, model.ErrCardExpired
	}

	if usedBy == "" {
		usedBy = defaultUsedBy
	}

	updated, err := s.repo.MarkCardUsed(ctx, cardNumber, now, usedBy)
	if err != nil {
		s.logger.Error().Err(err).Str("card_number", cardNumber).Msg("failed to mark card used")
		return nil, fmt.Errorf("failed to mark card used: %w", err)
	}

	if updated == nil {
		// Lost the conditional write: a concurrent redemption won, or
		// the voucher was deleted underneath us. Re-read to report the
		// precise outcome.
		return nil, s.lostUpdateError(ctx, cardNumber)
	}

	s.logger.Info().
		Str("card_number", cardNumber).
		Str("used_by", usedBy).
		Int("discount_percentage", voucher.DiscountPercentage).
		Msg("card redeemed")

	return &model.CardResponse{Card: *updated, Voucher: voucher.Summary()}, nil
}

// Lookup retrieves a card by card number or QR payload. It is a pure read:
// no state transition happens, and a card past its expiry date is reported
// with a date-derived expired status.
func (s *redemptionService) Lookup(ctx context.Context, value string) (*model.CardResponse, error) {
	voucher, card, err := s.repo.FindCardByValue(ctx, value)
	if err != nil {
		var domainErr *model.DomainError
		if errors.As(err, &domainErr) {
			return nil, err
		}
		s.logger.Error().Err(err).Msg("failed to look up card")
		return nil, fmt.Errorf("failed to look up card: %w", err)
	}

	if card == nil {
		s.logger.Debug().Str("value", value).Msg("card not found")
		return nil, model.ErrCardNotFound
	}

	card.Status = card.EffectiveStatus(voucher.ExpiryDate, time.Now())

	return &model.CardResponse{Card: *card, Voucher: voucher.Summary()}, nil
}

// lostUpdateError re-reads a card after a failed conditional update and maps
// the observed state to the error the caller should see.
func (s *redemptionService) lostUpdateError(ctx context.Context, cardNumber string) error {
	_, card, err := s.repo.FindCardByNumber(ctx, cardNumber)
	if err != nil {
		s.logger.Error().Err(err).Str("card_number", cardNumber).Msg("failed to re-read card after lost update")
		return fmt.Errorf("failed to re-read card: %w", err)
	}

	if card == nil {
		// The owning voucher was deleted mid-redemption. Deletion is
		// unconditional and wins the race.
		s.logger.Info().Str("card_number", cardNumber).Msg("card gone after lost update")
		return model.ErrCardNotFound
	}

	s.logger.Info().
		Str("card_number", cardNumber).
		Str("status", card.Status).
		Msg("redemption lost race")
	return model.NewCardNotActiveError(card.Status)
}
