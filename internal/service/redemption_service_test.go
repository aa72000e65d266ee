package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"voucher-service/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testVoucher(expiryDate time.Time) *model.Voucher {
	return &model.Voucher{
		ID:                 uuid.New(),
		ShopName:           "City Lab",
		IDName:             "CITYLAB",
		PartnerArea:        "Downtown",
		DiscountType:       model.DiscountTypeAllTests,
		SpecificTests:      []string{},
		DiscountPercentage: 20,
		ExpiryDate:         expiryDate,
		TotalCards:         3,
		CreatedAt:          time.Now(),
	}
}

func activeCard(voucherID uuid.UUID, cardNumber string) *model.Card {
	return &model.Card{
		CardNumber: cardNumber,
		QRCode:     cardNumber,
		VoucherID:  voucherID,
		Status:     model.CardStatusActive,
	}
}

func TestRedemptionService_Redeem_Success(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	voucher := testVoucher(time.Now().Add(24 * time.Hour))
	card := activeCard(voucher.ID, "CITYLAB-1-AAAA")

	usedAt := time.Now()
	usedBy := "tech1"
	used := *card
	used.Status = model.CardStatusUsed
	used.UsedAt = &usedAt
	used.UsedBy = &usedBy

	mockRepo := new(MockVoucherRepository)
	service := NewRedemptionService(mockRepo, logger)

	mockRepo.On("FindCardByNumber", ctx, card.CardNumber).Return(voucher, card, nil)
	mockRepo.On("MarkCardUsed", ctx, card.CardNumber, mock.AnythingOfType("time.Time"), "tech1").
		Return(&used, nil)

	resp, err := service.Redeem(ctx, card.CardNumber, "tech1")

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, model.CardStatusUsed, resp.Card.Status)
	assert.Equal(t, "tech1", *resp.Card.UsedBy)
	assert.Equal(t, "City Lab", resp.Voucher.ShopName)
	assert.Equal(t, 20, resp.Voucher.DiscountPercentage)
	assert.Equal(t, model.DiscountTypeAllTests, resp.Voucher.DiscountType)

	mockRepo.AssertExpectations(t)
	mockRepo.AssertNotCalled(t, "MarkCardExpired")
}

func TestRedemptionService_Redeem_DefaultsUsedBy(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	voucher := testVoucher(time.Now().Add(24 * time.Hour))
	card := activeCard(voucher.ID, "CITYLAB-1-AAAA")

	used := *card
	used.Status = model.CardStatusUsed

	mockRepo := new(MockVoucherRepository)
	service := NewRedemptionService(mockRepo, logger)

	mockRepo.On("FindCardByNumber", ctx, card.CardNumber).Return(voucher, card, nil)
	mockRepo.On("MarkCardUsed", ctx, card.CardNumber, mock.AnythingOfType("time.Time"), "Unknown").
		Return(&used, nil)

	_, err := service.Redeem(ctx, card.CardNumber, "")

	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestRedemptionService_Redeem_CardNotFound(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	mockRepo := new(MockVoucherRepository)
	service := NewRedemptionService(mockRepo, logger)

	mockRepo.On("FindCardByNumber", ctx, "MISSING-1-AAAA").Return(nil, nil, nil)

	resp, err := service.Redeem(ctx, "MISSING-1-AAAA", "tech1")

	require.Error(t, err)
	assert.Equal(t, model.ErrCardNotFound, err)
	assert.Nil(t, resp)

	mockRepo.AssertNotCalled(t, "MarkCardUsed")
}

func TestRedemptionService_Redeem_CardNotActive(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	tests := []struct {
		name   string
		status string
	}{
		{name: "Already used", status: model.CardStatusUsed},
		{name: "Already expired", status: model.CardStatusExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			voucher := testVoucher(time.Now().Add(24 * time.Hour))
			card := activeCard(voucher.ID, "CITYLAB-1-AAAA")
			card.Status = tt.status

			mockRepo := new(MockVoucherRepository)
			service := NewRedemptionService(mockRepo, logger)

			mockRepo.On("FindCardByNumber", ctx, card.CardNumber).Return(voucher, card, nil)

			resp, err := service.Redeem(ctx, card.CardNumber, "tech1")

			require.Error(t, err)
			assert.Nil(t, resp)

			var domainErr *model.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, model.ErrCodeCardNotActive, domainErr.Code)
			assert.Equal(t, tt.status, domainErr.CardStatus)

			// No mutation on a non-active card.
			mockRepo.AssertNotCalled(t, "MarkCardUsed")
			mockRepo.AssertNotCalled(t, "MarkCardExpired")
		})
	}
}

func TestRedemptionService_Redeem_Expired(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	voucher := testVoucher(time.Now().Add(-24 * time.Hour))
	card := activeCard(voucher.ID, "CITYLAB-1-AAAA")

	mockRepo := new(MockVoucherRepository)
	service := NewRedemptionService(mockRepo, logger)

	mockRepo.On("FindCardByNumber", ctx, card.CardNumber).Return(voucher, card, nil)
	mockRepo.On("MarkCardExpired", ctx, card.CardNumber).Return(true, nil)

	resp, err := service.Redeem(ctx, card.CardNumber, "tech1")

	require.Error(t, err)
	assert.Equal(t, model.ErrCardExpired, err)
	assert.Nil(t, resp)

	mockRepo.AssertExpectations(t)
	mockRepo.AssertNotCalled(t, "MarkCardUsed")
}

func TestRedemptionService_Redeem_ExpiredWriteFailure(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	voucher := testVoucher(time.Now().Add(-24 * time.Hour))
	card := activeCard(voucher.ID, "CITYLAB-1-AAAA")

	mockRepo := new(MockVoucherRepository)
	service := NewRedemptionService(mockRepo, logger)

	mockRepo.On("FindCardByNumber", ctx, card.CardNumber).Return(voucher, card, nil)
	mockRepo.On("MarkCardExpired", ctx, card.CardNumber).
		Return(false, errors.New("database error"))

	// The read-time expiry check is authoritative: a failed status write
	// must not mask the expired outcome.
	_, err := service.Redeem(ctx, card.CardNumber, "tech1")

	require.Error(t, err)
	assert.Equal(t, model.ErrCardExpired, err)

	mockRepo.AssertExpectations(t)
}

func TestRedemptionService_Redeem_LostRace(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	voucher := testVoucher(time.Now().Add(24 * time.Hour))
	card := activeCard(voucher.ID, "CITYLAB-1-AAAA")

	usedBy := "tech2"
	winner := *card
	winner.Status = model.CardStatusUsed
	winner.UsedBy = &usedBy

	mockRepo := new(MockVoucherRepository)
	service := NewRedemptionService(mockRepo, logger)

	// The first read sees an active card, but the conditional update loses
	// to a concurrent redemption; the re-read observes the winner's state.
	mockRepo.On("FindCardByNumber", ctx, card.CardNumber).Return(voucher, card, nil).Once()
	mockRepo.On("MarkCardUsed", ctx, card.CardNumber, mock.AnythingOfType("time.Time"), "tech1").
		Return(nil, nil)
	mockRepo.On("FindCardByNumber", ctx, card.CardNumber).Return(voucher, &winner, nil).Once()

	resp, err := service.Redeem(ctx, card.CardNumber, "tech1")

	require.Error(t, err)
	assert.Nil(t, resp)

	var domainErr *model.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, model.ErrCodeCardNotActive, domainErr.Code)
	assert.Equal(t, model.CardStatusUsed, domainErr.CardStatus)

	mockRepo.AssertExpectations(t)
}

func TestRedemptionService_Redeem_VoucherDeletedMidFlight(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	voucher := testVoucher(time.Now().Add(24 * time.Hour))
	card := activeCard(voucher.ID, "CITYLAB-1-AAAA")

	mockRepo := new(MockVoucherRepository)
	service := NewRedemptionService(mockRepo, logger)

	// Deletion is unconditional and may race ahead of a redemption; the
	// lost write is reported as not found rather than failing harder.
	mockRepo.On("FindCardByNumber", ctx, card.CardNumber).Return(voucher, card, nil).Once()
	mockRepo.On("MarkCardUsed", ctx, card.CardNumber, mock.AnythingOfType("time.Time"), "tech1").
		Return(nil, nil)
	mockRepo.On("FindCardByNumber", ctx, card.CardNumber).Return(nil, nil, nil).Once()

	resp, err := service.Redeem(ctx, card.CardNumber, "tech1")

	require.Error(t, err)
	assert.Equal(t, model.ErrCardNotFound, err)
	assert.Nil(t, resp)

	mockRepo.AssertExpectations(t)
}

func TestRedemptionService_Lookup(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	voucher := testVoucher(time.Now().Add(24 * time.Hour))
	card := activeCard(voucher.ID, "CITYLAB-1-AAAA")

	mockRepo := new(MockVoucherRepository)
	service := NewRedemptionService(mockRepo, logger)

	mockRepo.On("FindCardByValue", ctx, "CITYLAB-1-AAAA").Return(voucher, card, nil)

	resp, err := service.Lookup(ctx, "CITYLAB-1-AAAA")

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, model.CardStatusActive, resp.Card.Status)
	assert.Equal(t, "City Lab", resp.Voucher.ShopName)

	mockRepo.AssertExpectations(t)
}

func TestRedemptionService_Lookup_DerivesExpiredStatus(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	voucher := testVoucher(time.Now().Add(-24 * time.Hour))
	card := activeCard(voucher.ID, "CITYLAB-1-AAAA")

	mockRepo := new(MockVoucherRepository)
	service := NewRedemptionService(mockRepo, logger)

	mockRepo.On("FindCardByValue", ctx, "CITYLAB-1-AAAA").Return(voucher, card, nil)

	resp, err := service.Lookup(ctx, "CITYLAB-1-AAAA")

	require.NoError(t, err)
	assert.Equal(t, model.CardStatusExpired, resp.Card.Status)

	// Lookup is a pure read: the derived expiry is never written back.
	mockRepo.AssertNotCalled(t, "MarkCardExpired")
}

func TestRedemptionService_Lookup_NotFound(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	mockRepo := new(MockVoucherRepository)
	service := NewRedemptionService(mockRepo, logger)

	mockRepo.On("FindCardByValue", ctx, "MISSING").Return(nil, nil, nil)

	resp, err := service.Lookup(ctx, "MISSING")

	require.Error(t, err)
	assert.Equal(t, model.ErrCardNotFound, err)
	assert.Nil(t, resp)
}

func TestRedemptionService_Lookup_DuplicateMatch(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	mockRepo := new(MockVoucherRepository)
	service := NewRedemptionService(mockRepo, logger)

	mockRepo.On("FindCardByValue", ctx, "DUPL-1-AAAA").
		Return(nil, nil, model.ErrDuplicateCard)

	resp, err := service.Lookup(ctx, "DUPL-1-AAAA")

	require.Error(t, err)
	assert.Equal(t, model.ErrDuplicateCard, err)
	assert.Nil(t, resp)
}
