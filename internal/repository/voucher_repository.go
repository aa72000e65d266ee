package repository

import (
	"context"
	"fmt"
	"time"

	"voucher-service/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// voucherRepository implements the VoucherRepository interface using PostgreSQL.
type voucherRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewVoucherRepository creates a new PostgreSQL-backed voucher repository.
func NewVoucherRepository(pool *pgxpool.Pool, logger zerolog.Logger) VoucherRepository {
	return &voucherRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "voucher").Logger(),
	}
}

const voucherColumns = `id, shop_name, id_name, partner_area, discount_type, specific_tests, discount_percentage, expiry_date, total_cards, created_at`

const cardColumns = `card_number, qr_code, voucher_id, status, used_at, used_by`

// Create inserts a voucher and all of its cards in a single transaction.
func (r *voucherRepository) Create(ctx context.Context, voucher *model.Voucher) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	voucherQuery := `
		INSERT INTO vouchers (id, shop_name, id_name, partner_area, discount_type, specific_tests, discount_percentage, expiry_date, total_cards, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = tx.Exec(ctx, voucherQuery,
		voucher.ID,
		voucher.ShopName,
		voucher.IDName,
		voucher.PartnerArea,
		voucher.DiscountType,
		voucher.SpecificTests,
		voucher.DiscountPercentage,
		voucher.ExpiryDate,
		voucher.TotalCards,
		voucher.CreatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("voucher_id", voucher.ID.String()).
			Msg("failed to create voucher")
		return fmt.Errorf("failed to create voucher: %w", err)
	}

	cardQuery := `
		INSERT INTO cards (card_number, qr_code, voucher_id, position, status)
		VALUES ($1, $2, $3, $4, $5)
	`

	batch := &pgx.Batch{}
	for i, card := range voucher.Cards {
		batch.Queue(cardQuery, card.CardNumber, card.QRCode, voucher.ID, i, card.Status)
	}

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < len(voucher.Cards); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			r.logger.Error().
				Err(err).
				Str("voucher_id", voucher.ID.String()).
				Str("card_number", voucher.Cards[i].CardNumber).
				Msg("failed to create card")
			return fmt.Errorf("failed to create card: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to create cards: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Str("voucher_id", voucher.ID.String()).Msg("failed to commit transaction")
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Debug().
		Str("voucher_id", voucher.ID.String()).
		Int("card_count", len(voucher.Cards)).
		Msg("voucher created successfully")

	return nil
}

// GetByID retrieves a voucher with its cards.
func (r *voucherRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Voucher, error) {
	query := `
		SELECT ` + voucherColumns + `
		FROM vouchers
		WHERE id = $1
	`

	voucher, err := r.scanVoucherRow(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("voucher_id", id.String()).Msg("voucher not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("voucher_id", id.String()).Msg("failed to query voucher")
		return nil, fmt.Errorf("failed to query voucher: %w", err)
	}

	cardsQuery := `
		SELECT ` + cardColumns + `
		FROM cards
		WHERE voucher_id = $1
		ORDER BY position
	`

	rows, err := r.pool.Query(ctx, cardsQuery, id)
	if err != nil {
		r.logger.Error().Err(err).Str("voucher_id", id.String()).Msg("failed to query cards")
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan card row")
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		voucher.Cards = append(voucher.Cards, *card)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating card rows")
		return nil, fmt.Errorf("error iterating cards: %w", err)
	}

	return voucher, nil
}

// List retrieves all vouchers with their cards, newest first.
func (r *voucherRepository) List(ctx context.Context) ([]model.Voucher, error) {
	query := `
		SELECT ` + voucherColumns + `
		FROM vouchers
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query vouchers")
		return nil, fmt.Errorf("failed to query vouchers: %w", err)
	}
	defer rows.Close()

	var vouchers []model.Voucher
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		voucher, err := r.scanVoucherRow(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan voucher row")
			return nil, fmt.Errorf("failed to scan voucher: %w", err)
		}
		index[voucher.ID] = len(vouchers)
		vouchers = append(vouchers, *voucher)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating voucher rows")
		return nil, fmt.Errorf("error iterating vouchers: %w", err)
	}

	if len(vouchers) == 0 {
		return []model.Voucher{}, nil
	}

	cardsQuery := `
		SELECT ` + cardColumns + `
		FROM cards
		ORDER BY voucher_id, position
	`

	cardRows, err := r.pool.Query(ctx, cardsQuery)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query cards")
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer cardRows.Close()

	for cardRows.Next() {
		card, err := scanCard(cardRows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan card row")
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		if i, ok := index[card.VoucherID]; ok {
			vouchers[i].Cards = append(vouchers[i].Cards, *card)
		}
	}

	if err := cardRows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating card rows")
		return nil, fmt.Errorf("error iterating cards: %w", err)
	}

	return vouchers, nil
}

// Delete removes a voucher; its cards go with it via ON DELETE CASCADE.
func (r *voucherRepository) Delete(ctx context.Context, id uuid.UUID) (*model.Voucher, error) {
	query := `
		DELETE FROM vouchers
		WHERE id = $1
		RETURNING ` + voucherColumns + `
	`

	voucher, err := r.scanVoucherRow(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("voucher_id", id.String()).Msg("voucher not found for deletion")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("voucher_id", id.String()).Msg("failed to delete voucher")
		return nil, fmt.Errorf("failed to delete voucher: %w", err)
	}

	r.logger.Info().Str("voucher_id", id.String()).Msg("voucher deleted")

	return voucher, nil
}

// FindCardByValue searches for a card by card number or QR payload across all
// vouchers.
func (r *voucherRepository) FindCardByValue(ctx context.Context, value string) (*model.Voucher, *model.Card, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM cards
		WHERE card_number = $1 OR qr_code = $1
		LIMIT 2
	`

	rows, err := r.pool.Query(ctx, query, value)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query card by value")
		return nil, nil, fmt.Errorf("failed to query card by value: %w", err)
	}
	defer rows.Close()

	var cards []*model.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan card row")
			return nil, nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, card)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating card rows")
		return nil, nil, fmt.Errorf("error iterating cards: %w", err)
	}

	switch len(cards) {
	case 0:
		r.logger.Debug().Str("value", value).Msg("card not found")
		return nil, nil, nil
	case 1:
		// Fall through to load the owning voucher.
	default:
		// Card numbers are expected unique system-wide; more than one
		// match means corrupted data, so fail loudly rather than pick one.
		r.logger.Error().Str("value", value).Msg("multiple cards match value")
		return nil, nil, model.ErrDuplicateCard
	}

	return r.withVoucher(ctx, cards[0])
}

// FindCardByNumber retrieves a card by its exact card number.
func (r *voucherRepository) FindCardByNumber(ctx context.Context, cardNumber string) (*model.Voucher, *model.Card, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM cards
		WHERE card_number = $1
	`

	card, err := scanCard(r.pool.QueryRow(ctx, query, cardNumber))
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("card_number", cardNumber).Msg("card not found")
			return nil, nil, nil
		}
		r.logger.Error().Err(err).Str("card_number", cardNumber).Msg("failed to query card")
		return nil, nil, fmt.Errorf("failed to query card: %w", err)
	}

	return r.withVoucher(ctx, card)
}

// MarkCardUsed transitions a card from active to used. The WHERE clause on
// the stored status is the synchronisation point: of two racing writers the
// second matches zero rows and receives nil.
func (r *voucherRepository) MarkCardUsed(ctx context.Context, cardNumber string, usedAt time.Time, usedBy string) (*model.Card, error) {
	query := `
		UPDATE cards
		SET status = $2, used_at = $3, used_by = $4
		WHERE card_number = $1 AND status = $5
		RETURNING ` + cardColumns + `
	`

	card, err := scanCard(r.pool.QueryRow(ctx, query, cardNumber, model.CardStatusUsed, usedAt, usedBy, model.CardStatusActive))
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("card_number", cardNumber).Msg("card not active, conditional update skipped")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("card_number", cardNumber).Msg("failed to mark card used")
		return nil, fmt.Errorf("failed to mark card used: %w", err)
	}

	r.logger.Info().
		Str("card_number", cardNumber).
		Str("used_by", usedBy).
		Msg("card marked used")

	return card, nil
}

// MarkCardExpired transitions a card from active to expired.
func (r *voucherRepository) MarkCardExpired(ctx context.Context, cardNumber string) (bool, error) {
	query := `
		UPDATE cards
		SET status = $2
		WHERE card_number = $1 AND status = $3
	`

	tag, err := r.pool.Exec(ctx, query, cardNumber, model.CardStatusExpired, model.CardStatusActive)
	if err != nil {
		r.logger.Error().Err(err).Str("card_number", cardNumber).Msg("failed to mark card expired")
		return false, fmt.Errorf("failed to mark card expired: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return false, nil
	}

	r.logger.Info().Str("card_number", cardNumber).Msg("card marked expired")

	return true, nil
}

// withVoucher loads the owning voucher for a card found by one of the card
// lookups. A missing voucher here means a delete raced the lookup, which is
// reported as not found.
func (r *voucherRepository) withVoucher(ctx context.Context, card *model.Card) (*model.Voucher, *model.Card, error) {
	query := `
		SELECT ` + voucherColumns + `
		FROM vouchers
		WHERE id = $1
	`

	voucher, err := r.scanVoucherRow(r.pool.QueryRow(ctx, query, card.VoucherID))
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("voucher_id", card.VoucherID.String()).Msg("owning voucher not found")
			return nil, nil, nil
		}
		r.logger.Error().Err(err).Str("voucher_id", card.VoucherID.String()).Msg("failed to query owning voucher")
		return nil, nil, fmt.Errorf("failed to query owning voucher: %w", err)
	}

	return voucher, card, nil
}

// scanVoucherRow scans a single voucher row without its cards.
func (r *voucherRepository) scanVoucherRow(row pgx.Row) (*model.Voucher, error) {
	var v model.Voucher
	err := row.Scan(
		&v.ID,
		&v.ShopName,
		&v.IDName,
		&v.PartnerArea,
		&v.DiscountType,
		&v.SpecificTests,
		&v.DiscountPercentage,
		&v.ExpiryDate,
		&v.TotalCards,
		&v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// scanCard scans a single card row.
func scanCard(row pgx.Row) (*model.Card, error) {
	var c model.Card
	err := row.Scan(&c.CardNumber, &c.QRCode, &c.VoucherID, &c.Status, &c.UsedAt, &c.UsedBy)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
