package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"voucher-service/internal/cardcode"
	"voucher-service/internal/model"
	"voucher-service/internal/repository"
	"voucher-service/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// seedSampleVouchers inserts demo vouchers for local development.
// Requires a running PostgreSQL with the schema applied (see scripts/schema.sql).
func main() {
	_ = godotenv.Load()

	ctx := context.Background()

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		envOr("DB_USER", "postgres"),
		envOr("DB_PASSWORD", "postgres"),
		envOr("DB_HOST", "localhost"),
		envOr("DB_PORT", "5432"),
		envOr("DB_NAME", "vouchers"),
	)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	repo := repository.NewVoucherRepository(pool, logger)
	vouchers := service.NewVoucherService(repo, cardcode.New(), logger)

	samples := []*model.CreateVoucherRequest{
		{
			ShopName:           "City Lab",
			IDName:             "CITYLAB",
			PartnerArea:        "Downtown",
			DiscountType:       model.DiscountTypeAllTests,
			DiscountPercentage: 20,
			ExpiryDate:         time.Now().Add(30 * 24 * time.Hour),
			TotalCards:         10,
		},
		{
			ShopName:           "Metro Diagnostics",
			IDName:             "METRO",
			PartnerArea:        "Uptown",
			DiscountType:       model.DiscountTypeSpecificTests,
			SpecificTests:      []string{"CBC", "Lipid Profile"},
			DiscountPercentage: 35,
			ExpiryDate:         time.Now().Add(60 * 24 * time.Hour),
			TotalCards:         5,
		},
	}

	for _, req := range samples {
		voucher, err := vouchers.Create(ctx, req)
		if err != nil {
			log.Fatalf("Failed to create voucher for %s: %v", req.ShopName, err)
		}

		fmt.Printf("Created voucher %s for %s with %d cards:\n", voucher.ID, voucher.ShopName, len(voucher.Cards))
		for _, card := range voucher.Cards {
			fmt.Printf("  %s\n", card.CardNumber)
		}
	}

	fmt.Println("\nSample vouchers created successfully!")
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
