package cardcode

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Generator defines the interface for card identifier generation.
type Generator interface {
	// Generate produces a card number and its QR payload from a partner
	// prefix. The card number has the shape <prefix>-<millis>-<SUFFIX>
	// where SUFFIX is 4 uppercase characters drawn from a random UUID.
	Generate(prefix string) (cardNumber, qrCode string)
}

// generator implements Generator using the current time and a random UUID.
type generator struct{}

// New creates a new card identifier generator.
func New() Generator {
	return generator{}
}

// Generate produces a card number and QR payload. Uniqueness rests on the
// millisecond timestamp plus the random suffix; it is not verified against
// storage here. The repository's uniqueness constraint is the backstop for
// the (very unlikely) collision case.
func (generator) Generate(prefix string) (string, string) {
	suffix := strings.ToUpper(uuid.NewString()[:4])
	cardNumber := fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixMilli(), suffix)

	// The QR symbol encodes the card number itself, but callers look the
	// two values up independently so both are returned.
	return cardNumber, cardNumber
}
