package valuation

import (
	"errors"
	"fmt"
	"strings"

	"navboard/internal/models"
)

var (
	ErrEmptyTicker     = errors.New("ticker is required")
	ErrDuplicateTicker = errors.New("duplicate ticker")
)

// Validate checks the position feed before it reaches ComputeSnapshot:
// tickers must be non-blank and unique.
func Validate(positions []models.Position) error {
	seen := make(map[string]bool, len(positions))
	for i, p := range positions {
		if strings.TrimSpace(p.Ticker) == "" {
			return fmt.Errorf("position %d: %w", i, ErrEmptyTicker)
		}
		if seen[p.Ticker] {
			return fmt.Errorf("%w: %s", ErrDuplicateTicker, p.Ticker)
		}
		seen[p.Ticker] = true
	}
	return nil
}
