package seeder

import (
	"context"

	"github.com/shopspring/decimal"
)

// MarketQuote defines a default market price to be seeded
type MarketQuote struct {
	ID    string
	Price decimal.Decimal
}

// DefaultQuotes is the opening price list of a new game
var DefaultQuotes = []MarketQuote{
	{ID: "AAPL", Price: decimal.NewFromInt(190)},
	{ID: "MSFT", Price: decimal.NewFromInt(410)},
	{ID: "NVDA", Price: decimal.NewFromInt(120)},
	{ID: "TSLA", Price: decimal.NewFromInt(250)},
	{ID: "BTC", Price: decimal.NewFromInt(65_000)},
	{ID: "ETH", Price: decimal.NewFromInt(3_200)},
}

// PriceRepository is the price table the seeder fills
type PriceRepository interface {
	Price(ctx context.Context, id string) (decimal.Decimal, bool)
	SetPrice(ctx context.Context, id string, price decimal.Decimal) error
}

// PriceSeeder handles seeding of the default market prices
type PriceSeeder struct {
	repo   PriceRepository
	quotes []MarketQuote
}

// NewPriceSeeder creates a new PriceSeeder instance
func NewPriceSeeder(repo PriceRepository, quotes []MarketQuote) *PriceSeeder {
	if quotes == nil {
		quotes = DefaultQuotes
	}
	return &PriceSeeder{
		repo:   repo,
		quotes: quotes,
	}
}

// Seed ensures every default quote exists in the price table
// A quote that already has a price is left untouched
func (s *PriceSeeder) Seed(ctx context.Context) error {
	for _, q := range s.quotes {
		if _, ok := s.repo.Price(ctx, q.ID); ok {
			continue
		}
		if err := s.repo.SetPrice(ctx, q.ID, q.Price); err != nil {
			return err
		}
	}
	return nil
}
