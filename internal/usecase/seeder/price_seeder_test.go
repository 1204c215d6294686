package seeder

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockPriceRepository is a mock implementation of PriceRepository
type MockPriceRepository struct {
	mock.Mock
}

func (m *MockPriceRepository) Price(ctx context.Context, id string) (decimal.Decimal, bool) {
	args := m.Called(ctx, id)
	return args.Get(0).(decimal.Decimal), args.Bool(1)
}

func (m *MockPriceRepository) SetPrice(ctx context.Context, id string, price decimal.Decimal) error {
	args := m.Called(ctx, id, price)
	return args.Error(0)
}

var testQuotes = []MarketQuote{
	{ID: "AAPL", Price: decimal.NewFromInt(190)},
	{ID: "BTC", Price: decimal.NewFromInt(65_000)},
}

func TestPriceSeeder_Seed_QuotesMissing(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockPriceRepository)
	seeder := NewPriceSeeder(mockRepo, testQuotes)

	// Mock Price to report every quote as missing
	mockRepo.On("Price", ctx, "AAPL").Return(decimal.Zero, false)
	mockRepo.On("Price", ctx, "BTC").Return(decimal.Zero, false)

	mockRepo.On("SetPrice", ctx, "AAPL", mock.MatchedBy(func(p decimal.Decimal) bool {
		return p.Equal(decimal.NewFromInt(190))
	})).Return(nil)
	mockRepo.On("SetPrice", ctx, "BTC", mock.MatchedBy(func(p decimal.Decimal) bool {
		return p.Equal(decimal.NewFromInt(65_000))
	})).Return(nil)

	// Execute
	err := seeder.Seed(ctx)

	// Assert
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockRepo.AssertNumberOfCalls(t, "SetPrice", 2)
}

func TestPriceSeeder_Seed_QuotesExist(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockPriceRepository)
	seeder := NewPriceSeeder(mockRepo, testQuotes)

	// Mock Price to return an existing price for every quote
	mockRepo.On("Price", ctx, "AAPL").Return(decimal.NewFromInt(200), true)
	mockRepo.On("Price", ctx, "BTC").Return(decimal.NewFromInt(70_000), true)

	// Execute
	err := seeder.Seed(ctx)

	// Assert
	assert.NoError(t, err)
	mockRepo.AssertNotCalled(t, "SetPrice", mock.Anything, mock.Anything, mock.Anything)
}

func TestPriceSeeder_Seed_StopsOnError(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockPriceRepository)
	seeder := NewPriceSeeder(mockRepo, testQuotes)

	mockRepo.On("Price", ctx, "AAPL").Return(decimal.Zero, false)
	mockRepo.On("SetPrice", ctx, "AAPL", mock.Anything).Return(errors.New("disk full"))

	// Execute
	err := seeder.Seed(ctx)

	// Assert
	assert.EqualError(t, err, "disk full")
	mockRepo.AssertNotCalled(t, "Price", ctx, "BTC")
}

func TestNewPriceSeeder_DefaultQuotes(t *testing.T) {
	seeder := NewPriceSeeder(new(MockPriceRepository), nil)
	assert.Equal(t, DefaultQuotes, seeder.quotes)
}
