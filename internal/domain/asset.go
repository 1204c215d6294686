package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Category identifies one asset collection of the ledger
type Category string

const (
	CategoryCash       Category = "cash"
	CategoryStocks     Category = "stocks"
	CategoryCrypto     Category = "crypto"
	CategoryBonds      Category = "bonds"
	CategoryOther      Category = "other"
	CategoryProperties Category = "properties"
	CategoryLifestyle  Category = "lifestyle"
)

// CashRecordID is the fixed identifier of the single cash record
const CashRecordID = "cash"

// Collections lists the categories stored as record collections.
// Cash is a scalar and is not part of this list.
var Collections = []Category{
	CategoryStocks,
	CategoryCrypto,
	CategoryBonds,
	CategoryOther,
	CategoryProperties,
	CategoryLifestyle,
}

// ParseCategory converts an external category name into a Category
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	switch c {
	case CategoryCash, CategoryStocks, CategoryCrypto, CategoryBonds,
		CategoryOther, CategoryProperties, CategoryLifestyle:
		return c, nil
	}
	return "", fmt.Errorf("%w: unknown category %q", ErrInvalidRecord, s)
}

// DecodeRecord unmarshals a JSON record of category c.
// Unreadable numeric fields are coerced to 0: the record is still returned,
// together with an ErrCalculation error naming the coerced fields.
func DecodeRecord(c Category, data []byte) (Record, error) {
	if _, ok := numericFields[c]; !ok {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidRecord, c)
	}
	data, coerced, err := coerceNumbers(c, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	var r Record
	switch c {
	case CategoryCash:
		var v CashBalance
		err = json.Unmarshal(data, &v)
		r = v
	case CategoryStocks:
		var v StockHolding
		err = json.Unmarshal(data, &v)
		r = v
	case CategoryCrypto:
		var v CryptoHolding
		err = json.Unmarshal(data, &v)
		r = v
	case CategoryBonds:
		var v BondHolding
		err = json.Unmarshal(data, &v)
		r = v
	case CategoryOther:
		var v OtherInvestment
		err = json.Unmarshal(data, &v)
		r = v
	case CategoryProperties:
		var v PropertyHolding
		err = json.Unmarshal(data, &v)
		r = v
	case CategoryLifestyle:
		var v LifestyleItem
		err = json.Unmarshal(data, &v)
		r = v
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if len(coerced) > 0 {
		return r, fmt.Errorf("%w: %s fields %v coerced to 0", ErrCalculation, c, coerced)
	}
	return r, nil
}

// Coerced reports whether err from DecodeRecord only signals zeroed numeric
// fields, leaving the returned record usable.
func Coerced(r Record, err error) bool {
	return r != nil && errors.Is(err, ErrCalculation)
}

// Record is the closed set of asset record variants.
// Only the types declared in this file implement it.
type Record interface {
	Category() Category
	RecordID() string
	Validate() error
	record()
}

// CashBalance is the player's liquid cash held by the ledger
type CashBalance struct {
	Amount decimal.Decimal `json:"amount"`
}

// StockHolding is a position in a listed stock
type StockHolding struct {
	ID            string          `json:"id"`
	Symbol        string          `json:"symbol"`
	Shares        decimal.Decimal `json:"shares"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	CurrentPrice  decimal.Decimal `json:"currentPrice"`
}

// CryptoHolding is an amount of a crypto currency
type CryptoHolding struct {
	ID           string          `json:"id"`
	Symbol       string          `json:"symbol"`
	Amount       decimal.Decimal `json:"amount"`
	CurrentPrice decimal.Decimal `json:"currentPrice"`
}

// BondHolding is a bond position; Amount is its current total value
type BondHolding struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Amount        decimal.Decimal `json:"amount"`
	MaturityValue decimal.Decimal `json:"maturityValue"`
	MaturityDate  time.Time       `json:"maturityDate"`
}

// OtherInvestment is any investment valued by a single current value
type OtherInvestment struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	CurrentValue decimal.Decimal `json:"currentValue"`
}

// PropertyHolding is real estate, possibly financed by a mortgage
type PropertyHolding struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	CurrentValue decimal.Decimal `json:"currentValue"`
	Mortgage     decimal.Decimal `json:"mortgage"`
}

// LifestyleItem is a consumer good (cars, yachts, jewelry) holding resale value
type LifestyleItem struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	CurrentValue decimal.Decimal `json:"currentValue"`
}

func (CashBalance) Category() Category     { return CategoryCash }
func (StockHolding) Category() Category    { return CategoryStocks }
func (CryptoHolding) Category() Category   { return CategoryCrypto }
func (BondHolding) Category() Category     { return CategoryBonds }
func (OtherInvestment) Category() Category { return CategoryOther }
func (PropertyHolding) Category() Category { return CategoryProperties }
func (LifestyleItem) Category() Category   { return CategoryLifestyle }

func (CashBalance) RecordID() string       { return CashRecordID }
func (s StockHolding) RecordID() string    { return s.ID }
func (c CryptoHolding) RecordID() string   { return c.ID }
func (b BondHolding) RecordID() string     { return b.ID }
func (o OtherInvestment) RecordID() string { return o.ID }
func (p PropertyHolding) RecordID() string { return p.ID }
func (l LifestyleItem) RecordID() string   { return l.ID }

func (CashBalance) record()     {}
func (StockHolding) record()    {}
func (CryptoHolding) record()   {}
func (BondHolding) record()     {}
func (OtherInvestment) record() {}
func (PropertyHolding) record() {}
func (LifestyleItem) record()   {}

// MarketValue returns shares × current price
func (s StockHolding) MarketValue() decimal.Decimal {
	return s.Shares.Mul(s.CurrentPrice)
}

// CostBasis returns shares × purchase price
func (s StockHolding) CostBasis() decimal.Decimal {
	return s.Shares.Mul(s.PurchasePrice)
}

// MarketValue returns amount × current price
func (c CryptoHolding) MarketValue() decimal.Decimal {
	return c.Amount.Mul(c.CurrentPrice)
}

// TotalValue returns the bond's contribution to net worth
func (b BondHolding) TotalValue() decimal.Decimal {
	return b.Amount
}

// Equity returns current value minus mortgage; it is negative when underwater
func (p PropertyHolding) Equity() decimal.Decimal {
	return p.CurrentValue.Sub(p.Mortgage)
}

var errNegative = errors.New("must not be negative")

func nonNegative(name string, v decimal.Decimal) error {
	if v.IsNegative() {
		return fmt.Errorf("%w: %s %s", ErrInvalidRecord, name, errNegative)
	}
	return nil
}

func requireID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: id cannot be empty", ErrInvalidRecord)
	}
	return nil
}

// Validate allows negative cash; the game lets the player overdraw
func (c CashBalance) Validate() error { return nil }

// Validate ensures the stock holding adheres to domain rules
func (s StockHolding) Validate() error {
	if err := requireID(s.ID); err != nil {
		return err
	}
	return errors.Join(
		nonNegative("shares", s.Shares),
		nonNegative("purchasePrice", s.PurchasePrice),
		nonNegative("currentPrice", s.CurrentPrice),
	)
}

// Validate ensures the crypto holding adheres to domain rules
func (c CryptoHolding) Validate() error {
	if err := requireID(c.ID); err != nil {
		return err
	}
	return errors.Join(
		nonNegative("amount", c.Amount),
		nonNegative("currentPrice", c.CurrentPrice),
	)
}

// Validate ensures the bond holding adheres to domain rules
func (b BondHolding) Validate() error {
	if err := requireID(b.ID); err != nil {
		return err
	}
	return errors.Join(
		nonNegative("amount", b.Amount),
		nonNegative("maturityValue", b.MaturityValue),
	)
}

func (o OtherInvestment) Validate() error {
	if err := requireID(o.ID); err != nil {
		return err
	}
	return nonNegative("currentValue", o.CurrentValue)
}

// Validate allows a mortgage larger than the value (negative equity)
func (p PropertyHolding) Validate() error {
	if err := requireID(p.ID); err != nil {
		return err
	}
	return errors.Join(
		nonNegative("currentValue", p.CurrentValue),
		nonNegative("mortgage", p.Mortgage),
	)
}

func (l LifestyleItem) Validate() error {
	if err := requireID(l.ID); err != nil {
		return err
	}
	return nonNegative("currentValue", l.CurrentValue)
}

// Holdings holds every asset record of the ledger, one collection per category
type Holdings struct {
	Cash       CashBalance       `json:"cash"`
	Stocks     []StockHolding    `json:"stocks"`
	Crypto     []CryptoHolding   `json:"crypto"`
	Bonds      []BondHolding     `json:"bonds"`
	Other      []OtherInvestment `json:"otherInvestments"`
	Properties []PropertyHolding `json:"properties"`
	Lifestyle  []LifestyleItem   `json:"lifestyle"`
}

// NewHoldings returns empty collections with the given starting cash
func NewHoldings(startingCash decimal.Decimal) Holdings {
	return Holdings{
		Cash:       CashBalance{Amount: startingCash},
		Stocks:     []StockHolding{},
		Crypto:     []CryptoHolding{},
		Bonds:      []BondHolding{},
		Other:      []OtherInvestment{},
		Properties: []PropertyHolding{},
		Lifestyle:  []LifestyleItem{},
	}
}

// Clone returns a copy that shares no slices with h
func (h Holdings) Clone() Holdings {
	return Holdings{
		Cash:       h.Cash,
		Stocks:     append([]StockHolding{}, h.Stocks...),
		Crypto:     append([]CryptoHolding{}, h.Crypto...),
		Bonds:      append([]BondHolding{}, h.Bonds...),
		Other:      append([]OtherInvestment{}, h.Other...),
		Properties: append([]PropertyHolding{}, h.Properties...),
		Lifestyle:  append([]LifestyleItem{}, h.Lifestyle...),
	}
}

// Len returns the number of records in a collection; cash always counts as one
func (h Holdings) Len(c Category) int {
	switch c {
	case CategoryCash:
		return 1
	case CategoryStocks:
		return len(h.Stocks)
	case CategoryCrypto:
		return len(h.Crypto)
	case CategoryBonds:
		return len(h.Bonds)
	case CategoryOther:
		return len(h.Other)
	case CategoryProperties:
		return len(h.Properties)
	case CategoryLifestyle:
		return len(h.Lifestyle)
	}
	return 0
}

// IsEmpty reports whether every collection is empty
func (h Holdings) IsEmpty() bool {
	for _, c := range Collections {
		if h.Len(c) > 0 {
			return false
		}
	}
	return true
}
