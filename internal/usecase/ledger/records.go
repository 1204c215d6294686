package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/wealthsim-backend/internal/domain"
	"github.com/simaogato/wealthsim-backend/internal/usecase/notify"
)

// Field names a patchable numeric field of a record
type Field string

const (
	FieldAmount        Field = "amount"
	FieldShares        Field = "shares"
	FieldPurchasePrice Field = "purchasePrice"
	FieldCurrentPrice  Field = "currentPrice"
	FieldMaturityValue Field = "maturityValue"
	FieldCurrentValue  Field = "currentValue"
	FieldMortgage      Field = "mortgage"
)

// Fields is a patch applied by UpdateRecord
type Fields map[Field]decimal.Decimal

type identified interface {
	RecordID() string
}

func indexOf[T identified](items []T, id string) int {
	for i, item := range items {
		if item.RecordID() == id {
			return i
		}
	}
	return -1
}

func without[T identified](items []T, i int) []T {
	out := make([]T, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...)
}

// withID assigns a fresh UUID to records that arrive without one
func withID(r domain.Record) domain.Record {
	if r.RecordID() != "" || r.Category() == domain.CategoryCash {
		return r
	}
	id := uuid.NewString()
	switch v := r.(type) {
	case domain.StockHolding:
		v.ID = id
		return v
	case domain.CryptoHolding:
		v.ID = id
		return v
	case domain.BondHolding:
		v.ID = id
		return v
	case domain.OtherInvestment:
		v.ID = id
		return v
	case domain.PropertyHolding:
		v.ID = id
		return v
	case domain.LifestyleItem:
		v.ID = id
		return v
	}
	return r
}

// AddRecord stores r, merging it into an existing record with the same id.
// It returns the id of the stored record.
func (l *Ledger) AddRecord(ctx context.Context, r domain.Record) (string, error) {
	if r == nil {
		return "", fmt.Errorf("%w: nil record", domain.ErrInvalidRecord)
	}
	r = withID(r)
	if err := r.Validate(); err != nil {
		return "", err
	}

	l.mu.Lock()
	open := l.market.IsOpen(l.now())
	merged := l.mergeLocked(r, open)
	l.saveRecordsLocked(ctx)
	l.mu.Unlock()

	detail := "added"
	if merged {
		detail = "merged"
	}
	l.publish(notify.RecordsChanged, r.Category(), r.RecordID(), detail)
	return r.RecordID(), nil
}

// mergeLocked adds r to its collection and reports whether an existing record absorbed it
func (l *Ledger) mergeLocked(r domain.Record, marketOpen bool) bool {
	h := &l.holdings
	switch v := r.(type) {
	case domain.CashBalance:
		h.Cash.Amount = h.Cash.Amount.Add(v.Amount)
		return true

	case domain.StockHolding:
		i := indexOf(h.Stocks, v.ID)
		if i < 0 {
			h.Stocks = append(h.Stocks, v)
			return false
		}
		cur := h.Stocks[i]
		shares := cur.Shares.Add(v.Shares)
		if shares.IsPositive() {
			cost := cur.CostBasis().Add(v.CostBasis())
			cur.PurchasePrice = cost.Div(shares)
		}
		cur.Shares = shares
		if marketOpen {
			cur.CurrentPrice = v.CurrentPrice
		}
		if cur.Symbol == "" {
			cur.Symbol = v.Symbol
		}
		h.Stocks[i] = cur
		return true

	case domain.CryptoHolding:
		i := indexOf(h.Crypto, v.ID)
		if i < 0 {
			h.Crypto = append(h.Crypto, v)
			return false
		}
		cur := h.Crypto[i]
		cur.Amount = cur.Amount.Add(v.Amount)
		if marketOpen {
			cur.CurrentPrice = v.CurrentPrice
		}
		if cur.Symbol == "" {
			cur.Symbol = v.Symbol
		}
		h.Crypto[i] = cur
		return true

	case domain.BondHolding:
		i := indexOf(h.Bonds, v.ID)
		if i < 0 {
			h.Bonds = append(h.Bonds, v)
			return false
		}
		cur := h.Bonds[i]
		cur.Amount = cur.Amount.Add(v.Amount)
		cur.MaturityValue = cur.MaturityValue.Add(v.MaturityValue)
		if v.MaturityDate.After(cur.MaturityDate) {
			cur.MaturityDate = v.MaturityDate
		}
		h.Bonds[i] = cur
		return true

	case domain.OtherInvestment:
		i := indexOf(h.Other, v.ID)
		if i < 0 {
			h.Other = append(h.Other, v)
			return false
		}
		h.Other[i].CurrentValue = h.Other[i].CurrentValue.Add(v.CurrentValue)
		return true

	case domain.PropertyHolding:
		i := indexOf(h.Properties, v.ID)
		if i < 0 {
			h.Properties = append(h.Properties, v)
			return false
		}
		h.Properties[i].CurrentValue = h.Properties[i].CurrentValue.Add(v.CurrentValue)
		h.Properties[i].Mortgage = h.Properties[i].Mortgage.Add(v.Mortgage)
		return true

	case domain.LifestyleItem:
		i := indexOf(h.Lifestyle, v.ID)
		if i < 0 {
			h.Lifestyle = append(h.Lifestyle, v)
			return false
		}
		h.Lifestyle[i].CurrentValue = h.Lifestyle[i].CurrentValue.Add(v.CurrentValue)
		return true
	}
	return false
}

func inapplicable(category domain.Category, f Field) error {
	return fmt.Errorf("%w: %s on %s", domain.ErrInvalidField, f, category)
}

// UpdateRecord patches the named fields of the record id in category.
// Price fields of stocks and crypto only change while the market is open.
// An unknown id is logged and ignored.
func (l *Ledger) UpdateRecord(ctx context.Context, category domain.Category, id string, fields Fields) error {
	if _, err := domain.ParseCategory(string(category)); err != nil {
		return err
	}

	l.mu.Lock()
	open := l.market.IsOpen(l.now())
	found, gated, err := l.patchLocked(category, id, fields, open)
	if err == nil && found {
		l.saveRecordsLocked(ctx)
	}
	l.mu.Unlock()

	if err != nil {
		return err
	}
	if !found {
		l.log.Warn("update of unknown record ignored",
			"category", category, "id", id, "err", domain.ErrLookupMiss)
		return nil
	}
	if gated {
		l.log.Info("market closed, price left unchanged", "category", category, "id", id)
	}
	l.publish(notify.RecordsChanged, category, id, "updated")
	return nil
}

// patchLocked applies fields to a copy of the record and stores it only when
// every field applies and the result validates
func (l *Ledger) patchLocked(category domain.Category, id string, fields Fields, marketOpen bool) (found, gated bool, err error) {
	h := &l.holdings
	switch category {
	case domain.CategoryCash:
		cash := h.Cash
		for f, v := range fields {
			if f != FieldAmount {
				return true, false, inapplicable(category, f)
			}
			cash.Amount = v
		}
		h.Cash = cash

	case domain.CategoryStocks:
		i := indexOf(h.Stocks, id)
		if i < 0 {
			return false, false, nil
		}
		s := h.Stocks[i]
		for f, v := range fields {
			switch f {
			case FieldShares:
				s.Shares = v
			case FieldPurchasePrice:
				s.PurchasePrice = v
			case FieldCurrentPrice:
				if marketOpen {
					s.CurrentPrice = v
				} else {
					gated = true
				}
			default:
				return true, false, inapplicable(category, f)
			}
		}
		if err := s.Validate(); err != nil {
			return true, false, err
		}
		h.Stocks[i] = s

	case domain.CategoryCrypto:
		i := indexOf(h.Crypto, id)
		if i < 0 {
			return false, false, nil
		}
		c := h.Crypto[i]
		for f, v := range fields {
			switch f {
			case FieldAmount:
				c.Amount = v
			case FieldCurrentPrice:
				if marketOpen {
					c.CurrentPrice = v
				} else {
					gated = true
				}
			default:
				return true, false, inapplicable(category, f)
			}
		}
		if err := c.Validate(); err != nil {
			return true, false, err
		}
		h.Crypto[i] = c

	case domain.CategoryBonds:
		i := indexOf(h.Bonds, id)
		if i < 0 {
			return false, false, nil
		}
		b := h.Bonds[i]
		for f, v := range fields {
			switch f {
			case FieldAmount:
				b.Amount = v
			case FieldMaturityValue:
				b.MaturityValue = v
			default:
				return true, false, inapplicable(category, f)
			}
		}
		if err := b.Validate(); err != nil {
			return true, false, err
		}
		h.Bonds[i] = b

	case domain.CategoryOther:
		i := indexOf(h.Other, id)
		if i < 0 {
			return false, false, nil
		}
		o := h.Other[i]
		for f, v := range fields {
			if f != FieldCurrentValue {
				return true, false, inapplicable(category, f)
			}
			o.CurrentValue = v
		}
		if err := o.Validate(); err != nil {
			return true, false, err
		}
		h.Other[i] = o

	case domain.CategoryProperties:
		i := indexOf(h.Properties, id)
		if i < 0 {
			return false, false, nil
		}
		p := h.Properties[i]
		for f, v := range fields {
			switch f {
			case FieldCurrentValue:
				p.CurrentValue = v
			case FieldMortgage:
				p.Mortgage = v
			default:
				return true, false, inapplicable(category, f)
			}
		}
		if err := p.Validate(); err != nil {
			return true, false, err
		}
		h.Properties[i] = p

	case domain.CategoryLifestyle:
		i := indexOf(h.Lifestyle, id)
		if i < 0 {
			return false, false, nil
		}
		li := h.Lifestyle[i]
		for f, v := range fields {
			if f != FieldCurrentValue {
				return true, false, inapplicable(category, f)
			}
			li.CurrentValue = v
		}
		if err := li.Validate(); err != nil {
			return true, false, err
		}
		h.Lifestyle[i] = li
	}
	return true, gated, nil
}

// UpdateStockPrice sets the share count and, while the market is open, the price
func (l *Ledger) UpdateStockPrice(ctx context.Context, id string, shares, price decimal.Decimal) error {
	return l.UpdateRecord(ctx, domain.CategoryStocks, id, Fields{
		FieldShares:       shares,
		FieldCurrentPrice: price,
	})
}

// UpdateCryptoPrice sets the held amount and, while the market is open, the price
func (l *Ledger) UpdateCryptoPrice(ctx context.Context, id string, amount, price decimal.Decimal) error {
	return l.UpdateRecord(ctx, domain.CategoryCrypto, id, Fields{
		FieldAmount:       amount,
		FieldCurrentPrice: price,
	})
}

// RemoveRecord drops the record id from category; cash cannot be removed
func (l *Ledger) RemoveRecord(ctx context.Context, category domain.Category, id string) error {
	if _, err := domain.ParseCategory(string(category)); err != nil {
		return err
	}
	if category == domain.CategoryCash {
		return fmt.Errorf("%w: cash cannot be removed", domain.ErrInvalidRecord)
	}

	l.mu.Lock()
	removed := l.removeLocked(category, id)
	if removed {
		l.saveRecordsLocked(ctx)
	}
	l.mu.Unlock()

	if !removed {
		l.log.Warn("removal of unknown record ignored",
			"category", category, "id", id, "err", domain.ErrLookupMiss)
		return nil
	}
	l.publish(notify.RecordsChanged, category, id, "removed")
	return nil
}

func (l *Ledger) removeLocked(category domain.Category, id string) bool {
	h := &l.holdings
	switch category {
	case domain.CategoryStocks:
		if i := indexOf(h.Stocks, id); i >= 0 {
			h.Stocks = without(h.Stocks, i)
			return true
		}
	case domain.CategoryCrypto:
		if i := indexOf(h.Crypto, id); i >= 0 {
			h.Crypto = without(h.Crypto, i)
			return true
		}
	case domain.CategoryBonds:
		if i := indexOf(h.Bonds, id); i >= 0 {
			h.Bonds = without(h.Bonds, i)
			return true
		}
	case domain.CategoryOther:
		if i := indexOf(h.Other, id); i >= 0 {
			h.Other = without(h.Other, i)
			return true
		}
	case domain.CategoryProperties:
		if i := indexOf(h.Properties, id); i >= 0 {
			h.Properties = without(h.Properties, i)
			return true
		}
	case domain.CategoryLifestyle:
		if i := indexOf(h.Lifestyle, id); i >= 0 {
			h.Lifestyle = without(h.Lifestyle, i)
			return true
		}
	}
	return false
}
