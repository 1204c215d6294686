package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Valuation constants for specialty ownership assets
var (
	F1StaffMemberValue     = decimal.NewFromInt(50_000)
	F1PrimaryDriverValue   = decimal.NewFromInt(500_000)
	F1SecondaryDriverValue = decimal.NewFromInt(250_000)
	F1ReputationPointValue = decimal.NewFromInt(10_000)
	F1UpgradeValue         = decimal.NewFromInt(100_000)

	HorseEarningsWeight        = decimal.NewFromFloat(0.5)
	SportsTeamRevenueMultiple  = decimal.NewFromInt(5)
	SportsTeamSalariesMultiple = decimal.NewFromInt(3)
)

// F1Staff counts the team's staff by role
type F1Staff struct {
	Engineers       Number `json:"engineers"`
	Mechanics       Number `json:"mechanics"`
	Aerodynamicists Number `json:"aerodynamicists"`
	Strategists     Number `json:"strategists"`
}

// Total returns the head count across every role
func (s F1Staff) Total() decimal.Decimal {
	return decimal.Sum(
		s.Engineers.Decimal(),
		s.Mechanics.Decimal(),
		s.Aerodynamicists.Decimal(),
		s.Strategists.Decimal(),
	)
}

// F1Driver is a contracted race driver
type F1Driver struct {
	Name string `json:"name"`
}

// F1Drivers holds the two race seats; a nil seat is vacant
type F1Drivers struct {
	Primary   *F1Driver `json:"primary"`
	Secondary *F1Driver `json:"secondary"`
}

// F1Upgrade is a car or facility upgrade that may have been purchased
type F1Upgrade struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Purchased bool   `json:"purchased"`
}

// F1Team is the player's racing team
type F1Team struct {
	Name       string      `json:"name"`
	Budget     Number      `json:"budget"`
	Funds      Number      `json:"funds"`
	Staff      F1Staff     `json:"staff"`
	Drivers    F1Drivers   `json:"drivers"`
	Reputation Number      `json:"reputation"`
	Upgrades   []F1Upgrade `json:"upgrades"`
}

// PurchasedUpgrades counts the upgrades already bought
func (t F1Team) PurchasedUpgrades() int64 {
	var n int64
	for _, u := range t.Upgrades {
		if u.Purchased {
			n++
		}
	}
	return n
}

// Value computes the team valuation:
// budget + funds + 50k×staff + 500k×primary + 250k×secondary + 10k×reputation + 100k×upgrades
func (t F1Team) Value() decimal.Decimal {
	value := t.Budget.Decimal().
		Add(t.Funds.Decimal()).
		Add(F1StaffMemberValue.Mul(t.Staff.Total())).
		Add(F1ReputationPointValue.Mul(t.Reputation.Decimal())).
		Add(F1UpgradeValue.Mul(decimal.NewFromInt(t.PurchasedUpgrades())))
	if t.Drivers.Primary != nil {
		value = value.Add(F1PrimaryDriverValue)
	}
	if t.Drivers.Secondary != nil {
		value = value.Add(F1SecondaryDriverValue)
	}
	return value
}

// InvalidFields names the numeric fields that failed to decode
func (t F1Team) InvalidFields() []string {
	return invalidFields(map[string]Number{
		"budget":                t.Budget,
		"funds":                 t.Funds,
		"reputation":            t.Reputation,
		"staff.engineers":       t.Staff.Engineers,
		"staff.mechanics":       t.Staff.Mechanics,
		"staff.aerodynamicists": t.Staff.Aerodynamicists,
		"staff.strategists":     t.Staff.Strategists,
	})
}

// Horse is a racehorse owned by the player
type Horse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    Number `json:"price"`
	Earnings Number `json:"earnings"`
}

// Value returns price + 0.5 × earnings
func (h Horse) Value() decimal.Decimal {
	return h.Price.Decimal().Add(HorseEarningsWeight.Mul(h.Earnings.Decimal()))
}

// InvalidFields names the numeric fields that failed to decode
func (h Horse) InvalidFields() []string {
	return invalidFields(map[string]Number{"price": h.Price, "earnings": h.Earnings})
}

// HorsesValue sums the value of every horse
func HorsesValue(horses []Horse) decimal.Decimal {
	total := decimal.Zero
	for _, h := range horses {
		total = total.Add(h.Value())
	}
	return total
}

// SportsTeam is a sports franchise owned by the player
type SportsTeam struct {
	Name           string `json:"name"`
	ExplicitValue  Number `json:"value"`
	Revenue        Number `json:"revenue"`
	PlayerSalaries Number `json:"playerSalaries"`
}

// Value returns the explicit value when it is set, else 5×revenue + 3×salaries
func (t SportsTeam) Value() decimal.Decimal {
	if t.ExplicitValue.Valid() {
		return t.ExplicitValue.Value
	}
	return SportsTeamRevenueMultiple.Mul(t.Revenue.Decimal()).
		Add(SportsTeamSalariesMultiple.Mul(t.PlayerSalaries.Decimal()))
}

// InvalidFields names the numeric fields that failed to decode
func (t SportsTeam) InvalidFields() []string {
	return invalidFields(map[string]Number{
		"value":          t.ExplicitValue,
		"revenue":        t.Revenue,
		"playerSalaries": t.PlayerSalaries,
	})
}

func invalidFields(fields map[string]Number) []string {
	var out []string
	for name, n := range fields {
		if n.Invalid {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// HorseValuation is one itemized horse of the ownership breakdown
type HorseValuation struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

// OwnershipBreakdown itemizes specialty assets for the ownership panels
type OwnershipBreakdown struct {
	F1Team          *F1Team          `json:"f1Team,omitempty"`
	F1TeamValue     decimal.Decimal  `json:"f1TeamValue"`
	Horses          []HorseValuation `json:"horses"`
	HorsesValue     decimal.Decimal  `json:"horsesValue"`
	SportsTeam      *SportsTeam      `json:"sportsTeam,omitempty"`
	SportsTeamValue decimal.Decimal  `json:"sportsTeamValue"`
	Total           decimal.Decimal  `json:"total"`
}
