package payment

import (
	"github.com/shopspring/decimal"

	"taskbounty/portal/internal/constants"
)

// Plan is a poster subscription offer.
type Plan struct {
	Type   constants.PlanType
	Name   string
	Price  decimal.Decimal
	Period string
	Perks  []string
}

var Plans = []Plan{
	{
		Type:   constants.PlanMonthly,
		Name:   "Monthly",
		Price:  decimal.NewFromInt(299),
		Period: "month",
		Perks:  []string{"Post unlimited tasks", "Premium poster badge", "Priority support"},
	},
	{
		Type:   constants.PlanYearly,
		Name:   "Yearly",
		Price:  decimal.NewFromInt(2999),
		Period: "year",
		Perks:  []string{"Everything in Monthly", "Two months free"},
	},
}

// PlanFor looks a plan up by type.
func PlanFor(t constants.PlanType) (Plan, bool) {
	for _, p := range Plans {
		if p.Type == t {
			return p, true
		}
	}
	return Plan{}, false
}

// ToSubunits converts rupees to paise as the checkout widget expects.
func ToSubunits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
