// Package pricing implements the calculator behind the multi-step quote form.
// It is pure arithmetic over the untyped input snapshot: no storage, no
// transport, no side effects. The same computation backs /api/calculate and
// the final total check during submission.
package pricing

import (
	"math"
	"strings"

	"github.com/quotora/go-quote-backend/internal/domain"
)

// Calculator steps, in form order.
const (
	StepProperty = 1 // property size
	StepService  = 2 // service tier and distance
	StepExtras   = 3 // optional add-ons and promo code
	StepContact  = 4 // contact details (no pricing input)
)

// Rate table in minor currency units. Values are intentionally simple
// constants; the original product tuned these per market.
const (
	rateAreaPerSqm    = 350
	rateDistancePerKm = 120
)

var tierBase = map[string]int64{
	"standard": 29900,
	"express":  44900,
	"premium":  59900,
}

var extraPrice = map[string]int64{
	"packing":   15000,
	"storage":   25000,
	"insurance": 9900,
	"assembly":  12000,
}

// promo codes map to a percentage discount on the subtotal.
var promoPercent = map[string]int64{
	"WELCOME10": 10,
	"SPRING15":  15,
}

// Result is the computed outcome for a snapshot: a non-negative total, the
// currency it is denominated in, and the signed itemized breakdown whose sum
// equals the total.
type Result struct {
	TotalPrice int64            `json:"totalPrice"`
	Currency   string           `json:"currency"`
	Breakdown  domain.Breakdown `json:"breakdown"`
}

// Calculate prices a snapshot. Fields belonging to steps the user has not
// reached yet are simply absent and contribute nothing, so partial snapshots
// produce running totals as the form progresses. The total is clamped to be
// non-negative and the breakdown always sums to it exactly.
func Calculate(data map[string]any, currency string) Result {
	bd := domain.Breakdown{}

	tier := normalizeTier(str(data, "serviceTier"))
	bd["base"] = tierBase[tier]

	if sqm, ok := num(data, "propertySize"); ok && sqm > 0 {
		bd["area"] = int64(math.Round(sqm)) * rateAreaPerSqm
	}
	if km, ok := num(data, "distanceKm"); ok && km > 0 {
		bd["distance"] = int64(math.Round(km)) * rateDistancePerKm
	}
	if extras := strSlice(data, "extras"); len(extras) > 0 {
		var sum int64
		for _, e := range extras {
			sum += extraPrice[strings.ToLower(strings.TrimSpace(e))]
		}
		if sum > 0 {
			bd["extras"] = sum
		}
	}

	subtotal := bd.Sum()
	if pct := promoPercent[strings.ToUpper(strings.TrimSpace(str(data, "promoCode")))]; pct > 0 && subtotal > 0 {
		bd["discount"] = -(subtotal * pct) / 100
	}

	total := bd.Sum()
	if total < 0 {
		// Keep the invariant breakdown-sum == total by absorbing the
		// overshoot into the discount line.
		bd["discount"] -= total
		total = 0
	}

	return Result{TotalPrice: total, Currency: currency, Breakdown: bd}
}

// normalizeTier lowercases the tier and falls back to the entry-level tier
// for unknown or missing values, mirroring the form's default selection.
func normalizeTier(tier string) string {
	tier = strings.ToLower(strings.TrimSpace(tier))
	if _, ok := tierBase[tier]; !ok {
		return "standard"
	}
	return tier
}

// --- snapshot accessors ---
//
// JSON unmarshals every number as float64; these helpers centralize the
// type sniffing so the rest of the package reads cleanly.

func str(data map[string]any, key string) string {
	if v, ok := data[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func num(data map[string]any, key string) (float64, bool) {
	switch v := data[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func strSlice(data map[string]any, key string) []string {
	raw, ok := data[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		if s, ok := e.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
