// Per-step validation for the calculator form. Validation never touches
// storage; it inspects the snapshot and reports machine-readable field errors
// the frontend can attach to inputs.
package pricing

import (
	"fmt"
	"strings"
)

// FieldError describes one violated constraint on a named input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidateStep checks the snapshot fields belonging to the given step.
// A nil slice means the step input is valid. Unknown steps yield a single
// "step" error so clients cannot probe arbitrary values.
func ValidateStep(step int, data map[string]any) []FieldError {
	var errs []FieldError
	add := func(field, msg string) {
		errs = append(errs, FieldError{Field: field, Message: msg})
	}

	switch step {
	case StepProperty:
		sqm, ok := num(data, "propertySize")
		switch {
		case !ok:
			add("propertySize", "property size is required")
		case sqm < 10 || sqm > 1000:
			add("propertySize", "property size must be between 10 and 1000 m²")
		}

	case StepService:
		tier := strings.ToLower(strings.TrimSpace(str(data, "serviceTier")))
		if tier == "" {
			add("serviceTier", "service tier is required")
		} else if _, known := tierBase[tier]; !known {
			add("serviceTier", "service tier must be one of: standard, express, premium")
		}
		km, ok := num(data, "distanceKm")
		switch {
		case !ok:
			add("distanceKm", "distance is required")
		case km < 0 || km > 3000:
			add("distanceKm", "distance must be between 0 and 3000 km")
		}

	case StepExtras:
		for i, e := range strSlice(data, "extras") {
			if _, known := extraPrice[strings.ToLower(strings.TrimSpace(e))]; !known {
				add(fmt.Sprintf("extras[%d]", i), "unknown extra: "+e)
			}
		}
		if code := strings.TrimSpace(str(data, "promoCode")); code != "" {
			if _, known := promoPercent[strings.ToUpper(code)]; !known {
				add("promoCode", "promo code is not valid")
			}
		}

	case StepContact:
		// Contact fields are optional at this stage; the submission payload
		// enforces their format when present.

	default:
		add("step", fmt.Sprintf("unknown step %d", step))
	}

	return errs
}
