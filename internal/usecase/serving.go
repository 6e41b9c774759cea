package usecase

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/jacob-sycoff/tibera-health-backend/internal/domain"
)

// servingCountTolerance is the count equality tolerance when comparing a
// logged serving phrase against a product's serving size.
const servingCountTolerance = 1e-6

var (
	// servingLabelRegex strips a leading "serving size:" label.
	servingLabelRegex = regexp.MustCompile(`(?i)^\s*serving\s+size\s*:?\s*`)

	// servingTokenRegex matches the first <number><unit-word> token pair in a
	// serving-size label, e.g. "2 capsules". The unit word is letters, µ/μ,
	// spaces, and hyphens, capped at 25 characters.
	servingTokenRegex = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([a-zA-Zµμ][a-zA-Zµμ\s\-]{0,24})`)
)

// ParseServingSize extracts a {count, unit} pair from free-text vendor
// serving-size copy such as "Serving Size: 2 capsules (1060 mg)". Only the
// first numeric+unit token is trusted; anything after the first parenthetical
// is ignored (it typically repeats the same information in a different unit).
// Returns nil when nothing usable can be extracted.
func ParseServingSize(raw string) *domain.ServingSpec {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	if idx := strings.Index(s, "("); idx >= 0 {
		s = s[:idx]
	}
	s = servingLabelRegex.ReplaceAllString(s, "")

	m := servingTokenRegex.FindStringSubmatch(s)
	if m == nil {
		return nil
	}

	count, err := strconv.ParseFloat(m[1], 64)
	if err != nil || math.IsNaN(count) || math.IsInf(count, 0) || count <= 0 {
		return nil
	}

	unit := Singularize(m[2])
	if unit == "" {
		return nil
	}

	return &domain.ServingSpec{Count: count, Unit: unit}
}

// ResolveServingMultiplier computes how many label servings a logged dose
// represents. ok=false means the logged unit cannot be safely interpreted
// against the product's serving size; callers must omit the contribution
// rather than guess.
//
// Supplement labels are inconsistent about whether a "serving" is 1 capsule
// or N capsules, so the resolver refuses to guess when units do not line up.
func ResolveServingMultiplier(dosage float64, loggedUnit, servingSize string) (float64, bool) {
	if math.IsNaN(dosage) || math.IsInf(dosage, 0) || dosage <= 0 {
		dosage = 1
	}

	spec := ParseServingSize(servingSize)
	logged := Singularize(loggedUnit)

	if spec == nil {
		// Without a parseable serving size only "servings" (or nothing) can
		// be interpreted.
		if logged == "" || logged == "serving" {
			return dosage, true
		}
		return 0, false
	}

	// The user may have logged in serving-equivalent units already, e.g.
	// a logged unit of "2 capsules" against a "2 capsules" serving size.
	if loggedSpec := ParseServingSize(loggedUnit); loggedSpec != nil {
		if loggedSpec.Unit == spec.Unit && math.Abs(loggedSpec.Count-spec.Count) < servingCountTolerance {
			return dosage, true
		}
	}

	if logged == "" || logged == "serving" {
		return dosage, true
	}

	// Raw unit count, e.g. "3 capsules" logged against a "2 capsules"
	// serving size.
	if logged == spec.Unit {
		return dosage / spec.Count, true
	}

	// Compatible mass units resolve by exact conversion through a common
	// milligram basis, e.g. "1000 mcg" logged against a "1 mg" serving size.
	if loggedMg, ok := MassToMilligrams(dosage, logged); ok {
		if servingMg, ok := MassToMilligrams(spec.Count, spec.Unit); ok && servingMg > 0 {
			return loggedMg / servingMg, true
		}
	}

	return 0, false
}
