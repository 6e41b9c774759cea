package usecase

import "testing"

func TestNormalizeUnit(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "Capsules", "capsules"},
		{"strips punctuation", "mg.", "mg"},
		{"keeps micro sign", "µg", "µg"},
		{"keeps greek mu", "μg", "μg"},
		{"collapses whitespace", "  fl   oz ", "fl oz"},
		{"keeps hyphens", "soft-gel", "soft-gel"},
		{"strips parens", "(2 capsules)", "2 capsules"},
		{"empty input", "", ""},
		{"only punctuation", "!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeUnit(tt.input); got != tt.want {
				t.Errorf("NormalizeUnit(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSingularize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Capsules", "capsule"},
		{"tablets", "tablet"},
		{"softgels", "softgel"},
		{"gummies", "gummy"},
		{"servings", "serving"},
		{"berries", "berry"},
		{"scoops", "scoop"},
		{"mg", "mg"}, // too short for trailing-s removal
		{"g", "g"},
		{"gs", "gs"},
		{"capsule", "capsule"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Singularize(tt.input); got != tt.want {
				t.Errorf("Singularize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMassToMilligrams(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		unit   string
		want   float64
		wantOK bool
	}{
		{"mg passthrough", 400, "mg", 400, true},
		{"mcg", 1000, "mcg", 1, true},
		{"micro sign", 500, "µg", 0.5, true},
		{"greek mu", 500, "μg", 0.5, true},
		{"grams", 1.5, "g", 1500, true},
		{"uppercase mg", 10, "MG", 10, true},
		{"not a mass unit", 2, "capsules", 0, false},
		{"iu is not mass", 400, "IU", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MassToMilligrams(tt.amount, tt.unit)
			if ok != tt.wantOK {
				t.Fatalf("MassToMilligrams(%v, %q) ok = %v, want %v", tt.amount, tt.unit, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("MassToMilligrams(%v, %q) = %v, want %v", tt.amount, tt.unit, got, tt.want)
			}
		})
	}
}

func TestIsDirectAmountUnit(t *testing.T) {
	for _, unit := range []string{"mg", "mcg", "µg", "μg", "g", "kcal", "IU", "CFU"} {
		if !IsDirectAmountUnit(unit) {
			t.Errorf("IsDirectAmountUnit(%q) = false, want true", unit)
		}
	}
	for _, unit := range []string{"capsule", "capsules", "serving", "oz", ""} {
		if IsDirectAmountUnit(unit) {
			t.Errorf("IsDirectAmountUnit(%q) = true, want false", unit)
		}
	}
}
