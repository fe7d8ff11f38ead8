package classify

import "testing"

func TestClassifyTiers(t *testing.T) {
	base := Pollutants{Lead: 0.1, Mercury: 0.01, Cadmium: 0.01, Arsenic: 0.01}

	if got := Classify(base); got != StatusSafe {
		t.Fatalf("expected safe, got %s", got)
	}

	caution := base
	caution.Lead = 0.3
	if got := Classify(caution); got != StatusCaution {
		t.Fatalf("expected caution, got %s", got)
	}

	danger := base
	danger.Lead = 0.6
	if got := Classify(danger); got != StatusDanger {
		t.Fatalf("expected danger, got %s", got)
	}
}

func TestClassifyWorstParameterWins(t *testing.T) {
	// Every metal safe except mercury, which is past its caution bound.
	p := Pollutants{Lead: 0.05, Mercury: 0.2, Cadmium: 0.01, Arsenic: 0.01}
	if got := Classify(p); got != StatusDanger {
		t.Fatalf("expected danger from mercury alone, got %s", got)
	}

	// A single caution-band metal should not be masked by safe ones.
	p = Pollutants{Lead: 0.05, Mercury: 0.01, Cadmium: 0.05, Arsenic: 0.01}
	if got := Classify(p); got != StatusCaution {
		t.Fatalf("expected caution from cadmium alone, got %s", got)
	}
}

// Severity must be non-decreasing as any single parameter increases.
func TestClassifyMonotonic(t *testing.T) {
	base := Pollutants{Lead: 0.0, Mercury: 0.01, Cadmium: 0.01, Arsenic: 0.01}

	prev := 0
	for lead := 0.0; lead <= 1.0; lead += 0.01 {
		p := base
		p.Lead = lead
		sev := Classify(p).Severity()
		if sev < prev {
			t.Fatalf("severity regressed at lead=%.2f: %d -> %d", lead, prev, sev)
		}
		prev = sev
	}
	if prev != StatusDanger.Severity() {
		t.Fatalf("sweep should end in danger, ended at severity %d", prev)
	}
}

func TestClassifyThresholdEdges(t *testing.T) {
	// Values exactly at a bound stay in the lower tier.
	p := Pollutants{Lead: 0.2, Mercury: 0.05, Cadmium: 0.03, Arsenic: 0.05}
	if got := Classify(p); got != StatusSafe {
		t.Fatalf("values at the safe bound should be safe, got %s", got)
	}
	p = Pollutants{Lead: 0.5, Mercury: 0.1, Cadmium: 0.06, Arsenic: 0.1}
	if got := Classify(p); got != StatusCaution {
		t.Fatalf("values at the caution bound should be caution, got %s", got)
	}
}

func TestClassifyWaterQuality(t *testing.T) {
	cases := []struct {
		name string
		ph   float64
		tds  float64
		want Status
	}{
		{"neutral", 7.2, 150, StatusSafe},
		{"ph caution low", 6.2, 150, StatusCaution},
		{"ph caution high", 8.8, 150, StatusCaution},
		{"ph danger acid", 4.5, 150, StatusDanger},
		{"ph danger alkaline", 9.5, 150, StatusDanger},
		{"tds caution", 7.0, 400, StatusCaution},
		{"tds danger", 7.0, 800, StatusDanger},
		{"worst of both", 6.2, 800, StatusDanger},
		{"safe edges", 6.5, 300, StatusSafe},
	}

	for _, tc := range cases {
		if got := ClassifyWaterQuality(tc.ph, tc.tds); got != tc.want {
			t.Errorf("%s: ClassifyWaterQuality(%v, %v) = %s, want %s", tc.name, tc.ph, tc.tds, got, tc.want)
		}
	}
}
