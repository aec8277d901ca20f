package domain

import "testing"

func TestDefaultWeightsValid(t *testing.T) {
	if err := DefaultWeights().Validate(); err != nil {
		t.Fatalf("default weights invalid: %v", err)
	}
}

func TestNewWeights(t *testing.T) {
	cases := []struct {
		name    string
		values  [5]float64
		wantErr bool
	}{
		{"default profile", [5]float64{0.3, 0.2, 0.2, 0.2, 0.1}, false},
		{"uniform profile", [5]float64{0.2, 0.2, 0.2, 0.2, 0.2}, false},
		{"within tolerance", [5]float64{0.2995, 0.2, 0.2, 0.2, 0.1}, false},
		{"sum too low", [5]float64{0.25, 0.2, 0.2, 0.2, 0.1}, true},
		{"sum too high", [5]float64{0.35, 0.2, 0.2, 0.2, 0.1}, true},
		{"negative weight", [5]float64{-0.1, 0.4, 0.3, 0.2, 0.2}, true},
		{"weight above one", [5]float64{1.2, 0, 0, 0, -0.2}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, err := NewWeights(tc.values)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("NewWeights(%v) succeeded, want error", tc.values)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewWeights(%v) failed: %v", tc.values, err)
			}
			if w.QuestionAnswer != tc.values[0] || w.Firmographics != tc.values[4] {
				t.Errorf("weights not mapped in dimension order: %+v", w)
			}
		})
	}
}
