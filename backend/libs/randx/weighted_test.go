package randx

import "testing"

type scriptedRand struct {
	draws []float64
	pos   int
}

func (s *scriptedRand) Float64() float64 {
	if s.pos >= len(s.draws) {
		return 0
	}
	v := s.draws[s.pos]
	s.pos++
	return v
}

func (s *scriptedRand) Intn(n int) int { return 0 }

func TestNewWeightedChooserValidation(t *testing.T) {
	cases := []struct {
		name    string
		values  []string
		weights []float64
		wantErr bool
	}{
		{"valid", []string{"a", "b"}, []float64{0.7, 0.3}, false},
		{"sum below one", []string{"a", "b"}, []float64{0.5, 0.3}, true},
		{"sum above one", []string{"a", "b"}, []float64{0.8, 0.3}, true},
		{"negative weight", []string{"a", "b"}, []float64{1.2, -0.2}, true},
		{"length mismatch", []string{"a"}, []float64{0.5, 0.5}, true},
		{"empty", nil, nil, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewWeightedChooser(tc.values, tc.weights)
			if (err != nil) != tc.wantErr {
				t.Fatalf("NewWeightedChooser() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestChooseBuckets(t *testing.T) {
	chooser, err := NewWeightedChooser(
		[]string{"nominal", "degraded", "critical"},
		[]float64{0.8, 0.15, 0.05},
	)
	if err != nil {
		t.Fatalf("NewWeightedChooser() error = %v", err)
	}

	cases := []struct {
		draw float64
		want string
	}{
		{0.0, "nominal"},
		{0.79, "nominal"},
		{0.8, "degraded"},
		{0.94, "degraded"},
		{0.96, "critical"},
		{0.999999, "critical"},
	}

	for _, tc := range cases {
		got := chooser.Choose(&scriptedRand{draws: []float64{tc.draw}})
		if got != tc.want {
			t.Errorf("Choose(draw=%v) = %q, want %q", tc.draw, got, tc.want)
		}
	}
}
