package models

import "testing"

func TestComputeAccuracy(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		correct int
		want    float64
	}{
		{"no attempts", 0, 0, 0},
		{"seven of ten", 10, 7, 0.7},
		{"all correct", 4, 4, 1},
		{"none correct", 3, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Metrics{TotalAttempts: tt.total, CorrectCount: tt.correct}
			m.ComputeAccuracy()
			if m.AccuracyRate != tt.want {
				t.Errorf("AccuracyRate = %v, want %v", m.AccuracyRate, tt.want)
			}
		})
	}
}

func TestValidGender(t *testing.T) {
	for _, g := range []string{"male", "female", "other"} {
		if !ValidGender(g) {
			t.Errorf("ValidGender(%q) = false", g)
		}
	}
	for _, g := range []string{"", "Male", "unknown"} {
		if ValidGender(g) {
			t.Errorf("ValidGender(%q) = true", g)
		}
	}
}

func TestValidItemType(t *testing.T) {
	if !ValidItemType(ItemTypeSentence) || !ValidItemType(ItemTypeWord) {
		t.Error("known types should be valid")
	}
	if ValidItemType("paragraph") {
		t.Error("unknown type should be invalid")
	}
}
