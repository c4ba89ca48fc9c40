package frame

import "testing"

func TestTruncatePercent(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{92.7, 92},
		{51.0, 51},
		{50.0, 50},
		{99.999, 99},
		{0.4, 0},
		{-3, 0},
		{100, 100},
		{104.2, 100},
	}

	for _, tt := range tests {
		if got := TruncatePercent(tt.in); got != tt.want {
			t.Errorf("TruncatePercent(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name   string
		labels []Label
		want   string
	}{
		{
			name:   "no labels",
			labels: nil,
			want:   "",
		},
		{
			name:   "single label",
			labels: []Label{{Name: "Cat", ConfidencePercent: TruncatePercent(92.7)}},
			want:   "'Cat:92%' ",
		},
		{
			name: "multiple labels keep order",
			labels: []Label{
				{Name: "Dog", ConfidencePercent: 51},
				{Name: "Tree", ConfidencePercent: 50},
			},
			want: "'Dog:51%' 'Tree:50%' ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Summarize(tt.labels); got != tt.want {
				t.Errorf("Summarize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewRecord(t *testing.T) {
	labels := []Label{{Name: "Person", ConfidencePercent: 88}}
	rec := NewRecord("img00006.png", 3661, labels)

	if rec.Filename != "img00006.png" {
		t.Errorf("expected filename img00006.png, got %s", rec.Filename)
	}
	if rec.LabelSummary != "'Person:88%' " {
		t.Errorf("unexpected summary %q", rec.LabelSummary)
	}
	if rec.Time() != "1h:01m:01s" {
		t.Errorf("expected time 1h:01m:01s, got %s", rec.Time())
	}
}
