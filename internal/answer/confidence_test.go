package answer

import (
	"math"
	"strings"
	"testing"
)

func TestConfidence(t *testing.T) {
	tests := []struct {
		name                      string
		question, context, answer string
		want                      float64
	}{
		{"empty question", "", "anything", "anything", 0.5},
		{"full overlap", "grace period", "the grace period is long", "grace period applies", 1},
		{"context only", "grace period", "grace period", "no", 2.0 / 3.0},
		{"no overlap floors", "maternity cover", "unrelated", "nothing", 0.5},
		{"repeats weigh per occurrence", "grace grace period", "grace", "grace", 2.0 / 3.0},
		{"case insensitive", "GRACE Period", "grace period", "Grace PERIOD", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Confidence(tt.question, tt.context, tt.answer)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Confidence = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestConfidence_Range(t *testing.T) {
	inputs := []string{"", "a", "a b c", "What is the waiting period for cataract surgery?", "x y z x y z"}
	for _, q := range inputs {
		for _, c := range inputs {
			for _, a := range inputs {
				got := Confidence(q, c, a)
				if got < MinConfidence || got > 1 {
					t.Errorf("Confidence(%q,%q,%q) = %f out of range", q, c, a, got)
				}
			}
		}
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("Q?", "CTX")
	if !strings.Contains(p, "Context:\nCTX") || !strings.Contains(p, "Question: Q?") {
		t.Errorf("unexpected prompt: %s", p)
	}
}
