package embedding

import (
	"testing"
)

func TestSimpleTokenizer_Tokenize(t *testing.T) {
	tok := &SimpleTokenizer{}
	ids, attn, types := tok.Tokenize("Grace period, thirty days.", 10)
	if len(ids) != 10 || len(attn) != 10 || len(types) != 10 {
		t.Fatalf("unexpected lengths %d/%d/%d", len(ids), len(attn), len(types))
	}
	if ids[0] != clsTokenID {
		t.Errorf("expected CLS %d, got %d", clsTokenID, ids[0])
	}
	if ids[5] != sepTokenID {
		t.Errorf("expected SEP after 4 words, got %d", ids[5])
	}
	for i := 1; i < 5; i++ {
		if ids[i] < 1000 || ids[i] >= vocabBuckets {
			t.Errorf("token %d out of range: %d", i, ids[i])
		}
	}
	if attn[6] != 0 {
		t.Error("padding should not be attended")
	}
}

func TestSimpleTokenizer_Truncates(t *testing.T) {
	ids, _, _ := (&SimpleTokenizer{}).Tokenize("a b c d e f g h", 4)
	if len(ids) != 4 {
		t.Fatalf("len(ids)=%d", len(ids))
	}
	if ids[3] != sepTokenID {
		t.Errorf("last token should be SEP, got %d", ids[3])
	}
}

func TestWords(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"  Grace  PERIOD: 30 days. ", []string{"grace", "period", "30", "days"}},
		{"", nil},
		{"...", nil},
	}
	for _, tt := range tests {
		got := Words(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("Words(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Words(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}

func TestHashString(t *testing.T) {
	if HashString("abc") == HashString("abd") {
		t.Error("expected different hashes")
	}
	if HashString("abc") != HashString("abc") {
		t.Error("hash should be deterministic")
	}
	if HashString("some long string with many characters") < 0 {
		t.Error("hash should be non-negative")
	}
}
