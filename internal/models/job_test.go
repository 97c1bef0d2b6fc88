package models

import (
	"testing"
)

func TestProcessingRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     *ProcessingRequest
		wantErr bool
	}{
		{"missing url", &ProcessingRequest{Questions: []string{"q"}}, true},
		{"blank url", &ProcessingRequest{Documents: "  ", Questions: []string{"q"}}, true},
		{"no questions", &ProcessingRequest{Documents: "http://x/doc.pdf"}, true},
		{"empty question", &ProcessingRequest{Documents: "http://x/doc.pdf", Questions: []string{"a", " "}}, true},
		{"valid", &ProcessingRequest{Documents: "http://x/doc.pdf", Questions: []string{" What is covered? "}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && tt.req.Questions[0] != "What is covered?" {
				t.Errorf("expected question to be trimmed, got %q", tt.req.Questions[0])
			}
		})
	}
}

func TestStatus_Terminal(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusError, StatusPartial} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []Status{StatusIdle, StatusProcessing} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestProcessingResult_Response(t *testing.T) {
	r := &ProcessingResult{
		Answers:  []string{"a"},
		Metadata: ResultMetadata{TokenCount: 3, ConfidenceScores: []float64{0.7}, DocumentProcessed: true},
		Records:  []*AnswerRecord{{Question: "q", Answer: "a"}},
	}
	resp := r.Response()
	if len(resp.Answers) != 1 || resp.Metadata.TokenCount != 3 {
		t.Errorf("unexpected response: %+v", resp)
	}
}
