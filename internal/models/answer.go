package models

// AnswerRecord is the outcome of answering one question against a document.
type AnswerRecord struct {
	Question        string  `json:"question"`
	Answer          string  `json:"answer"`
	Confidence      float64 `json:"confidence"`
	SourceSection   string  `json:"source_section,omitempty"`
	SimilarityScore float64 `json:"similarity_score"`
	TokensUsed      int     `json:"tokens_used"`
	// ProcessingTime is the elapsed wall-clock time in seconds since the job started.
	ProcessingTime float64 `json:"processing_time"`
	// Failed is set when Answer is an error placeholder rather than a synthesized answer.
	Failed bool `json:"failed,omitempty"`
}
