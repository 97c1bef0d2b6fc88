// Package cli implements the docqa command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/docqa/internal/keyword"
	"github.com/hyperjump/docqa/internal/models"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q; use text or json", s)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteResult writes a processing result to w in the given format.
func WriteResult(w io.Writer, result *models.ProcessingResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, result)
	}
	for i, answer := range result.Answers {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		if i < len(result.Records) && result.Records[i] != nil {
			rec := result.Records[i]
			fmt.Fprintf(w, "Q%d: %s\n\n%s\n\n", i+1, rec.Question, answer)
			if rec.Failed {
				fmt.Fprintln(w, "(not answered)")
			} else {
				fmt.Fprintf(w, "Confidence: %.2f | Section: %s | Similarity: %.4f | Tokens: %d\n",
					rec.Confidence, rec.SourceSection, rec.SimilarityScore, rec.TokensUsed)
			}
		} else {
			fmt.Fprintf(w, "A%d: %s\n", i+1, answer)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "%d answers in %.2fs, %d tokens", len(result.Answers),
		result.Metadata.ProcessingTime, result.Metadata.TokenCount)
	if result.Partial {
		fmt.Fprint(w, " (partial)")
	}
	fmt.Fprintln(w)
	return nil
}

// WriteStatus writes a job status to w in the given format.
func WriteStatus(w io.Writer, id string, status *models.ProcessingStatus, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, status)
	}
	fmt.Fprintf(w, "job:       %s\n", id)
	fmt.Fprintf(w, "status:    %s\n", status.Status)
	fmt.Fprintf(w, "progress:  %d%%\n", status.Progress)
	if status.Message != "" {
		fmt.Fprintf(w, "message:   %s\n", status.Message)
	}
	if !status.UpdatedAt.IsZero() {
		fmt.Fprintf(w, "updated:   %s\n", status.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// WriteHistory writes answer history hits to w in the given format.
func WriteHistory(w io.Writer, query string, hits []*keyword.HistoryHit, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, hits)
	}
	fmt.Fprintf(w, "\nFound %d answers for %q\n\n", len(hits), query)
	for i, hit := range hits {
		fmt.Fprintf(w, "[%d] Score: %.4f | Job: %s\n", i+1, hit.Score, hit.JobID)
		fmt.Fprintf(w, "Q: %s\n", hit.Question)
		fmt.Fprintf(w, "A: %s\n\n", TruncateWords(hit.Answer, 40))
	}
	return nil
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
