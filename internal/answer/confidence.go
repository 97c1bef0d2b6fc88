package answer

import "strings"

// MinConfidence is the floor applied to every synthesized answer.
const MinConfidence = 0.5

// Confidence scores lexical overlap between the question and the context and answer.
// Every lowercase question word, repeats included, earns 1 when it appears in the
// context and 0.5 when it appears in the answer. The sum is divided by the maximum
// possible score (word count times 1.5), capped at 1 and floored at MinConfidence.
func Confidence(question, contextText, answer string) float64 {
	qWords := strings.Fields(strings.ToLower(question))
	if len(qWords) == 0 {
		return MinConfidence
	}
	ctxWords := wordSet(contextText)
	ansWords := wordSet(answer)
	var score float64
	for _, w := range qWords {
		if ctxWords[w] {
			score += 1
		}
		if ansWords[w] {
			score += 0.5
		}
	}
	c := score / (float64(len(qWords)) * 1.5)
	if c > 1 {
		c = 1
	}
	if c < MinConfidence {
		c = MinConfidence
	}
	return c
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = true
	}
	return set
}
