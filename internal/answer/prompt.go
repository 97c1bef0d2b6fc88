package answer

import (
	"fmt"
	"strings"
)

// SystemPrompt frames the model as a document analyst that only answers from context.
const SystemPrompt = "You are an expert document analyst specializing in insurance policies, legal documents, and compliance materials. " +
	"Provide accurate, detailed answers based on the provided context. " +
	"If information is not available in the context, clearly state that."

const promptTemplate = `Based on the following document context, please answer the question accurately and comprehensively.

Context:
%s

Question: %s

Instructions:
- Provide a clear, direct answer based on the context
- Include relevant details like time periods, percentages, conditions, or limitations
- If the context doesn't contain enough information, state this clearly
- Maintain a professional, informative tone

Answer:`

// BuildContext joins chunk texts with blank lines.
func BuildContext(chunks []string) string {
	return strings.Join(chunks, "\n\n")
}

// BuildPrompt renders the user prompt for question over contextText.
func BuildPrompt(question, contextText string) string {
	return fmt.Sprintf(promptTemplate, contextText, question)
}
