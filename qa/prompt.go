package qa

import "strings"

// SystemRole is the system-channel instruction sent to the generation
// backend.
const SystemRole = "IAM assistant"

// SystemHint steers how the model should weigh conversational memory. It is
// rendered into the [System] block of the memory context.
const SystemHint = "Use the conversation memory only for continuity; do not invent facts. " +
	"Prefer the technical documentation when the two disagree."

// instructions is the fixed role block that opens every prompt.
const instructions = "You are an assistant specialized in Identity & Access Management (IAM). " +
	"Answer precisely and clearly. " +
	"Never say a question was already answered; even on repeats, answer again with a synthesis. " +
	"If the answer is not in the context, say so and suggest a good next question.\n"

// buildPrompt assembles the final prompt: instruction block, optional
// conversation-context block, optional document-context block, then the
// literal question. Blocks are separated by blank lines, in this fixed
// order.
func buildPrompt(memoryContext, documentContext, question string) string {
	parts := []string{instructions}
	if memoryContext != "" {
		parts = append(parts, "=== CONVERSATION CONTEXT ===\n"+strings.TrimSpace(memoryContext))
	}
	if documentContext != "" {
		parts = append(parts, "=== DOCUMENT CONTEXT ===\n"+strings.TrimSpace(documentContext))
	}
	parts = append(parts, "=== QUESTION ===\n"+question+"\n=== ANSWER ===")
	return strings.Join(parts, "\n\n")
}
