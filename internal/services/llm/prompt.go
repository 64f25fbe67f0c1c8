package llm

import (
	"fmt"
	"strings"
)

// SummarySystemPrompt instructs the model to produce a compact markdown
// summary of a video transcript.
const SummarySystemPrompt = `You summarize video transcripts. Respond in markdown with:
- a one-paragraph overview
- a "Key points" bullet list (3-8 bullets)
- a "Takeaways" section with the most actionable conclusions
Keep the summary faithful to the transcript and do not invent facts.`

// maxTranscriptChars caps the transcript portion of the prompt so requests
// stay within model context limits.
const maxTranscriptChars = 48000

func buildSummaryUserPrompt(title, transcript string) string {
	var builder strings.Builder
	if title = strings.TrimSpace(title); title != "" {
		fmt.Fprintf(&builder, "Video title: %s\n\n", title)
	}
	builder.WriteString("Transcript:\n")
	runes := []rune(transcript)
	if len(runes) > maxTranscriptChars {
		builder.WriteString(string(runes[:maxTranscriptChars]))
		builder.WriteString("\n\n[transcript truncated]")
	} else {
		builder.WriteString(transcript)
	}
	return builder.String()
}
