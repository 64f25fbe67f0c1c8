// Package llm wraps an OpenAI-compatible chat completion API to generate
// markdown summaries of finished transcripts.
package llm
