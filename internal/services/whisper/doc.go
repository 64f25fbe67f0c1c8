// Package whisper provides speech recognition engines for the fallback
// transcription path: a hosted OpenAI-compatible API engine and a local
// whisper CLI engine behind a common interface.
package whisper
