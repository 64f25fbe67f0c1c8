// Package transcription converts downloaded audio into text using the
// configured whisper engine.
package transcription
