// Package download fetches video audio via yt-dlp for items that need
// speech-to-text transcription.
package download
