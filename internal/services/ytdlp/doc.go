// Package ytdlp shells out to the yt-dlp executable to download audio-only
// streams for the speech recognition fallback path.
package ytdlp
