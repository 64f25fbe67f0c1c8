// Package captions fetches existing YouTube caption tracks and converts them
// into transcripts, rerouting items without usable tracks to the audio
// download path.
package captions
