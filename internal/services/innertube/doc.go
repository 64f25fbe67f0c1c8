// Package innertube talks to the YouTube watch page: it extracts the player
// response for video identification, lists advertised caption tracks, and
// downloads tracks in json3 format. Requests are rate limited and retried
// with exponential backoff.
package innertube
