// Package playlist detects playlist URLs and expands them into individual
// video entries for queueing.
package playlist
