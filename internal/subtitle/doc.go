// Package subtitle renders timed cues into the SubRip (SRT) format.
package subtitle
