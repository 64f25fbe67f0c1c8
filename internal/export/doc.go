// Package export renders finished transcripts into the output directory,
// adding a provenance header, optional subtitles and summary, and the
// completion notification.
package export
