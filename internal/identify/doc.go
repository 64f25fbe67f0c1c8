// Package identify resolves video metadata from the YouTube watch page and
// persists it on the queue item for downstream stages.
package identify
