package queue

import (
	"encoding/json"
	"strings"
)

// VideoMetadata captures identification results persisted alongside an item.
type VideoMetadata struct {
	VideoID         string `json:"video_id"`
	Title           string `json:"title"`
	Channel         string `json:"channel,omitempty"`
	DurationSeconds int64  `json:"duration_seconds,omitempty"`
	ViewCount       int64  `json:"view_count,omitempty"`
	Description     string `json:"description,omitempty"`
	Live            bool   `json:"live,omitempty"`
}

// MetadataFromJSON builds metadata from stored JSON, falling back to the
// provided title when the payload is empty or malformed.
func MetadataFromJSON(data, fallbackTitle string) VideoMetadata {
	meta := VideoMetadata{Title: fallbackTitle}
	_ = json.Unmarshal([]byte(data), &meta)
	if strings.TrimSpace(meta.Title) == "" {
		meta.Title = fallbackTitle
	}
	return meta
}

// ApplyMetadata copies identification results onto the item and stores the
// serialized payload for later stages.
func (i *Item) ApplyMetadata(meta VideoMetadata) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	if meta.VideoID != "" {
		i.VideoID = meta.VideoID
	}
	if strings.TrimSpace(meta.Title) != "" {
		i.Title = meta.Title
	}
	i.Channel = meta.Channel
	i.DurationSeconds = meta.DurationSeconds
	i.MetadataJSON = string(data)
	return nil
}

// Metadata decodes the stored metadata payload.
func (i Item) Metadata() VideoMetadata {
	return MetadataFromJSON(i.MetadataJSON, i.Title)
}
