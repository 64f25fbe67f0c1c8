package api

import (
	"context"

	"ytscribe/internal/queue"
)

// QueueReader abstracts the queue persistence operations API queries need.
type QueueReader interface {
	List(ctx context.Context, statuses ...queue.Status) ([]*queue.Item, error)
	Stats(ctx context.Context) (map[queue.Status]int, error)
	GetByID(ctx context.Context, id int64) (*queue.Item, error)
}

// QueueService answers read-only queue queries with API DTOs.
type QueueService struct {
	reader QueueReader
}

// NewQueueService wraps reader; a nil reader yields a nil service, which
// every method tolerates.
func NewQueueService(reader QueueReader) *QueueService {
	if reader == nil {
		return nil
	}
	return &QueueService{reader: reader}
}

func (s *QueueService) ready() bool {
	return s != nil && s.reader != nil
}

// List returns queue items filtered by status.
func (s *QueueService) List(ctx context.Context, statuses ...queue.Status) ([]QueueItem, error) {
	if !s.ready() {
		return nil, nil
	}
	items, err := s.reader.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return FromQueueItems(items), nil
}

// Stats returns queue summary counts keyed by status string.
func (s *QueueService) Stats(ctx context.Context) (map[string]int, error) {
	if !s.ready() {
		return nil, nil
	}
	stats, err := s.reader.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return MergeQueueStats(stats), nil
}

// Describe fetches a single queue item, nil when absent.
func (s *QueueService) Describe(ctx context.Context, id int64) (*QueueItem, error) {
	if !s.ready() {
		return nil, nil
	}
	item, err := s.reader.GetByID(ctx, id)
	if err != nil || item == nil {
		return nil, err
	}
	dto := FromQueueItem(item)
	return &dto, nil
}
