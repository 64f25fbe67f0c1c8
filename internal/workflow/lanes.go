package workflow

import (
	"log/slog"

	"ytscribe/internal/queue"
	"ytscribe/internal/stage"
)

// StageSet bundles the concrete workflow handlers the manager orchestrates.
type StageSet struct {
	Identifier  stage.Handler
	Captions    stage.Handler
	Downloader  stage.Handler
	Transcriber stage.Handler
	Exporter    stage.Handler
}

type pipelineStage struct {
	name             string
	handler          stage.Handler
	startStatus      queue.Status
	processingStatus queue.Status
	doneStatus       queue.Status
}

type laneKind string

const (
	laneFetch laneKind = "fetch"
	laneHeavy laneKind = "heavy"
)

type laneState struct {
	kind                 laneKind
	name                 string
	stages               []pipelineStage
	statusOrder          []queue.Status
	stageByStart         map[queue.Status]pipelineStage
	processingStatuses   []queue.Status
	logger               *slog.Logger
	notificationsEnabled bool
	runReclaimer         bool
}

func (l *laneState) finalize() {
	if l == nil {
		return
	}
	l.stageByStart = make(map[queue.Status]pipelineStage, len(l.stages))
	l.statusOrder = make([]queue.Status, 0, len(l.stages))
	seenProcessing := make(map[queue.Status]struct{})
	for _, stg := range l.stages {
		l.stageByStart[stg.startStatus] = stg
		l.statusOrder = append(l.statusOrder, stg.startStatus)
		if stg.processingStatus != "" {
			if _, ok := seenProcessing[stg.processingStatus]; !ok {
				l.processingStatuses = append(l.processingStatuses, stg.processingStatus)
				seenProcessing[stg.processingStatus] = struct{}{}
			}
		}
	}
}

func (l *laneState) stageForStatus(status queue.Status) (pipelineStage, bool) {
	if l == nil {
		return pipelineStage{}, false
	}
	stg, ok := l.stageByStart[status]
	return stg, ok
}

// ConfigureStages registers the concrete stage handlers the workflow will run.
//
// The fetch lane handles cheap network operations (identification, caption
// retrieval, export) while the heavy lane serializes audio downloads and
// speech recognition. Items hop lanes through the awaiting_audio and
// transcribed statuses.
func (m *Manager) ConfigureStages(set StageSet) {
	fetch := &laneState{kind: laneFetch, name: "fetch", notificationsEnabled: true}
	heavy := &laneState{kind: laneHeavy, name: "heavy", notificationsEnabled: false}

	if set.Identifier != nil {
		fetch.stages = append(fetch.stages, pipelineStage{
			name:             "identifier",
			handler:          set.Identifier,
			startStatus:      queue.StatusPending,
			processingStatus: queue.StatusIdentifying,
			doneStatus:       queue.StatusIdentified,
		})
	}
	if set.Captions != nil {
		fetch.stages = append(fetch.stages, pipelineStage{
			name:             "captions",
			handler:          set.Captions,
			startStatus:      queue.StatusIdentified,
			processingStatus: queue.StatusCaptioning,
			doneStatus:       queue.StatusCaptioned,
		})
	}
	if set.Downloader != nil {
		heavy.stages = append(heavy.stages, pipelineStage{
			name:             "downloader",
			handler:          set.Downloader,
			startStatus:      queue.StatusAwaitingAudio,
			processingStatus: queue.StatusDownloading,
			doneStatus:       queue.StatusDownloaded,
		})
	}
	if set.Transcriber != nil {
		heavy.stages = append(heavy.stages, pipelineStage{
			name:             "transcriber",
			handler:          set.Transcriber,
			startStatus:      queue.StatusDownloaded,
			processingStatus: queue.StatusTranscribing,
			doneStatus:       queue.StatusTranscribed,
		})
	}
	if set.Exporter != nil {
		// Export accepts transcripts from either source path.
		for _, start := range []queue.Status{queue.StatusCaptioned, queue.StatusTranscribed} {
			fetch.stages = append(fetch.stages, pipelineStage{
				name:             "exporter",
				handler:          set.Exporter,
				startStatus:      start,
				processingStatus: queue.StatusExporting,
				doneStatus:       queue.StatusCompleted,
			})
		}
	}

	lanes := make(map[laneKind]*laneState)
	order := make([]laneKind, 0, 2)

	if len(fetch.stages) > 0 {
		fetch.finalize()
		lanes[fetch.kind] = fetch
		order = append(order, fetch.kind)
	}
	if len(heavy.stages) > 0 {
		heavy.finalize()
		lanes[heavy.kind] = heavy
		order = append(order, heavy.kind)
	}

	for _, lane := range lanes {
		lane.runReclaimer = len(lane.processingStatuses) > 0
	}

	m.mu.Lock()
	m.lanes = lanes
	m.laneOrder = order
	m.mu.Unlock()
}
