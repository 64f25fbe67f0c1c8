// Package workflow orchestrates queue items through the transcript pipeline.
//
// Two lanes run concurrently: the fetch lane performs cheap network work
// (identification, caption retrieval, export) and the heavy lane serializes
// audio downloads and speech recognition. Each lane claims items by status,
// marks them processing with heartbeats, and advances them to the next
// status on success. Failures are classified through the services sentinels
// into failed or review states.
package workflow
