// Package notifications publishes workflow events to an ntfy topic. Events
// are gated per category in configuration; without a topic the service is a
// noop.
package notifications
