// Package stage defines the contract between the workflow manager and the
// individual pipeline stages.
package stage
