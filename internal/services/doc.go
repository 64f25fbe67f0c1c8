// Package services holds cross-cutting helpers for the external-service
// clients under internal/services/...: the error taxonomy used to classify
// stage failures and the context annotations that flow into structured logs.
package services
