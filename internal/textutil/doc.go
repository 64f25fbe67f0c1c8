// Package textutil provides text processing helpers for filename
// sanitization, token normalization, and preview truncation.
package textutil
