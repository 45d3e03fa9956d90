// Package testutils provides helpers shared by tests across the codebase:
// a settable clock, a capturing slog handler, and an in-process task API
// server backed by the in-memory mock store.
package testutils
