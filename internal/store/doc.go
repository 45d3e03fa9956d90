// Package store defines the persistence contract for tasks and the error
// kinds every implementation reports. Implementations live under
// internal/platform; callers depend only on the TaskStore interface and
// classify failures with KindOf or errors.Is against the sentinels.
package store
