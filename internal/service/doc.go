// Package service contains the task use cases. TaskService sits between the
// HTTP and MCP front ends and the store: it applies creation defaults, serves
// listings from the cache, invalidates every cached listing after a mutation,
// and wraps failures in TaskServiceError without hiding the store error kind.
//
// The cache is never required. Any cache failure degrades to reading from the
// store, so a request only fails when the store does.
package service
