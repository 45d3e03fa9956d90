// Package mocks provides centralized mock implementations for testing.
//
// Each mock has one function field per interface method. A nil field falls
// back to a default: MockTaskStore behaves as a small in-memory store,
// MockCache misses every read, and MockTaskService returns its preset values.
//
//	st := mocks.NewMockTaskStore()
//	st.ListFn = func(ctx context.Context, q domain.TaskQuery) ([]*domain.Task, int, error) {
//	    return nil, 0, store.E("task.list", store.KindConnection, errors.New("refused"))
//	}
package mocks
