package domain

import "math"

// SortField is a task column a listing can be ordered by.
type SortField string

// Sortable columns
const (
	SortByCreatedAt SortField = "created_at"
	SortByUpdatedAt SortField = "updated_at"
	SortByDueDate   SortField = "due_date"
	SortByTitle     SortField = "title"
	SortByStatus    SortField = "status"
)

// SortOrder is the direction of a listing.
type SortOrder string

// Sort directions
const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SortFields returns every sortable column.
func SortFields() []SortField {
	return []SortField{SortByCreatedAt, SortByUpdatedAt, SortByDueDate, SortByTitle, SortByStatus}
}

// IsValid reports whether f is a sortable column.
func (f SortField) IsValid() bool {
	switch f {
	case SortByCreatedAt, SortByUpdatedAt, SortByDueDate, SortByTitle, SortByStatus:
		return true
	default:
		return false
	}
}

// MaxPage is the highest page a listing request may ask for. Keeping it at
// 32 bits leaves room for (MaxPage-1)*limit in an int.
const MaxPage = math.MaxInt32

// TaskQuery is a normalised listing request: an optional status filter, an
// ordering and a page window. Page is 1-based.
type TaskQuery struct {
	Status    *TaskStatus
	SortBy    SortField
	SortOrder SortOrder
	Page      int
	Limit     int
}

// Offset returns the number of rows to skip for the requested page.
func (q TaskQuery) Offset() int {
	if q.Page < 1 || q.Limit < 1 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.Limit {
		return math.MaxInt
	}
	return (q.Page - 1) * q.Limit
}

// Pagination describes where a page sits within the full result set.
type Pagination struct {
	CurrentPage     int  `json:"currentPage"`
	TotalPages      int  `json:"totalPages"`
	TotalItems      int  `json:"totalItems"`
	ItemsPerPage    int  `json:"itemsPerPage"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

// NewPagination computes page metadata; totalPages is ceil(total/limit).
func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		CurrentPage:     page,
		TotalPages:      totalPages,
		TotalItems:      total,
		ItemsPerPage:    limit,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}
}

// Stats summarises the task table.
type Stats struct {
	Total    int                `json:"total"`
	ByStatus map[TaskStatus]int `json:"byStatus"`
	Overdue  int                `json:"overdue"`
}

// NewStats builds Stats from per-status counts. Every status is present in
// ByStatus, zero when absent from counts, and Total is their sum.
func NewStats(counts map[TaskStatus]int, overdue int) Stats {
	s := Stats{ByStatus: make(map[TaskStatus]int, 3), Overdue: overdue}
	for _, status := range TaskStatuses() {
		n := counts[status]
		s.ByStatus[status] = n
		s.Total += n
	}
	return s
}
