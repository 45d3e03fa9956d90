// Package validation turns raw request input into normalised domain values.
//
// Every operation reports all invalid fields at once through a
// *domain.ValidationError. Only a body that is not a JSON object is reported as
// domain.ErrMalformedBody instead.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/phrazzld/task-manager-api/internal/domain"
)

// Global validator instance for reuse
var validate = validator.New()

// Messages returned for invalid input.
const (
	MsgTitleRequired      = "Title is required"
	MsgTitleEmpty         = "Title cannot be empty"
	MsgTitleString        = "Title must be a string"
	MsgDescriptionString  = "Description must be a string"
	MsgStatusInvalid      = "Status must be one of: pending, in_progress, completed"
	MsgDueDateInvalid     = "Due date must be a valid ISO 8601 date"
	MsgUpdateEmpty        = "At least one field must be provided for update"
	MsgInvalidTaskID      = "Invalid task ID format"
	MsgSortByInvalid      = "sortBy must be one of: created_at, updated_at, due_date, title, status"
	MsgSortOrderInvalid   = `sortOrder must be either "asc" or "desc"`
	MsgPageNotInteger     = "Page must be an integer"
	MsgLimitNotInteger    = "Limit must be an integer"
	bodyField             = "body"
	defaultMaxQueryLimit  = 100
	defaultQueryPageLimit = 10
)

// dateLayouts are the ISO 8601 forms accepted for due dates. Layouts without a
// zone are read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// sortAliases maps the camelCase names used by clients onto column names.
var sortAliases = map[string]domain.SortField{
	"createdAt": domain.SortByCreatedAt,
	"updatedAt": domain.SortByUpdatedAt,
	"dueDate":   domain.SortByDueDate,
}

// CreateOptions configures Create. Zero fields take the values of
// DefaultCreateOptions.
type CreateOptions struct {
	// Now returns the reference time for the past-due check.
	Now                  func() time.Time
	DefaultStatus        domain.TaskStatus
	MaxTitleLength       int
	MaxDescriptionLength int
}

// DefaultCreateOptions returns the options used by the HTTP API.
func DefaultCreateOptions() CreateOptions {
	return CreateOptions{
		Now:                  time.Now,
		DefaultStatus:        domain.TaskStatusPending,
		MaxTitleLength:       domain.MaxTitleLength,
		MaxDescriptionLength: domain.MaxDescriptionLength,
	}
}

func (o CreateOptions) withDefaults() CreateOptions {
	d := DefaultCreateOptions()
	if o.Now == nil {
		o.Now = d.Now
	}
	if o.DefaultStatus == "" {
		o.DefaultStatus = d.DefaultStatus
	}
	if o.MaxTitleLength <= 0 {
		o.MaxTitleLength = d.MaxTitleLength
	}
	if o.MaxDescriptionLength <= 0 {
		o.MaxDescriptionLength = d.MaxDescriptionLength
	}
	return o
}

// UpdateOptions configures Update. Zero fields take the values of
// DefaultUpdateOptions.
type UpdateOptions struct {
	MaxTitleLength       int
	MaxDescriptionLength int
}

// DefaultUpdateOptions returns the options used by the HTTP API.
func DefaultUpdateOptions() UpdateOptions {
	return UpdateOptions{
		MaxTitleLength:       domain.MaxTitleLength,
		MaxDescriptionLength: domain.MaxDescriptionLength,
	}
}

func (o UpdateOptions) withDefaults() UpdateOptions {
	d := DefaultUpdateOptions()
	if o.MaxTitleLength <= 0 {
		o.MaxTitleLength = d.MaxTitleLength
	}
	if o.MaxDescriptionLength <= 0 {
		o.MaxDescriptionLength = d.MaxDescriptionLength
	}
	return o
}

// QueryOptions configures Query. Zero fields take the values of
// DefaultQueryOptions.
type QueryOptions struct {
	DefaultSortBy    domain.SortField
	DefaultSortOrder domain.SortOrder
	DefaultLimit     int
	MaxLimit         int
}

// DefaultQueryOptions returns the options used by the HTTP API.
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{
		DefaultSortBy:    domain.SortByCreatedAt,
		DefaultSortOrder: domain.SortDesc,
		DefaultLimit:     defaultQueryPageLimit,
		MaxLimit:         defaultMaxQueryLimit,
	}
}

func (o QueryOptions) withDefaults() QueryOptions {
	d := DefaultQueryOptions()
	if o.DefaultSortBy == "" {
		o.DefaultSortBy = d.DefaultSortBy
	}
	if o.DefaultSortOrder == "" {
		o.DefaultSortOrder = d.DefaultSortOrder
	}
	if o.MaxLimit <= 0 {
		o.MaxLimit = d.MaxLimit
	}
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = d.DefaultLimit
	}
	if o.DefaultLimit > o.MaxLimit {
		o.DefaultLimit = o.MaxLimit
	}
	return o
}

// Create validates the body of a create request.
func Create(body []byte, opts CreateOptions) (domain.TaskInput, error) {
	opts = opts.withDefaults()

	fields, err := decodeObject(body)
	if err != nil {
		return domain.TaskInput{}, err
	}

	verr := &domain.ValidationError{}
	input := domain.TaskInput{Status: opts.DefaultStatus}

	switch raw, ok := fields["title"]; {
	case !ok || isNull(raw):
		verr.Add("title", MsgTitleRequired)
	default:
		title, ok := decodeString(raw)
		switch {
		case !ok:
			verr.Add("title", MsgTitleString)
		case validate.Var(title, "min=1") != nil:
			verr.Add("title", MsgTitleRequired)
		case validate.Var(title, fmt.Sprintf("max=%d", opts.MaxTitleLength)) != nil:
			verr.Add("title", titleTooLong(opts.MaxTitleLength))
		default:
			input.Title = title
		}
	}

	if raw, ok := fields["description"]; ok && !isNull(raw) {
		if desc, ok := checkDescription(raw, opts.MaxDescriptionLength, verr); ok {
			input.Description = &desc
		}
	}

	statusValid := true
	if raw, ok := fields["status"]; ok {
		if status, ok := checkStatus(raw, verr); ok {
			input.Status = status
		} else {
			statusValid = false
		}
	}

	if raw, ok := fields["dueDate"]; ok && !isNull(raw) {
		if due, ok := checkDueDate(raw, verr); ok {
			input.DueDate = &due
			if statusValid && input.Status != domain.TaskStatusCompleted && due.Before(opts.Now()) {
				verr.Add("dueDate", domain.MsgDueDateInPast)
			}
		}
	}

	if err := verr.ErrOrNil(); err != nil {
		return domain.TaskInput{}, err
	}
	return input, nil
}

// Update validates the body of a partial update. At least one recognised field
// must be present; description and dueDate may be cleared with null. The
// past-due rule needs the stored task and is left to the store.
func Update(body []byte, opts UpdateOptions) (domain.TaskPatch, error) {
	opts = opts.withDefaults()

	fields, err := decodeObject(body)
	if err != nil {
		return domain.TaskPatch{}, err
	}

	verr := &domain.ValidationError{}
	var patch domain.TaskPatch
	seen := false

	if raw, ok := fields["title"]; ok {
		seen = true
		title, ok := decodeString(raw)
		switch {
		case !ok:
			verr.Add("title", MsgTitleString)
		case validate.Var(title, "min=1") != nil:
			verr.Add("title", MsgTitleEmpty)
		case validate.Var(title, fmt.Sprintf("max=%d", opts.MaxTitleLength)) != nil:
			verr.Add("title", titleTooLong(opts.MaxTitleLength))
		default:
			patch.Title = domain.Some(title)
		}
	}

	if raw, ok := fields["description"]; ok {
		seen = true
		if isNull(raw) {
			patch.Description = domain.Null[string]()
		} else if desc, ok := checkDescription(raw, opts.MaxDescriptionLength, verr); ok {
			patch.Description = domain.Some(desc)
		}
	}

	if raw, ok := fields["status"]; ok {
		seen = true
		if status, ok := checkStatus(raw, verr); ok {
			patch.Status = domain.Some(status)
		}
	}

	if raw, ok := fields["dueDate"]; ok {
		seen = true
		if isNull(raw) {
			patch.DueDate = domain.Null[time.Time]()
		} else if due, ok := checkDueDate(raw, verr); ok {
			patch.DueDate = domain.Some(due)
		}
	}

	if !seen {
		verr.Add(bodyField, MsgUpdateEmpty)
	}

	if err := verr.ErrOrNil(); err != nil {
		return domain.TaskPatch{}, err
	}
	return patch, nil
}

// Query validates and normalises listing parameters. Out-of-range page and
// limit values are clamped; values that are not integers are errors.
func Query(values url.Values, opts QueryOptions) (domain.TaskQuery, error) {
	opts = opts.withDefaults()

	verr := &domain.ValidationError{}
	q := domain.TaskQuery{
		SortBy:    opts.DefaultSortBy,
		SortOrder: opts.DefaultSortOrder,
		Page:      1,
		Limit:     opts.DefaultLimit,
	}

	if raw := strings.TrimSpace(values.Get("status")); raw != "" {
		status := domain.TaskStatus(raw)
		if validate.Var(raw, "oneof=pending in_progress completed") != nil || !status.IsValid() {
			verr.Add("status", MsgStatusInvalid)
		} else {
			q.Status = &status
		}
	}

	if raw := strings.TrimSpace(values.Get("sortBy")); raw != "" {
		field, ok := sortAliases[raw]
		if !ok {
			field = domain.SortField(raw)
		}
		if field.IsValid() {
			q.SortBy = field
		} else {
			verr.Add("sortBy", MsgSortByInvalid)
		}
	}

	if raw := strings.TrimSpace(values.Get("sortOrder")); raw != "" {
		order := strings.ToLower(raw)
		if validate.Var(order, "oneof=asc desc") != nil {
			verr.Add("sortOrder", MsgSortOrderInvalid)
		} else {
			q.SortOrder = domain.SortOrder(order)
		}
	}

	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		page, err := parseInt(raw)
		if err != nil {
			verr.Add("page", MsgPageNotInteger)
		} else {
			q.Page = min(max(page, 1), domain.MaxPage)
		}
	}

	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		limit, err := parseInt(raw)
		if err != nil {
			verr.Add("limit", MsgLimitNotInteger)
		} else {
			q.Limit = min(max(limit, 1), opts.MaxLimit)
		}
	}

	if err := verr.ErrOrNil(); err != nil {
		return domain.TaskQuery{}, err
	}
	return q, nil
}

// TaskID parses a task id path parameter. Only the canonical hyphenated UUID
// form is accepted, in either case.
func TaskID(raw string) (uuid.UUID, error) {
	if err := validate.Var(strings.ToLower(raw), "required,uuid"); err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", domain.ErrInvalidID, raw)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", domain.ErrInvalidID, raw)
	}
	return id, nil
}

// decodeObject splits a JSON object body into its raw members. An empty body
// is treated as an empty object.
func decodeObject(body []byte) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return map[string]json.RawMessage{}, nil
	}
	if trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: body must be a JSON object", domain.ErrMalformedBody)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedBody, err)
	}
	return fields, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// decodeString reads a JSON string and trims surrounding whitespace.
func decodeString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return strings.TrimSpace(s), true
}

func checkDescription(raw json.RawMessage, maxLen int, verr *domain.ValidationError) (string, bool) {
	desc, ok := decodeString(raw)
	if !ok {
		verr.Add("description", MsgDescriptionString)
		return "", false
	}
	if validate.Var(desc, fmt.Sprintf("max=%d", maxLen)) != nil {
		verr.Add("description", fmt.Sprintf("Description cannot exceed %d characters", maxLen))
		return "", false
	}
	return desc, true
}

func checkStatus(raw json.RawMessage, verr *domain.ValidationError) (domain.TaskStatus, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || validate.Var(s, "oneof=pending in_progress completed") != nil {
		verr.Add("status", MsgStatusInvalid)
		return "", false
	}
	return domain.TaskStatus(s), true
}

func checkDueDate(raw json.RawMessage, verr *domain.ValidationError) (time.Time, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		verr.Add("dueDate", MsgDueDateInvalid)
		return time.Time{}, false
	}
	due, err := ParseDate(s)
	if err != nil {
		verr.Add("dueDate", MsgDueDateInvalid)
		return time.Time{}, false
	}
	return due, true
}

// ParseDate parses an ISO 8601 date or date-time and returns it in UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func titleTooLong(n int) string {
	return fmt.Sprintf("Title cannot exceed %d characters", n)
}

// parseInt parses a decimal integer. Out-of-range values saturate at the
// int bounds so that clamping still applies to them.
func parseInt(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if errors.Is(err, strconv.ErrRange) {
		return n, nil
	}
	return n, err
}
