package validation

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-manager-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func createOpts() CreateOptions {
	return CreateOptions{Now: func() time.Time { return fixedNow }}
}

// fieldErrors extracts the field errors from err, failing the test when err is
// not a validation error.
func fieldErrors(t *testing.T, err error) []domain.FieldError {
	t.Helper()
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Fields
}

func TestCreate_Valid(t *testing.T) {
	body := `{"title":"  Write report  ","description":" notes ","dueDate":"2025-06-02T09:30:00+02:00","extra":1}`

	input, err := Create([]byte(body), createOpts())
	require.NoError(t, err)

	assert.Equal(t, "Write report", input.Title)
	require.NotNil(t, input.Description)
	assert.Equal(t, "notes", *input.Description)
	assert.Equal(t, domain.TaskStatusPending, input.Status)
	require.NotNil(t, input.DueDate)
	assert.Equal(t, time.Date(2025, 6, 2, 7, 30, 0, 0, time.UTC), *input.DueDate)
}

func TestCreate_DateOnlyAndNulls(t *testing.T) {
	input, err := Create([]byte(`{"title":"x","description":null,"dueDate":"2025-07-01","status":"in_progress"}`), createOpts())
	require.NoError(t, err)

	assert.Nil(t, input.Description)
	assert.Equal(t, domain.TaskStatusInProgress, input.Status)
	require.NotNil(t, input.DueDate)
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), *input.DueDate)

	input, err = Create([]byte(`{"title":"x","dueDate":null}`), createOpts())
	require.NoError(t, err)
	assert.Nil(t, input.DueDate)
}

func TestCreate_FieldErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []domain.FieldError
	}{
		{
			name: "missing title",
			body: `{}`,
			want: []domain.FieldError{{Field: "title", Message: MsgTitleRequired}},
		},
		{
			name: "empty body",
			body: ``,
			want: []domain.FieldError{{Field: "title", Message: MsgTitleRequired}},
		},
		{
			name: "blank title",
			body: `{"title":"   "}`,
			want: []domain.FieldError{{Field: "title", Message: MsgTitleRequired}},
		},
		{
			name: "title not a string",
			body: `{"title":42}`,
			want: []domain.FieldError{{Field: "title", Message: MsgTitleString}},
		},
		{
			name: "title too long",
			body: `{"title":"` + strings.Repeat("a", 256) + `"}`,
			want: []domain.FieldError{{Field: "title", Message: "Title cannot exceed 255 characters"}},
		},
		{
			name: "description too long",
			body: `{"title":"x","description":"` + strings.Repeat("d", 2001) + `"}`,
			want: []domain.FieldError{{Field: "description", Message: "Description cannot exceed 2000 characters"}},
		},
		{
			name: "bad status",
			body: `{"title":"x","status":"done"}`,
			want: []domain.FieldError{{Field: "status", Message: MsgStatusInvalid}},
		},
		{
			name: "bad due date",
			body: `{"title":"x","dueDate":"next tuesday"}`,
			want: []domain.FieldError{{Field: "dueDate", Message: MsgDueDateInvalid}},
		},
		{
			name: "past due date",
			body: `{"title":"x","dueDate":"2025-05-31T12:00:00Z"}`,
			want: []domain.FieldError{{Field: "dueDate", Message: domain.MsgDueDateInPast}},
		},
		{
			name: "every field wrong",
			body: `{"title":"","description":7,"status":"nope","dueDate":"soon"}`,
			want: []domain.FieldError{
				{Field: "title", Message: MsgTitleRequired},
				{Field: "description", Message: MsgDescriptionString},
				{Field: "status", Message: MsgStatusInvalid},
				{Field: "dueDate", Message: MsgDueDateInvalid},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Create([]byte(tt.body), createOpts())
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Equal(t, tt.want, fieldErrors(t, err))
		})
	}
}

func TestCreate_PastDueAllowedWhenCompleted(t *testing.T) {
	input, err := Create([]byte(`{"title":"x","status":"completed","dueDate":"2020-01-01"}`), createOpts())
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, input.Status)
}

func TestCreate_TitleLengthCountsCharacters(t *testing.T) {
	title := strings.Repeat("é", 255)
	input, err := Create([]byte(`{"title":"`+title+`"}`), createOpts())
	require.NoError(t, err)
	assert.Equal(t, title, input.Title)
}

func TestCreate_CustomOptions(t *testing.T) {
	opts := createOpts()
	opts.MaxTitleLength = 5
	opts.DefaultStatus = domain.TaskStatusInProgress

	_, err := Create([]byte(`{"title":"toolong"}`), opts)
	assert.Equal(t, []domain.FieldError{{Field: "title", Message: "Title cannot exceed 5 characters"}}, fieldErrors(t, err))

	input, err := Create([]byte(`{"title":"ok"}`), opts)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusInProgress, input.Status)
}

func TestCreate_MalformedBody(t *testing.T) {
	for _, body := range []string{`{"title":`, `[]`, `"title"`, `null`, `42`} {
		t.Run(body, func(t *testing.T) {
			_, err := Create([]byte(body), createOpts())
			assert.ErrorIs(t, err, domain.ErrMalformedBody)
			assert.NotErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestUpdate_Valid(t *testing.T) {
	patch, err := Update([]byte(`{"title":" New ","description":null,"status":"completed","dueDate":"2020-01-01T00:00:00Z"}`), UpdateOptions{})
	require.NoError(t, err)

	title, ok := patch.Title.Get()
	assert.True(t, ok)
	assert.Equal(t, "New", title)
	assert.True(t, patch.Description.Set)
	assert.True(t, patch.Description.Null)
	status, _ := patch.Status.Get()
	assert.Equal(t, domain.TaskStatusCompleted, status)
	due, ok := patch.DueDate.Get()
	assert.True(t, ok)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), due)
}

func TestUpdate_PastDueDateIsNotCheckedHere(t *testing.T) {
	patch, err := Update([]byte(`{"dueDate":"2000-01-01"}`), UpdateOptions{})
	require.NoError(t, err)
	assert.True(t, patch.DueDate.Set)
}

func TestUpdate_FieldErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []domain.FieldError
	}{
		{"no fields", `{}`, []domain.FieldError{{Field: "body", Message: MsgUpdateEmpty}}},
		{"only unknown fields", `{"priority":"high"}`, []domain.FieldError{{Field: "body", Message: MsgUpdateEmpty}}},
		{"empty title", `{"title":""}`, []domain.FieldError{{Field: "title", Message: MsgTitleEmpty}}},
		{"bad status", `{"status":"archived"}`, []domain.FieldError{{Field: "status", Message: MsgStatusInvalid}}},
		{"bad date", `{"dueDate":"31/12/2025"}`, []domain.FieldError{{Field: "dueDate", Message: MsgDueDateInvalid}}},
		{
			"two errors",
			`{"title":"` + strings.Repeat("t", 300) + `","status":1}`,
			[]domain.FieldError{
				{Field: "title", Message: "Title cannot exceed 255 characters"},
				{Field: "status", Message: MsgStatusInvalid},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Update([]byte(tt.body), UpdateOptions{})
			assert.Equal(t, tt.want, fieldErrors(t, err))
		})
	}
}

func TestQuery_Defaults(t *testing.T) {
	q, err := Query(url.Values{}, QueryOptions{})
	require.NoError(t, err)

	assert.Nil(t, q.Status)
	assert.Equal(t, domain.SortByCreatedAt, q.SortBy)
	assert.Equal(t, domain.SortDesc, q.SortOrder)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 10, q.Limit)
}

func TestQuery_Normalisation(t *testing.T) {
	tests := []struct {
		name      string
		values    url.Values
		wantSort  domain.SortField
		wantOrder domain.SortOrder
		wantPage  int
		wantLimit int
	}{
		{"camelCase alias", url.Values{"sortBy": {"dueDate"}}, domain.SortByDueDate, domain.SortDesc, 1, 10},
		{"column name", url.Values{"sortBy": {"title"}}, domain.SortByTitle, domain.SortDesc, 1, 10},
		{"order is case-insensitive", url.Values{"sortOrder": {"ASC"}}, domain.SortByCreatedAt, domain.SortAsc, 1, 10},
		{"page clamped up", url.Values{"page": {"0"}}, domain.SortByCreatedAt, domain.SortDesc, 1, 10},
		{"negative page clamped", url.Values{"page": {"-4"}}, domain.SortByCreatedAt, domain.SortDesc, 1, 10},
		{"limit clamped down", url.Values{"limit": {"500"}}, domain.SortByCreatedAt, domain.SortDesc, 1, 100},
		{"limit clamped up", url.Values{"limit": {"0"}}, domain.SortByCreatedAt, domain.SortDesc, 1, 1},
		{"page capped", url.Values{"page": {"9223372036854775807"}}, domain.SortByCreatedAt, domain.SortDesc, domain.MaxPage, 10},
		{"page beyond int range capped", url.Values{"page": {"99999999999999999999"}}, domain.SortByCreatedAt, domain.SortDesc, domain.MaxPage, 10},
		{"limit beyond int range clamped", url.Values{"limit": {"99999999999999999999"}}, domain.SortByCreatedAt, domain.SortDesc, 1, 100},
		{"explicit page and limit", url.Values{"page": {"3"}, "limit": {"25"}}, domain.SortByCreatedAt, domain.SortDesc, 3, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Query(tt.values, QueryOptions{})
			require.NoError(t, err)
			assert.Equal(t, tt.wantSort, q.SortBy)
			assert.Equal(t, tt.wantOrder, q.SortOrder)
			assert.Equal(t, tt.wantPage, q.Page)
			assert.Equal(t, tt.wantLimit, q.Limit)
		})
	}
}

func TestQuery_StatusFilter(t *testing.T) {
	q, err := Query(url.Values{"status": {"completed"}}, QueryOptions{})
	require.NoError(t, err)
	require.NotNil(t, q.Status)
	assert.Equal(t, domain.TaskStatusCompleted, *q.Status)
}

func TestQuery_Errors(t *testing.T) {
	values := url.Values{
		"status":    {"archived"},
		"sortBy":    {"priority"},
		"sortOrder": {"sideways"},
		"page":      {"two"},
		"limit":     {"1.5"},
	}

	_, err := Query(values, QueryOptions{})
	assert.Equal(t, []domain.FieldError{
		{Field: "status", Message: MsgStatusInvalid},
		{Field: "sortBy", Message: MsgSortByInvalid},
		{Field: "sortOrder", Message: MsgSortOrderInvalid},
		{Field: "page", Message: MsgPageNotInteger},
		{Field: "limit", Message: MsgLimitNotInteger},
	}, fieldErrors(t, err))
}

func TestQuery_CustomOptions(t *testing.T) {
	q, err := Query(url.Values{"limit": {"80"}}, QueryOptions{MaxLimit: 50, DefaultSortOrder: domain.SortAsc})
	require.NoError(t, err)
	assert.Equal(t, 50, q.Limit)
	assert.Equal(t, domain.SortAsc, q.SortOrder)
}

func TestTaskID(t *testing.T) {
	id := uuid.New()

	got, err := TaskID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, got)

	got, err = TaskID(strings.ToUpper(id.String()))
	require.NoError(t, err)
	assert.Equal(t, id, got)

	for _, raw := range []string{"", "123", "not-a-uuid", "{" + id.String() + "}", "urn:uuid:" + id.String()} {
		_, err := TaskID(raw)
		assert.ErrorIs(t, err, domain.ErrInvalidID, raw)
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2025-03-04T05:06:07.123Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 4, 5, 6, 7, 123000000, time.UTC), got)

	got, err = ParseDate("2025-03-04T05:06")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 4, 5, 6, 0, 0, time.UTC), got)

	_, err = ParseDate("March 4")
	assert.Error(t, err)
}
