package view

// PageState tracks the pagination cursor for one ranked table. Each
// paginated table owns an independent instance; the cursor is reset to the
// first page whenever the underlying link changes.
type PageState struct {
	CurrentPage int
	PageSize    int
}

// NewPageState returns a state positioned on the first page.
func NewPageState(pageSize int) PageState {
	if pageSize < 1 {
		pageSize = 1
	}
	return PageState{CurrentPage: 1, PageSize: pageSize}
}

// Page returns the window of entries for the current page, clamped to the
// sequence bounds. A page past the end yields an empty slice, never an
// error.
func Page[T any](entries []T, state PageState) []T {
	size := state.PageSize
	if size < 1 {
		size = 1
	}
	page := state.CurrentPage
	if page < 1 {
		page = 1
	}

	start := (page - 1) * size
	if start >= len(entries) {
		return []T{}
	}
	end := start + size
	if end > len(entries) {
		end = len(entries)
	}

	return entries[start:end]
}

// TotalPages returns ceil(total/pageSize), minimum 1.
func TotalPages(total, pageSize int) int {
	if pageSize < 1 {
		pageSize = 1
	}
	if total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

// Next advances the cursor, clamped to the last page. No-op at the end.
func (s *PageState) Next(total int) {
	if s.CurrentPage < TotalPages(total, s.PageSize) {
		s.CurrentPage++
	}
}

// Prev moves the cursor back, clamped to the first page. No-op at the start.
func (s *PageState) Prev() {
	if s.CurrentPage > 1 {
		s.CurrentPage--
	}
}

// Reset returns the cursor to the first page.
func (s *PageState) Reset() {
	s.CurrentPage = 1
}
