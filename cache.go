package codereview

import "slices"

// FetchTicket identifies one history fetch.
type FetchTicket uint64

// HistoryCache is the locally cached history list. Fetches and deletes are
// version-stamped so that a fetch which began before a delete committed can
// not bring the deleted record back, and an older fetch can not overwrite a
// newer one. It is not safe for concurrent use.
type HistoryCache struct {
	records []HistoryRecord
	loaded  bool

	issued  FetchTicket
	applied FetchTicket

	// id -> last fetch ticket issued when its delete committed
	tombstones map[string]FetchTicket
	pending    map[string]bool

	selected string
}

// NewHistoryCache returns an empty cache.
func NewHistoryCache() *HistoryCache {
	return &HistoryCache{
		tombstones: make(map[string]FetchTicket),
		pending:    make(map[string]bool),
	}
}

// BeginFetch issues a ticket for a new fetch.
func (c *HistoryCache) BeginFetch() FetchTicket {
	c.issued++
	return c.issued
}

// ApplyFetch replaces the list with a fetch result. It returns false and
// leaves the cache unchanged when a newer fetch has already been applied.
func (c *HistoryCache) ApplyFetch(t FetchTicket, records []HistoryRecord) bool {
	if t < c.applied {
		return false
	}
	out := make([]HistoryRecord, 0, len(records))
	for _, r := range records {
		if deletedAt, ok := c.tombstones[r.ID]; ok && t <= deletedAt {
			continue
		}
		out = append(out, r)
	}
	c.records = out
	c.loaded = true
	c.applied = t
	for id, deletedAt := range c.tombstones {
		if deletedAt < t {
			delete(c.tombstones, id)
		}
	}
	if c.selected != "" && c.index(c.selected) < 0 {
		c.selected = ""
	}
	return true
}

// FailFetch records a failed fetch. The previously loaded list stays as it
// is. It reports whether t is still the latest fetch, which is when the
// failure is worth surfacing.
func (c *HistoryCache) FailFetch(t FetchTicket) bool {
	return t == c.issued
}

// Loaded reports whether any fetch has been applied.
func (c *HistoryCache) Loaded() bool { return c.loaded }

// Records returns a copy of the cached list.
func (c *HistoryCache) Records() []HistoryRecord {
	return slices.Clone(c.records)
}

// Len returns the number of cached records.
func (c *HistoryCache) Len() int { return len(c.records) }

// Filter applies FilterRecords to the cached list.
func (c *HistoryCache) Filter(query string) []HistoryRecord {
	return FilterRecords(c.records, query)
}

// BeginDelete marks id as being deleted. A second delete of the same id
// while the first is pending fails with ErrDeleteInFlight.
func (c *HistoryCache) BeginDelete(id string) error {
	if c.pending[id] {
		return ErrDeleteInFlight
	}
	c.pending[id] = true
	return nil
}

// Deleting reports whether a delete of id is pending.
func (c *HistoryCache) Deleting(id string) bool { return c.pending[id] }

// CompleteDelete finishes a delete begun with BeginDelete. On success the
// record is removed and, if it was open in the detail view, the detail view
// is closed; closed reports that. On failure nothing changes.
func (c *HistoryCache) CompleteDelete(id string, err error) (closed bool) {
	delete(c.pending, id)
	if err != nil {
		return false
	}
	if i := c.index(id); i >= 0 {
		c.records = slices.Delete(c.records, i, i+1)
	}
	c.tombstones[id] = c.issued
	if c.selected == id {
		c.selected = ""
		return true
	}
	return false
}

// Select opens the detail view for id. It returns false if id is not cached.
func (c *HistoryCache) Select(id string) bool {
	if c.index(id) < 0 {
		return false
	}
	c.selected = id
	return true
}

// CloseDetail closes the detail view.
func (c *HistoryCache) CloseDetail() { c.selected = "" }

// Selected returns the record open in the detail view, or nil.
func (c *HistoryCache) Selected() *HistoryRecord {
	if c.selected == "" {
		return nil
	}
	i := c.index(c.selected)
	if i < 0 {
		return nil
	}
	r := c.records[i]
	return &r
}

func (c *HistoryCache) index(id string) int {
	return slices.IndexFunc(c.records, func(r HistoryRecord) bool { return r.ID == id })
}
