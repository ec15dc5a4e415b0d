package codereview_test

import (
	"errors"
	"testing"

	"github.com/fwojciec/codereview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(records []codereview.HistoryRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func loaded(recordIDs ...string) *codereview.HistoryCache {
	c := codereview.NewHistoryCache()
	records := make([]codereview.HistoryRecord, len(recordIDs))
	for i, id := range recordIDs {
		records[i] = codereview.HistoryRecord{ID: id, Language: "go"}
	}
	c.ApplyFetch(c.BeginFetch(), records)
	return c
}

func TestHistoryCache_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("first load failure leaves empty list", func(t *testing.T) {
		t.Parallel()

		c := codereview.NewHistoryCache()
		tk := c.BeginFetch()
		assert.True(t, c.FailFetch(tk))
		assert.False(t, c.Loaded())
		assert.Empty(t, c.Records())
	})

	t.Run("refresh failure keeps previous list", func(t *testing.T) {
		t.Parallel()

		c := loaded("r1", "r2")
		tk := c.BeginFetch()
		c.FailFetch(tk)
		assert.Equal(t, []string{"r1", "r2"}, ids(c.Records()))
	})

	t.Run("older fetch cannot overwrite newer", func(t *testing.T) {
		t.Parallel()

		c := codereview.NewHistoryCache()
		older := c.BeginFetch()
		newer := c.BeginFetch()
		require.True(t, c.ApplyFetch(newer, []codereview.HistoryRecord{{ID: "new"}}))
		assert.False(t, c.ApplyFetch(older, []codereview.HistoryRecord{{ID: "old"}}))
		assert.Equal(t, []string{"new"}, ids(c.Records()))
	})

	t.Run("failure of superseded fetch is not surfaced", func(t *testing.T) {
		t.Parallel()

		c := codereview.NewHistoryCache()
		older := c.BeginFetch()
		c.BeginFetch()
		assert.False(t, c.FailFetch(older))
	})

	t.Run("records returns a copy", func(t *testing.T) {
		t.Parallel()

		c := loaded("r1")
		got := c.Records()
		got[0].ID = "mutated"
		assert.Equal(t, []string{"r1"}, ids(c.Records()))
	})
}

func TestHistoryCache_Delete(t *testing.T) {
	t.Parallel()

	t.Run("success removes record and closes its detail view", func(t *testing.T) {
		t.Parallel()

		c := loaded("r1", "r2")
		require.True(t, c.Select("r1"))
		require.NoError(t, c.BeginDelete("r1"))

		closed := c.CompleteDelete("r1", nil)

		assert.True(t, closed)
		assert.Nil(t, c.Selected())
		assert.Equal(t, []string{"r2"}, ids(c.Records()))
	})

	t.Run("success leaves other detail view open", func(t *testing.T) {
		t.Parallel()

		c := loaded("r1", "r2")
		c.Select("r2")
		require.NoError(t, c.BeginDelete("r1"))

		assert.False(t, c.CompleteDelete("r1", nil))
		require.NotNil(t, c.Selected())
		assert.Equal(t, "r2", c.Selected().ID)
	})

	t.Run("failure leaves list unchanged", func(t *testing.T) {
		t.Parallel()

		c := loaded("r1", "r2")
		c.Select("r1")
		require.NoError(t, c.BeginDelete("r1"))

		closed := c.CompleteDelete("r1", errors.New("boom"))

		assert.False(t, closed)
		assert.Equal(t, []string{"r1", "r2"}, ids(c.Records()))
		require.NotNil(t, c.Selected())
		assert.False(t, c.Deleting("r1"))
	})

	t.Run("second delete of same id is rejected while pending", func(t *testing.T) {
		t.Parallel()

		c := loaded("r1")
		require.NoError(t, c.BeginDelete("r1"))
		assert.True(t, c.Deleting("r1"))
		require.ErrorIs(t, c.BeginDelete("r1"), codereview.ErrDeleteInFlight)

		c.CompleteDelete("r1", errors.New("boom"))
		assert.NoError(t, c.BeginDelete("r1"))
	})

	t.Run("fetch begun before delete cannot resurrect record", func(t *testing.T) {
		t.Parallel()

		c := loaded("r1", "r2")
		inFlight := c.BeginFetch()
		require.NoError(t, c.BeginDelete("r1"))
		c.CompleteDelete("r1", nil)

		// The fetch read the backend before the delete committed.
		require.True(t, c.ApplyFetch(inFlight, []codereview.HistoryRecord{{ID: "r1"}, {ID: "r2"}}))
		assert.Equal(t, []string{"r2"}, ids(c.Records()))
	})

	t.Run("fetch begun after delete is authoritative", func(t *testing.T) {
		t.Parallel()

		c := loaded("r1")
		require.NoError(t, c.BeginDelete("r1"))
		c.CompleteDelete("r1", nil)

		tk := c.BeginFetch()
		require.True(t, c.ApplyFetch(tk, []codereview.HistoryRecord{{ID: "r1"}}))
		assert.Equal(t, []string{"r1"}, ids(c.Records()))
	})
}

func TestHistoryCache_Select(t *testing.T) {
	t.Parallel()

	c := loaded("r1")
	assert.False(t, c.Select("missing"))
	assert.Nil(t, c.Selected())

	require.True(t, c.Select("r1"))
	assert.Equal(t, "r1", c.Selected().ID)

	c.CloseDetail()
	assert.Nil(t, c.Selected())

	c.Select("r1")
	c.ApplyFetch(c.BeginFetch(), nil)
	assert.Nil(t, c.Selected(), "refresh without the record closes its detail view")
}

func TestHistoryCache_Filter(t *testing.T) {
	t.Parallel()

	c := codereview.NewHistoryCache()
	c.ApplyFetch(c.BeginFetch(), []codereview.HistoryRecord{
		{ID: "1", Language: "python", FileName: "a.py"},
		{ID: "2", Language: "go"},
	})

	assert.Equal(t, []string{"1"}, ids(c.Filter("py")))
	assert.Equal(t, 2, c.Len())
}
