package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/statestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreContract exercises the behavior every statestore.Store backend
// must share. newStore must return a fresh, empty store.
func RunStoreContract(t *testing.T, newStore func(t *testing.T) statestore.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing record loads empty", func(t *testing.T) {
		s := newStore(t)
		got, err := statestore.LoadLastCheckState(ctx, s, "never_saved")
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("round trip", func(t *testing.T) {
		s := newStore(t)
		want := statestore.State{
			"last_sync":       "2024-05-01T08:30:00Z",
			"server_revision": int64(1<<53 + 1),
			"sync_count":      int64(18231),
			"match_rate":      float64(97),
			"complete":        true,
			"accounts": []any{
				map[string]any{"id": "chk-01", "balance": 1520.75},
				"savings",
			},
			"cursor": map[string]any{"page": int64(3), "token": nil, "pages": []any{int64(1), int64(2)}},
		}
		require.NoError(t, statestore.SaveLastCheckState(ctx, s, "bank_sync", want))
		got, err := statestore.LoadLastCheckState(ctx, s, "bank_sync")
		require.NoError(t, err)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("plain ints load as int64", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Save(ctx, "amazon_match", statestore.State{"orders": 12, "nested": map[string]any{"n": 7}}))
		got, err := s.Load(ctx, "amazon_match")
		require.NoError(t, err)
		assert.Equal(t, int64(12), got["orders"])
		assert.Equal(t, map[string]any{"n": int64(7)}, got["nested"])
	})

	t.Run("save replaces and isolates", func(t *testing.T) {
		s := newStore(t)
		first := statestore.State{"n": float64(1), "gone": "x"}
		require.NoError(t, s.Save(ctx, "a", first))
		first["n"] = float64(99)

		got, err := s.Load(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, float64(1), got["n"], "saved state must not alias the caller's map")

		got["n"] = float64(42)
		again, err := s.Load(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, float64(1), again["n"], "loaded state must not alias the stored record")

		require.NoError(t, s.Save(ctx, "a", statestore.State{"n": float64(2)}))
		got, err = s.Load(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, statestore.State{"n": float64(2)}, got)
	})

	t.Run("records are per node", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Save(ctx, "amazon/match", statestore.State{"who": "amazon"}))
		require.NoError(t, s.Save(ctx, "apple match", statestore.State{"who": "apple"}))
		a, err := s.Load(ctx, "amazon/match")
		require.NoError(t, err)
		b, err := s.Load(ctx, "apple match")
		require.NoError(t, err)
		assert.Equal(t, "amazon", a["who"])
		assert.Equal(t, "apple", b["who"])
	})

	t.Run("timestamps", func(t *testing.T) {
		s := newStore(t)
		ts := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)
		state := statestore.State{}
		statestore.SetTime(state, statestore.KeyLastChecked, ts)
		require.NoError(t, s.Save(ctx, "cash_flow", state))
		got, err := s.Load(ctx, "cash_flow")
		require.NoError(t, err)
		loaded, ok := statestore.TimeValue(got, statestore.KeyLastChecked)
		require.True(t, ok)
		assert.True(t, loaded.Equal(ts))
	})

	t.Run("invalid name", func(t *testing.T) {
		s := newStore(t)
		err := statestore.SaveLastCheckState(ctx, s, "", statestore.State{})
		assert.ErrorIs(t, err, statestore.ErrInvalidName)
	})

	t.Run("concurrent writers on distinct nodes", func(t *testing.T) {
		s := newStore(t)
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				name := fmt.Sprintf("node_%d", i)
				assert.NoError(t, s.Save(ctx, name, statestore.State{"i": float64(i)}))
			}(i)
		}
		wg.Wait()
		for i := 0; i < 16; i++ {
			got, err := s.Load(ctx, fmt.Sprintf("node_%d", i))
			require.NoError(t, err)
			assert.Equal(t, float64(i), got["i"])
		}
	})
}
