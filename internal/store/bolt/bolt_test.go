package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmapos/internal/store"
)

func TestBlobsSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pharmapos.db")
	ctx := context.Background()

	s, err := New(path)
	require.NoError(t, err)

	_, ok, err := s.Load(ctx, store.KeySettings)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, store.KeySettings, []byte(`{"shopName":"Nahar"}`)))
	require.NoError(t, s.Close())

	reopened, err := New(path)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = reopened.Close()
	})

	blob, ok, err := reopened.Load(ctx, store.KeySettings)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"shopName":"Nahar"}`, string(blob))
}

func TestSaveRespectsCancelledContext(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "pharmapos.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, s.Save(ctx, store.KeySales, []byte(`[]`)))
}
