package kvstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iesa-console/backend/internal/config"
)

type row struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func backends(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestStore_SaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Load(ctx, KeyMembers)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Save(ctx, KeyMembers, []byte(`[1]`)))
			require.NoError(t, s.Save(ctx, KeyMembers, []byte(`[1,2]`)))
			got, ok, err := s.Load(ctx, KeyMembers)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, `[1,2]`, string(got))

			require.NoError(t, s.Delete(ctx, KeyMembers))
			require.NoError(t, s.Delete(ctx, KeyMembers))
			_, ok, err = s.Load(ctx, KeyMembers)
			require.NoError(t, err)
			assert.False(t, ok)
			assert.NoError(t, s.Ping(ctx))
		})
	}
}

func TestJSONHelpers_RoundTripPreservesOrder(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			empty, err := LoadJSON[row](ctx, s, KeyEvents)
			require.NoError(t, err)
			assert.NotNil(t, empty)
			assert.Empty(t, empty)

			in := []row{{ID: "b", Name: "Pedro"}, {ID: "a", Name: "Rita"}}
			require.NoError(t, SaveJSON(ctx, s, KeyEvents, in))
			out, err := LoadJSON[row](ctx, s, KeyEvents)
			require.NoError(t, err)
			assert.Equal(t, in, out)
		})
	}
}

func TestLoadJSON_CorruptPayload(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Save(ctx, KeyMembers, []byte(`{not json`)))
	_, err := LoadJSON[row](ctx, s, KeyMembers)
	assert.Error(t, err)
}

func TestMemoryStore_CopiesPayload(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	buf := []byte("abc")
	require.NoError(t, s.Save(ctx, KeySession, buf))
	buf[0] = 'x'
	got, _, err := s.Load(ctx, KeySession)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestMemoryStore_Closed(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Save(ctx, KeyMembers, nil), ErrClosed)
	_, _, err := s.Load(ctx, KeyMembers)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Ping(ctx), ErrClosed)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "iesa.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, SaveJSON(ctx, s, KeyMembers, []row{{ID: "1", Name: "Ana"}}))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, path, reopened.Path())
	out, err := LoadJSON[row](ctx, reopened, KeyMembers)
	require.NoError(t, err)
	assert.Equal(t, []row{{ID: "1", Name: "Ana"}}, out)
}

func TestOpen_SelectsDriver(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, &config.Config{StorageDriver: config.StorageMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, &config.Config{StorageDriver: config.StorageSQLite, SQLitePath: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	_ = s.Close()

	_, err = Open(ctx, &config.Config{StorageDriver: config.StoragePostgres})
	assert.Error(t, err)

	_, err = Open(ctx, &config.Config{StorageDriver: "redis"})
	assert.Error(t, err)
}
