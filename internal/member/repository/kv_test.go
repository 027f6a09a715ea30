package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iesa-console/backend/internal/kvstore"
	"iesa-console/backend/internal/member/domain"
)

func TestKVRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewKVRepository(kvstore.NewMemoryStore())

	empty, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	reg := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	in := []*domain.Member{
		{ID: "b", Name: "Pedro", Role: domain.RoleMember, Department: "DCIESA", RegistrationDate: reg,
			History: []domain.HistoryEntry{{ID: "h1", Date: reg, Type: domain.HistoryRegistration, Description: "Registered"}}},
		{ID: "a", Name: "Rita", Role: domain.RoleDeptLeader, Department: "JIESA", RegistrationDate: reg},
	}
	require.NoError(t, repo.SaveAll(ctx, in))

	out, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Pedro", out[0].Name)
	assert.Equal(t, "Rita", out[1].Name)
	assert.Equal(t, in[0].History, out[0].History)
	assert.True(t, out[0].RegistrationDate.Equal(reg))
}

func TestKVRepository_DropsEntriesWithoutID(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	require.NoError(t, store.Save(ctx, kvstore.KeyMembers, []byte(`[{"id":"","name":"ghost"},null,{"id":"x","name":"Ana","role":"member"}]`)))

	out, err := NewKVRepository(store).LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Ana", out[0].Name)
}
