package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/authd/internal/oauth/domain"
	"github.com/allisson/authd/internal/testutil"
)

func TestMySQLScopeRepository_CreateAndGet(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLScopeRepository(db)
	ctx := context.Background()

	scope := &domain.ScopeDefinition{
		Name:        "billing",
		Description: "Access billing data",
		CreatedAt:   time.Now().UTC(),
	}

	require.NoError(t, repo.Create(ctx, scope))

	retrieved, err := repo.GetByName(ctx, "billing")
	require.NoError(t, err)
	assert.Equal(t, "billing", retrieved.Name)

	err = repo.Create(ctx, scope)
	assert.ErrorIs(t, err, domain.ErrScopeAlreadyExists)
}

func TestMySQLScopeRepository_ListDefaults(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLScopeRepository(db)
	ctx := context.Background()

	defaults, err := repo.ListDefaults(ctx)
	require.NoError(t, err)

	names := make([]string, 0, len(defaults))
	for _, s := range defaults {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "read")
	assert.NotContains(t, names, "write")
}
