package store_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nconklindev/workerimport/internal/store"
	"github.com/nconklindev/workerimport/internal/types"
)

func TestWorkerFromRow(t *testing.T) {
	t.Parallel()

	org := uuid.New()
	site := uuid.New()
	w := store.WorkerFromRow(org, &site, types.ParsedRow{
		Nombre:          "Juan",
		ApellidoPaterno: "García",
		Puesto:          "Operador",
		CURP:            "GAXJ800101HDFRRN09",
	})

	assert.Equal(t, org, w.OrganizationID)
	require.NotNil(t, w.SiteID)
	assert.Equal(t, site, *w.SiteID)
	assert.Equal(t, "Juan", w.Nombre)
	assert.Equal(t, "GAXJ800101HDFRRN09", w.CURP)
	assert.Equal(t, store.StatusActive, w.Status)
	assert.Equal(t, uuid.Nil, w.ID)
}

func TestMemoryRepositoryCreateWorker(t *testing.T) {
	t.Parallel()

	repo := store.NewMemoryRepository()
	org := uuid.New()

	first := &store.Worker{OrganizationID: org, Nombre: "Juan", CURP: "GAXJ800101HDFRRN09"}
	require.NoError(t, repo.CreateWorker(context.Background(), first))
	assert.NotEqual(t, uuid.Nil, first.ID)
	assert.Equal(t, store.StatusActive, first.Status)
	assert.False(t, first.CreatedAt.IsZero())

	dup := &store.Worker{OrganizationID: org, Nombre: "Otro", CURP: "GAXJ800101HDFRRN09"}
	err := repo.CreateWorker(context.Background(), dup)
	assert.ErrorIs(t, err, store.ErrDuplicateWorker)

	otherOrg := &store.Worker{OrganizationID: uuid.New(), Nombre: "Juan", CURP: "GAXJ800101HDFRRN09"}
	require.NoError(t, repo.CreateWorker(context.Background(), otherOrg))

	count, err := repo.CountByOrganization(context.Background(), org)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Len(t, repo.Workers(), 2)
}

func TestMemoryRepositoryDuplicateEmployeeNumber(t *testing.T) {
	t.Parallel()

	repo := store.NewMemoryRepository()
	org := uuid.New()

	require.NoError(t, repo.CreateWorker(context.Background(), &store.Worker{OrganizationID: org, NumeroEmpleado: "100"}))
	err := repo.CreateWorker(context.Background(), &store.Worker{OrganizationID: org, NumeroEmpleado: "100"})
	assert.ErrorIs(t, err, store.ErrDuplicateWorker)
}

func TestMemoryRepositoryCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.NewMemoryRepository().CreateWorker(ctx, &store.Worker{})
	assert.ErrorIs(t, err, context.Canceled)
}
