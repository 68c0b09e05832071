package appointment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogList_FallsBackToDefaultCatalog(t *testing.T) {
	repo := newFakeRepo()
	repo.listServicesFn = func(ctx context.Context) ([]Service, error) {
		return nil, errors.New("network down")
	}
	catalog := NewCatalog(NewStore(repo, discardLogger()), discardLogger())

	services := catalog.List(context.Background())
	assert.Equal(t, DefaultCatalog, services)

	// The fallback must be a copy.
	services[0].Name = "changed"
	assert.NotEqual(t, "changed", DefaultCatalog[0].Name)
}

func TestCatalogList_EmptyStoreIsEmptyNotNil(t *testing.T) {
	repo := newFakeRepo()
	repo.listServicesFn = func(ctx context.Context) ([]Service, error) {
		return nil, nil
	}
	catalog := NewCatalog(NewStore(repo, discardLogger()), discardLogger())

	services := catalog.List(context.Background())
	require.NotNil(t, services)
	assert.Empty(t, services)
}

func TestCatalogList_NoBackendServesDefaults(t *testing.T) {
	catalog := NewCatalog(NewStore(nil, discardLogger()), discardLogger())
	assert.Equal(t, DefaultCatalog, catalog.List(context.Background()))

	_, err := catalog.Create(context.Background(), Service{ID: "srv-new", Name: "New"})
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestCatalogCreate(t *testing.T) {
	ctx := context.Background()
	catalog := NewCatalog(NewStore(newFakeRepo(), discardLogger()), discardLogger())

	created, err := catalog.Create(ctx, Service{ID: " srv-blouse ", Name: " Blouse Stitching "})
	require.NoError(t, err)
	assert.Equal(t, "srv-blouse", created.ID)
	assert.Equal(t, ServiceActive, created.Status)

	got, ok := catalog.Get(ctx, "srv-blouse")
	require.True(t, ok)
	assert.Equal(t, "Blouse Stitching", got.Name)

	// Insertion order is kept.
	services := catalog.List(ctx)
	assert.Equal(t, "srv-blouse", services[len(services)-1].ID)

	_, err = catalog.Create(ctx, Service{ID: "srv-blouse", Name: "Again"})
	assert.ErrorIs(t, err, ErrServiceExists)
}

func TestCatalogCreate_Validation(t *testing.T) {
	catalog := NewCatalog(NewStore(newFakeRepo(), discardLogger()), discardLogger())

	var vErr *ValidationError
	_, err := catalog.Create(context.Background(), Service{Name: "No id"})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "id", vErr.Field)

	_, err = catalog.Create(context.Background(), Service{ID: "srv-x"})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "name", vErr.Field)

	_, err = catalog.Create(context.Background(), Service{ID: "srv-x", Name: "X", Status: "Paused"})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "status", vErr.Field)
}

func TestCatalogUpdateAndDelete_UnknownIDIsNoop(t *testing.T) {
	ctx := context.Background()
	catalog := NewCatalog(NewStore(newFakeRepo(), discardLogger()), discardLogger())

	require.NoError(t, catalog.Update(ctx, Service{ID: "srv-ghost", Name: "Ghost"}))
	require.NoError(t, catalog.Delete(ctx, "srv-ghost"))

	assert.Equal(t, DefaultCatalog, catalog.List(ctx))
}

func TestCatalogUpdate(t *testing.T) {
	ctx := context.Background()
	catalog := NewCatalog(NewStore(newFakeRepo(), discardLogger()), discardLogger())

	svc := DefaultCatalog[0]
	svc.Status = ServiceInactive
	svc.PriceRange = "₹80 - ₹120"
	require.NoError(t, catalog.Update(ctx, svc))

	got, ok := catalog.Get(ctx, svc.ID)
	require.True(t, ok)
	assert.Equal(t, ServiceInactive, got.Status)
	assert.Equal(t, "₹80 - ₹120", got.PriceRange)
}

func TestNameOf(t *testing.T) {
	assert.Equal(t, "Bridal Saree Draping", NameOf(DefaultCatalog, "srv-drape-01"))
	assert.Equal(t, UnknownServiceName, NameOf(DefaultCatalog, "srv-gone"))
}
