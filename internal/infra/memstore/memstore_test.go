package memstore_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/domain"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/infra/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncrementView_ConcurrentWritersProduceOneRow(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.IncrementView(ctx, domain.ViewDelta{UserID: "u", ContentID: "pricing", Duration: 2, Activity: 1})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	views, err := store.ListViews(ctx, "u")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, int64(100), views[0].ViewDuration)
	assert.Equal(t, 50, views[0].ActivityCount)
}

func TestIncrementView_MergeRules(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	_, _ = store.IncrementView(ctx, domain.ViewDelta{UserID: "u", ContentID: "c", ContentLabel: "Pricing", ScrollDepth: 80})
	row, err := store.IncrementView(ctx, domain.ViewDelta{UserID: "u", ContentID: "c", ScrollDepth: 30, Duration: 9})
	require.NoError(t, err)

	assert.Equal(t, "Pricing", row.ContentLabel, "empty label keeps the old one")
	assert.Equal(t, 80, row.ScrollDepth)
	assert.Equal(t, int64(9), row.ViewDuration)
	assert.Equal(t, domain.InteractionView, row.InteractionType)
}

func TestMostViewed(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	none, err := store.MostViewed(ctx, "u")
	require.NoError(t, err)
	assert.Nil(t, none)

	_, _ = store.IncrementView(ctx, domain.ViewDelta{UserID: "u", ContentID: "a", Duration: 10})
	_, _ = store.IncrementView(ctx, domain.ViewDelta{UserID: "u", ContentID: "b", Duration: 40})
	_, _ = store.IncrementView(ctx, domain.ViewDelta{UserID: "other", ContentID: "c", Duration: 400})

	top, err := store.MostViewed(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, "b", top.ContentID)
}

func TestPromoteAndRekey(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	require.NoError(t, store.EnsureAnonymous(ctx, "dev_1"))
	require.NoError(t, store.EnsureAnonymous(ctx, "dev_1"))
	_, _ = store.IncrementView(ctx, domain.ViewDelta{UserID: "dev_1", ContentID: "a", Duration: 10, ScrollDepth: 20})
	_, _ = store.IncrementView(ctx, domain.ViewDelta{UserID: "auth", ContentID: "a", Duration: 5, ScrollDepth: 60})

	u, err := store.PromoteUser(ctx, "dev_1", "auth", domain.Profile{Email: "ana@example.com", Company: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, domain.UserRegular, u.UserType)
	assert.Equal(t, "dev_1", u.DeviceID)
	assert.Equal(t, "Acme", u.Company)

	_, err = store.GetUser(ctx, "dev_1")
	var nf *domain.ErrNotFound
	assert.True(t, errors.As(err, &nf))

	require.NoError(t, store.RekeyViews(ctx, "dev_1", "auth"))
	views, _ := store.ListViews(ctx, "auth")
	require.Len(t, views, 1)
	assert.Equal(t, int64(15), views[0].ViewDuration)
	assert.Equal(t, 60, views[0].ScrollDepth)

	left, _ := store.ListViews(ctx, "dev_1")
	assert.Empty(t, left)
}

func TestUpdateUserType(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	_, err := store.UpdateUserType(ctx, "missing", domain.UserAdmin)
	assert.Error(t, err)

	require.NoError(t, store.EnsureAnonymous(ctx, "dev_1"))
	u, err := store.UpdateUserType(ctx, "dev_1", domain.UserAdmin)
	require.NoError(t, err)
	assert.Equal(t, domain.UserAdmin, u.UserType)
}

func TestSaveQuote(t *testing.T) {
	store := memstore.New()
	require.NoError(t, store.SaveQuote(context.Background(), "u", &domain.Quote{ID: "q1"}))
	assert.Len(t, store.Quotes("u"), 1)
}
