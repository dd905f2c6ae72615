package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/reelnotes/reelnotes-server/internal/errors"
)

func TestAPI_RoundTrip(t *testing.T) {
	env := newServerEnv(t)
	a := env.client(t, "user-a")
	ctx := context.Background()

	fav, err := a.Add(ctx, 550, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, fav.ID)
	assert.Equal(t, int64(550), fav.Item.ExternalID)
	assert.Equal(t, "Fight Club", fav.Item.Title)

	again, err := a.Add(ctx, 550, strPtr("ignored"))
	require.NoError(t, err)
	assert.Equal(t, fav.ID, again.ID)
	assert.Nil(t, again.Note)

	require.NoError(t, a.UpdateNote(ctx, 550, strPtr("watch with mom")))

	entries, err := a.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].Note)
	assert.Equal(t, "watch with mom", *entries[0].Note)

	require.NoError(t, a.Remove(ctx, 550))
	entries, err = a.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAPI_ErrorTaxonomy(t *testing.T) {
	env := newServerEnv(t)
	ctx := context.Background()

	anon, err := NewAPI(env.url, "")
	require.NoError(t, err)
	_, err = anon.List(ctx)
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.True(t, errors.Is(err, domainerrors.ErrUnauthorized))

	a := env.client(t, "user-a")

	err = a.Remove(ctx, 550)
	assert.True(t, IsNotFound(err))
	assert.True(t, errors.Is(err, domainerrors.ErrNotFound))

	_, err = a.Add(ctx, 424242, nil)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, apiErr.Details, "externalId")
	assert.True(t, errors.Is(err, domainerrors.ErrValidation))

	env.catalog.set(603, nil, errors.New("connection refused"))
	_, err = a.Add(ctx, 603, nil)
	assert.True(t, IsUpstreamUnavailable(err))
}

func TestAPI_SendsRequestHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":[]}`))
	}))
	t.Cleanup(srv.Close)

	a, err := NewAPI(srv.URL+"/", "tok")
	require.NoError(t, err)

	entries, err := a.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, "Bearer tok", got.Get("Authorization"))
	assert.NotEmpty(t, got.Get("X-Request-ID"))
}

func TestAPI_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	a, err := NewAPI(srv.URL, "tok")
	require.NoError(t, err)

	_, err = a.List(context.Background())
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "bad gateway", apiErr.Message)
}

func TestNewAPI_InvalidURL(t *testing.T) {
	_, err := NewAPI("not a url", "tok")
	assert.Error(t, err)
}
