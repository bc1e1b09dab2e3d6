package application_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/docxlate/internal/application"
	"github.com/ericfisherdev/docxlate/internal/domain/model"
)

func newCredentialService(t *testing.T, store *mockBlobStore) *application.CredentialService {
	t.Helper()
	svc := application.NewCredentialService(store, zerolog.Nop())
	require.NoError(t, svc.Load(context.Background()))
	return svc
}

func TestCredentialService_LoadEmptyStore(t *testing.T) {
	svc := newCredentialService(t, newMockBlobStore())

	assert.Empty(t, svc.List())
	_, ok := svc.Get(model.ProviderOpenAI)
	assert.False(t, ok)
}

func TestCredentialService_LoadPersistedSet(t *testing.T) {
	store := newMockBlobStore()
	store.blobs[application.CredentialsBlobKey] = []byte(`[{"provider":"OpenAI","key":"sk-one"},{"provider":"DeepL","key":"dl"}]`)

	svc := newCredentialService(t, store)

	secret, ok := svc.Get(model.ProviderOpenAI)
	require.True(t, ok)
	assert.Equal(t, "sk-one", secret)
	assert.Len(t, svc.List(), 2)
}

func TestCredentialService_LoadCorruptBlob(t *testing.T) {
	store := newMockBlobStore()
	store.blobs[application.CredentialsBlobKey] = []byte("not json")

	svc := application.NewCredentialService(store, zerolog.Nop())
	assert.Error(t, svc.Load(context.Background()))
}

func TestCredentialService_LoadReadError(t *testing.T) {
	store := newMockBlobStore()
	store.readErr = errBoom

	svc := application.NewCredentialService(store, zerolog.Nop())
	assert.ErrorIs(t, svc.Load(context.Background()), errBoom)
}

func TestCredentialService_AddThenGet(t *testing.T) {
	store := newMockBlobStore()
	svc := newCredentialService(t, store)

	require.NoError(t, svc.Add(context.Background(), model.ProviderOpenAI, "sk-abc"))

	secret, ok := svc.Get(model.ProviderOpenAI)
	require.True(t, ok)
	assert.Equal(t, "sk-abc", secret)
	assert.Equal(t, 1, store.writes)
}

func TestCredentialService_AddReplacesNotAppends(t *testing.T) {
	store := newMockBlobStore()
	svc := newCredentialService(t, store)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, model.ProviderOpenAI, "sk-old"))
	require.NoError(t, svc.Add(ctx, model.ProviderOpenAI, "sk-new"))

	list := svc.List()
	require.Len(t, list, 1)
	assert.Equal(t, "sk-new", list[0].Secret)

	var persisted []map[string]string
	require.NoError(t, json.Unmarshal(store.blobs[application.CredentialsBlobKey], &persisted))
	require.Len(t, persisted, 1)
	assert.Equal(t, "OpenAI", persisted[0]["provider"])
	assert.Equal(t, "sk-new", persisted[0]["key"])
}

func TestCredentialService_AddDoesNotValidateFormat(t *testing.T) {
	svc := newCredentialService(t, newMockBlobStore())

	require.NoError(t, svc.Add(context.Background(), model.ProviderOpenAI, "not-an-sk-key"))

	secret, ok := svc.Get(model.ProviderOpenAI)
	require.True(t, ok)
	assert.Equal(t, "not-an-sk-key", secret)
}

func TestCredentialService_Remove(t *testing.T) {
	store := newMockBlobStore()
	svc := newCredentialService(t, store)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, model.ProviderOpenAI, "sk-abc"))
	require.NoError(t, svc.Add(ctx, model.ProviderDeepL, "dl"))
	require.NoError(t, svc.Remove(ctx, model.ProviderOpenAI))

	_, ok := svc.Get(model.ProviderOpenAI)
	assert.False(t, ok)
	_, ok = svc.Get(model.ProviderDeepL)
	assert.True(t, ok)
	assert.Equal(t, 3, store.writes)
}

func TestCredentialService_RemoveMissingIsNoop(t *testing.T) {
	store := newMockBlobStore()
	svc := newCredentialService(t, store)

	require.NoError(t, svc.Remove(context.Background(), model.ProviderDeepL))
	assert.Zero(t, store.writes)
}

func TestCredentialService_PersistFailureLeavesMemoryUnchanged(t *testing.T) {
	store := newMockBlobStore()
	svc := newCredentialService(t, store)
	ctx := context.Background()
	require.NoError(t, svc.Add(ctx, model.ProviderOpenAI, "sk-abc"))

	store.writeErr = errBoom

	err := svc.Add(ctx, model.ProviderOpenAI, "sk-xyz")
	require.ErrorIs(t, err, errBoom)
	secret, _ := svc.Get(model.ProviderOpenAI)
	assert.Equal(t, "sk-abc", secret)

	err = svc.Remove(ctx, model.ProviderOpenAI)
	require.ErrorIs(t, err, errBoom)
	_, ok := svc.Get(model.ProviderOpenAI)
	assert.True(t, ok)
}

func TestCredentialService_SurvivesReload(t *testing.T) {
	store := newMockBlobStore()
	ctx := context.Background()

	first := newCredentialService(t, store)
	require.NoError(t, first.Add(ctx, model.ProviderOpenAI, "sk-abc"))

	second := newCredentialService(t, store)
	secret, ok := second.Get(model.ProviderOpenAI)
	require.True(t, ok)
	assert.Equal(t, "sk-abc", secret)
}

func TestCredentialService_EmptyListPersistsAsArray(t *testing.T) {
	store := newMockBlobStore()
	svc := newCredentialService(t, store)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, model.ProviderOpenAI, "sk-abc"))
	require.NoError(t, svc.Remove(ctx, model.ProviderOpenAI))

	assert.JSONEq(t, "[]", string(store.blobs[application.CredentialsBlobKey]))
}
