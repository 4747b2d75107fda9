package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/telelab/pkg/adapters/memory"
	"github.com/aretw0/telelab/pkg/domain"
	"github.com/aretw0/telelab/pkg/persistence/middleware"
	"github.com/aretw0/telelab/pkg/ports"
	"github.com/aretw0/telelab/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	key := generateKey(t)
	tests.SessionStoreContractTest(t, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})(memory.NewStore()))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	ctx := context.Background()

	require.NoError(t, secure.Set(ctx, domain.KeyCredentials, `{"token":"my-secret-token"}`))

	stored, err := underlying.Get(ctx, domain.KeyCredentials)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored, "enc:v1:"))
	assert.NotContains(t, stored, "my-secret-token")

	got, err := secure.Get(ctx, domain.KeyCredentials)
	require.NoError(t, err)
	assert.Equal(t, `{"token":"my-secret-token"}`, got)

	keys, err := secure.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{domain.KeyCredentials}, keys)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()

	secureOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlying)
	require.NoError(t, secureOld.Set(ctx, "module", "3"))

	secureNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlying)
	got, err := secureNew.Get(ctx, "module")
	require.NoError(t, err)
	assert.Equal(t, "3", got)

	require.NoError(t, secureNew.Set(ctx, "module", "4"))
	_, err = secureOld.Get(ctx, "module")
	assert.Error(t, err, "old key alone cannot read values written with the new key")
}

func TestEncryptionMiddleware_PlainValueFailsSecure(t *testing.T) {
	underlying := memory.NewStore()
	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	ctx := context.Background()

	require.NoError(t, underlying.Set(ctx, "module", "3"))
	_, err := secure.Get(ctx, "module")
	assert.ErrorIs(t, err, middleware.ErrNotEncrypted)

	_, err = secure.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	})
}

func TestParseKey(t *testing.T) {
	key := generateKey(t)

	got, err := middleware.ParseKey(hex.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	got, err = middleware.ParseKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	_, err = middleware.ParseKey(base64.StdEncoding.EncodeToString(key[:16]))
	assert.ErrorContains(t, err, "32 bytes")

	_, err = middleware.ParseKey("not a key!")
	assert.Error(t, err)
}

func TestChain(t *testing.T) {
	var order []string
	tag := func(name string) middleware.Middleware {
		return func(next ports.SessionStore) ports.SessionStore {
			order = append(order, name)
			return next
		}
	}
	middleware.Chain(memory.NewStore(), tag("outer"), tag("inner"))
	assert.Equal(t, []string{"inner", "outer"}, order)
}
