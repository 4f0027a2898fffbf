package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"glowlink/pkg/config"
)

func TestBuildServersPlain(t *testing.T) {
	c := &cli{cfg: config.Default(), logger: zap.NewNop()}

	servers, err := c.buildServers(http.NotFoundHandler())
	require.NoError(t, err)
	require.Len(t, servers, 1)
	assert.Equal(t, ":8765", servers[0].server.Addr)
	assert.False(t, servers[0].tls)
}

func TestBuildServersDomainMode(t *testing.T) {
	cfg := config.Default()
	cfg.HTTP.Domain = "book.example.com"
	c := &cli{cfg: cfg, logger: zap.NewNop()}

	servers, err := c.buildServers(http.NotFoundHandler())
	require.NoError(t, err)
	require.Len(t, servers, 2)

	https := servers[0]
	assert.True(t, https.tls)
	assert.Equal(t, ":443", https.server.Addr)
	require.Len(t, https.server.TLSConfig.Certificates, 1)
	leaf := https.server.TLSConfig.Certificates[0].Leaf
	require.NotNil(t, leaf)
	assert.Equal(t, []string{"book.example.com"}, leaf.DNSNames)
	assert.NoError(t, leaf.VerifyHostname("book.example.com"))
	assert.True(t, leaf.NotAfter.After(time.Now().Add(80*24*time.Hour)))

	redirect := servers[1]
	assert.Equal(t, ":80", redirect.server.Addr)
	rec := httptest.NewRecorder()
	redirect.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://book.example.com/api/catalog/product?x=1", nil))
	assert.Equal(t, http.StatusPermanentRedirect, rec.Code)
	assert.Equal(t, "https://book.example.com/api/catalog/product?x=1", rec.Header().Get("Location"))
}
