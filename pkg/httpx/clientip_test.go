package httpx

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractClientOrigin(t *testing.T) {
	t.Parallel()

	t.Run("prefers Forwarded header", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		r.Header.Set("Forwarded", `for=203.0.113.60;proto=https`)
		r.Header.Set("X-Forwarded-For", "198.51.100.1")
		require.Equal(t, "203.0.113.60", ExtractClientOrigin(r))
	})

	t.Run("parses quoted ipv6 Forwarded element", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Forwarded", `for="[2001:db8::17]":4711`)
		require.Equal(t, "2001:db8::17", ExtractClientOrigin(r))
	})

	t.Run("falls back to first X-Forwarded-For hop", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		r.Header.Set("X-Forwarded-For", "198.51.100.1, 203.0.113.9")
		require.Equal(t, "198.51.100.1", ExtractClientOrigin(r))
	})

	t.Run("falls back to the peer address", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		require.Equal(t, "10.0.0.1", ExtractClientOrigin(r))
	})
}
