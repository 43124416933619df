package logger

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_NotNil(t *testing.T) {
	l := NewLogger("test")
	require.NotNil(t, l)
}

func TestNop_DiscardsOutput(t *testing.T) {
	l := Nop()
	require.NotNil(t, l)
	assert.NotPanics(t, func() {
		l.Info().Str("k", "v").Msg("discarded")
	})
}

func TestGetChildLogger_Independent(t *testing.T) {
	parent := Nop()
	child := parent.GetChildLogger()
	require.NotNil(t, child)
	assert.NotSame(t, parent, child)
}

func TestFromContext_NoLoggerAttached(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
}

func TestFromContext_RoundTrip(t *testing.T) {
	zl := zerolog.Nop()
	ctx := zl.WithContext(context.Background())

	l := FromContext(ctx)
	require.NotNil(t, l)
}

func TestFromRequest(t *testing.T) {
	zl := zerolog.Nop()
	req := httptest.NewRequest("GET", "/api/sync/status", nil)
	req = req.WithContext(zl.WithContext(req.Context()))

	l := FromRequest(req)
	require.NotNil(t, l)
}
