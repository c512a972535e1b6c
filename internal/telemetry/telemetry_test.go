package telemetry

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiscard_DoesNotPanic(t *testing.T) {
	logger := Discard()
	require.NotNil(t, logger)
	logger.Info().Str("event", EventRestructureStart).Log("restructuring")
}

func TestNewSlog_WritesThroughGivenHandler(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, nil)
	logger := NewSlog(handler)
	require.NotNil(t, logger)

	logger.Info().Str("event", EventThreadRegistered).Log("thread registered")
	require.NotEmpty(t, buf.String())
}
