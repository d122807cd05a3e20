package errors

import (
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestIsRetryable(t *testing.T) {
	require.True(t, IsRetryable(pkgerrors.Wrap(ErrCommunication, "[Send] timeout")))
	require.False(t, IsRetryable(pkgerrors.Wrap(ErrProtocol, "[Send]")))
	require.True(t, Is(ErrMissingToken, ErrConfiguration))
}
