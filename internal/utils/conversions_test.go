package utils_test

import (
	"encoding/json"
	"testing"

	"github.com/jrsteele09/go-intercom-bridge/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestAnyToString(t *testing.T) {
	require.Equal(t, "", utils.AnyToString(nil))
	require.Equal(t, "abc", utils.AnyToString("abc"))
	require.Equal(t, "12", utils.AnyToString(float64(12)))
	require.Equal(t, "1.5", utils.AnyToString(1.5))
	require.Equal(t, "7", utils.AnyToString(json.Number("7")))
	require.Equal(t, "true", utils.AnyToString(true))
}

func TestAnyToInt(t *testing.T) {
	require.Equal(t, 3, utils.AnyToInt(float64(3)))
	require.Equal(t, 4, utils.AnyToInt(" 4 "))
	require.Equal(t, 0, utils.AnyToInt("x"))
	require.Equal(t, 1, utils.AnyToInt(true))
	require.Equal(t, 0, utils.AnyToInt(nil))
}

func TestAnyToBool(t *testing.T) {
	require.True(t, utils.AnyToBool(true))
	require.True(t, utils.AnyToBool(float64(1)))
	require.False(t, utils.AnyToBool(float64(0)))
	require.False(t, utils.AnyToBool("0"))
	require.True(t, utils.AnyToBool("1"))
	require.False(t, utils.AnyToBool(nil))
}

func TestMask(t *testing.T) {
	require.Equal(t, "Unavailable", utils.Mask(""))
	require.Equal(t, "short", utils.Mask("short"))
	require.Equal(t, "abcdefgh...uvwxyz", utils.Mask("abcdefghijklmnopqrstuvwxyz"))
}

func TestValueAndPtr(t *testing.T) {
	var p *int
	require.Equal(t, 0, utils.Value(p))
	require.Equal(t, 5, utils.Value(utils.Ptr(5)))
	require.Equal(t, "", utils.Value[string](nil))
	require.Equal(t, "x", utils.Value(utils.Ptr("x")))
}
