package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_MustGetString_Panics_When_Missing(t *testing.T) {
	require.Panics(t, func() {
		MustGetString("WAGER_ROOMS_TEST_MISSING")
	})
}

func Test_MustGetInt_Reads_Value(t *testing.T) {
	t.Setenv("WAGER_ROOMS_TEST_PORT", "8080")

	require.Equal(t, 8080, MustGetInt("WAGER_ROOMS_TEST_PORT"))
}

func Test_GetStringOrDefault_Falls_Back_On_Empty(t *testing.T) {
	t.Setenv("WAGER_ROOMS_TEST_EMPTY", "")

	require.Equal(t, "fallback", GetStringOrDefault("WAGER_ROOMS_TEST_EMPTY", "fallback"))
	require.Equal(t, "fallback", GetStringOrDefault("WAGER_ROOMS_TEST_MISSING", "fallback"))
}

func Test_GetIntOrDefault(t *testing.T) {
	val, err := GetIntOrDefault("WAGER_ROOMS_TEST_MISSING", 5)
	require.NoError(t, err)
	require.Equal(t, 5, val)

	t.Setenv("WAGER_ROOMS_TEST_SECONDS", "3")
	val, err = GetIntOrDefault("WAGER_ROOMS_TEST_SECONDS", 5)
	require.NoError(t, err)
	require.Equal(t, 3, val)

	t.Setenv("WAGER_ROOMS_TEST_SECONDS", "three")
	_, err = GetIntOrDefault("WAGER_ROOMS_TEST_SECONDS", 5)
	require.ErrorIs(t, err, ErrConversionFailed)
}

func Test_GetDurationOrDefault(t *testing.T) {
	val, err := GetDurationOrDefault("WAGER_ROOMS_TEST_MISSING", time.Second)
	require.NoError(t, err)
	require.Equal(t, time.Second, val)

	t.Setenv("WAGER_ROOMS_TEST_TICK", "250ms")
	val, err = GetDurationOrDefault("WAGER_ROOMS_TEST_TICK", time.Second)
	require.NoError(t, err)
	require.Equal(t, 250*time.Millisecond, val)

	t.Setenv("WAGER_ROOMS_TEST_TICK", "soon")
	_, err = GetDurationOrDefault("WAGER_ROOMS_TEST_TICK", time.Second)
	require.ErrorIs(t, err, ErrConversionFailed)
}
