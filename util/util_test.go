package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_STR", "value")

	require.Equal(t, "value", GetEnv("TEST_STR", "fallback"))
	require.Equal(t, "fallback", GetEnv("TEST_STR_MISSING", "fallback"))
}

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_INT_BAD", "forty two")

	require.Equal(t, 42, GetEnvAsInt("TEST_INT", 7))
	require.Equal(t, 7, GetEnvAsInt("TEST_INT_BAD", 7))
	require.Equal(t, 7, GetEnvAsInt("TEST_INT_MISSING", 7))
}

func TestGetEnvAsBool(t *testing.T) {
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_BOOL_BAD", "yep")

	require.True(t, GetEnvAsBool("TEST_BOOL", false))
	require.False(t, GetEnvAsBool("TEST_BOOL_BAD", false))
	require.True(t, GetEnvAsBool("TEST_BOOL_MISSING", true))
}

func TestIsBlank(t *testing.T) {
	require.True(t, IsBlank(""))
	require.True(t, IsBlank("   \t\n"))
	require.False(t, IsBlank(" x "))
}

func TestSignAndVerifyPayload(t *testing.T) {
	payload := []byte(`{"reminderId":"abc"}`)

	signature := SignPayload("secret", payload)
	require.NotEmpty(t, signature)

	require.True(t, VerifySignature("secret", payload, signature))
	require.False(t, VerifySignature("other-secret", payload, signature))
	require.False(t, VerifySignature("secret", []byte(`{"reminderId":"xyz"}`), signature))
	require.False(t, VerifySignature("secret", payload, "deadbeef"))
	require.False(t, VerifySignature("secret", payload, ""))
}

func TestSignPayloadIsDeterministic(t *testing.T) {
	payload := []byte("same bytes")

	require.Equal(t, SignPayload("secret", payload), SignPayload("secret", payload))
}
