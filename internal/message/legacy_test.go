package message

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeFixture(t *testing.T, b64 string) interface{} {
	t.Helper()
	cleaned := strings.ReplaceAll(strings.ReplaceAll(b64, "\n", ""), "\r", "")
	raw, err := base64.StdEncoding.DecodeString(cleaned)
	require.NoError(t, err)

	v, err := legacyUnpickle(raw)
	require.NoError(t, err)
	return v
}

func TestLegacyUnpickle_TaskMapping(t *testing.T) {
	v := decodeFixture(t, "KGRwMApTJ3Rhc2snCnAxClMndGVzdHMudGFza3MuaW5kZXhfaW5jcmVtZW50ZXInCnAyCnNTJ2Fy\nZ3MnCnAzCihscDQKc1Mna3dhcmdzJwpwNQooZHA2ClMnbWVzc2FnZScKcDcKUydUZXN0IG1lc3Nh\nZ2UyJwpwOApzcy4=\n")

	m, ok := v.(map[string]interface{})
	require.True(t, ok)

	assert.Equal(t, "tests.tasks.index_incrementer", m["task"])
	assert.Equal(t, []interface{}{}, m["args"])

	kwargs, ok := m["kwargs"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Test message2", kwargs["message"])
}

func TestLegacyUnpickle_RejectsUnknownOpcode(t *testing.T) {
	// 'c' is GLOBAL, used to reach arbitrary module attributes; never
	// whitelisted.
	_, err := legacyUnpickle([]byte("c__builtin__\neval\n."))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported opcode")
}

func TestLegacyUnpickle_RejectsTruncatedInput(t *testing.T) {
	_, err := legacyUnpickle([]byte("(dp0"))
	require.Error(t, err)
}

func TestLegacyUnpickle_IntFloatNoneBool(t *testing.T) {
	// (lp0\nI1\naI01\naI00\naF1.5\naN a. -- a small list mixing scalar types
	raw := []byte("(lp0\nI1\naI01\naI00\naF1.5\naNa.")
	v, err := legacyUnpickle(raw)
	require.NoError(t, err)

	lst, ok := v.([]interface{})
	require.True(t, ok)
	assert.Equal(t, []interface{}{int64(1), true, false, 1.5, nil}, lst)
}
