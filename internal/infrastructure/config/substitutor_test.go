package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) Lookup {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestSubstituteReplacesKnownVariable(t *testing.T) {
	out, err := Substitute([]byte("host: ${HOST}"), lookupFrom(map[string]string{"HOST": "example.com"}))
	require.NoError(t, err)
	assert.Equal(t, "host: example.com", string(out))
}

func TestSubstituteUsesDefaultWhenUnset(t *testing.T) {
	out, err := Substitute([]byte("port: ${PORT:-8080}"), lookupFrom(nil))
	require.NoError(t, err)
	assert.Equal(t, "port: 8080", string(out))
}

func TestSubstituteDefaultYieldsToSetVariable(t *testing.T) {
	out, err := Substitute([]byte("port: ${PORT:-8080}"), lookupFrom(map[string]string{"PORT": "9090"}))
	require.NoError(t, err)
	assert.Equal(t, "port: 9090", string(out))
}

func TestSubstituteFailsOnMissingVariableWithoutDefault(t *testing.T) {
	_, err := Substitute([]byte("token: ${API_TOKEN}"), lookupFrom(nil))
	assert.Error(t, err)
}

func TestSubstituteLeavesPlainTextAlone(t *testing.T) {
	out, err := Substitute([]byte("version: \"1.0\"\n"), lookupFrom(nil))
	require.NoError(t, err)
	assert.Equal(t, "version: \"1.0\"\n", string(out))
}
