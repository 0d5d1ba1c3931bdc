package engineconfig

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvGetStringReadsPrefixedKey(t *testing.T) {
	t.Setenv("ENGINE_SYNC_FOO", "bar")
	env := NewEnv("ENGINE_SYNC")
	assert.Equal(t, "bar", env.GetString("FOO", "default"))
}

func TestEnvGetStringFallsBackToDefault(t *testing.T) {
	env := NewEnv("ENGINE_SYNC")
	assert.Equal(t, "default", env.GetString("MISSING_KEY", "default"))
}

func TestEnvGetIntParsesOrFallsBack(t *testing.T) {
	t.Setenv("ENGINE_SYNC_COUNT", "7")
	env := NewEnv("ENGINE_SYNC")
	assert.Equal(t, 7, env.GetInt("COUNT", 1))

	t.Setenv("ENGINE_SYNC_BAD", "not-a-number")
	assert.Equal(t, 1, env.GetInt("BAD", 1))
}

func TestEnvGetDurationParsesOrFallsBack(t *testing.T) {
	t.Setenv("ENGINE_SYNC_TIMEOUT", "5s")
	env := NewEnv("ENGINE_SYNC")
	assert.Equal(t, 5*time.Second, env.GetDuration("TIMEOUT", time.Second))

	assert.Equal(t, time.Second, env.GetDuration("MISSING", time.Second))
}

func TestEnvGetStringSliceSplitsAndTrims(t *testing.T) {
	t.Setenv("ENGINE_SYNC_URLS", "http://a, http://b ,http://c")
	env := NewEnv("ENGINE_SYNC")
	assert.Equal(t, []string{"http://a", "http://b", "http://c"}, env.GetStringSlice("URLS", nil))
}

func TestEnvGetStringSliceFallsBackWhenUnset(t *testing.T) {
	env := NewEnv("ENGINE_SYNC")
	assert.Equal(t, []string{"default"}, env.GetStringSlice("MISSING", []string{"default"}))
}

func TestEnvBuildKeyWithoutPrefix(t *testing.T) {
	env := NewEnv("")
	t.Setenv("FOO", "bar")
	assert.Equal(t, "bar", env.GetString("FOO", "default"))
}

func TestValidatorAccumulatesErrors(t *testing.T) {
	v := NewValidator()
	v.RequirePositiveInt("ChunkSize", 0)
	v.RequireURL("URL", "not-a-url")
	v.RequireOneOf("Format", "xml", []string{"json", "text"})

	err := v.Validate()
	require := assert.New(t)
	require.Error(err)
	require.Contains(err.Error(), "ChunkSize must be positive")
	require.Contains(err.Error(), "URL must be a valid URL")
	require.Contains(err.Error(), "Format must be one of")
}

func TestValidatorValidIsNil(t *testing.T) {
	v := NewValidator()
	v.RequirePositiveInt("ChunkSize", 1)
	assert.NoError(t, v.Validate())
}
