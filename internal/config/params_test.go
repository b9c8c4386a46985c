package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	exporrors "github.com/gnuowned/intersight-exporter/internal/errors"
)

func TestLoadAPIParams_Success(t *testing.T) {
	path := writeFile(t, "params.json",
		`{"api_base_uri":"https://x","api_private_key_file":"/k","api_key_id":"k1"}`)

	params, err := LoadAPIParams(path)
	require.NoError(t, err)

	assert.Equal(t, &APIParams{BaseURI: "https://x", PrivateKeyPath: "/k", KeyID: "k1"}, params)
}

func TestLoadAPIParams_MissingField(t *testing.T) {
	full := map[string]string{
		"api_base_uri":         `"api_base_uri":"https://x"`,
		"api_private_key_file": `"api_private_key_file":"/k"`,
		"api_key_id":           `"api_key_id":"k1"`,
	}

	for missing := range full {
		t.Run(missing, func(t *testing.T) {
			var parts []string
			for name, kv := range full {
				if name != missing {
					parts = append(parts, kv)
				}
			}
			path := writeFile(t, "params.json", "{"+parts[0]+","+parts[1]+"}")

			params, err := LoadAPIParams(path)
			require.Error(t, err)
			assert.Nil(t, params)
			assert.True(t, exporrors.IsConfigError(err))
			assert.Equal(t, exporrors.ErrCodeConfigMissing, exporrors.CodeOf(err))
			assert.Contains(t, err.Error(), missing)
		})
	}
}

func TestLoadAPIParams_EmptyStringCountsAsMissing(t *testing.T) {
	path := writeFile(t, "params.json",
		`{"api_base_uri":"https://x","api_private_key_file":"  ","api_key_id":"k1"}`)

	_, err := LoadAPIParams(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_private_key_file")
}

func TestLoadAPIParams_Unreadable(t *testing.T) {
	_, err := LoadAPIParams(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.Equal(t, exporrors.ErrCodeConfigUnreadable, exporrors.CodeOf(err))
}

func TestLoadAPIParams_Malformed(t *testing.T) {
	path := writeFile(t, "params.json", `{"api_base_uri": `)

	_, err := LoadAPIParams(path)
	require.Error(t, err)
	assert.Equal(t, exporrors.ErrCodeConfigMalformed, exporrors.CodeOf(err))
}

func TestLoadAPIParams_WrongFieldType(t *testing.T) {
	path := writeFile(t, "params.json",
		`{"api_base_uri":"https://x","api_private_key_file":"/k","api_key_id":12}`)

	_, err := LoadAPIParams(path)
	require.Error(t, err)
	assert.Equal(t, exporrors.ErrCodeConfigMalformed, exporrors.CodeOf(err))
}
