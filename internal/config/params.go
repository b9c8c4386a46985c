package config

import (
	"encoding/json"
	"os"
	"strings"

	exporrors "github.com/gnuowned/intersight-exporter/internal/errors"
)

// DefaultAPIParamsPath is the credential file read when no path is given.
const DefaultAPIParamsPath = "intersight_api_params.json"

// APIParams holds the Intersight connection parameters. It is immutable after load.
type APIParams struct {
	BaseURI        string `json:"api_base_uri"`
	PrivateKeyPath string `json:"api_private_key_file"`
	KeyID          string `json:"api_key_id"`
}

// LoadAPIParams reads the credential file at path. The file must be a JSON object
// carrying api_base_uri, api_private_key_file and api_key_id as non-empty strings.
func LoadAPIParams(path string) (*APIParams, error) {
	if path == "" {
		path = DefaultAPIParamsPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, exporrors.ConfigUnreadable(path, err)
	}

	var params APIParams
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, exporrors.ConfigMalformed(path, err)
	}

	var missing []string
	if strings.TrimSpace(params.BaseURI) == "" {
		missing = append(missing, "api_base_uri")
	}
	if strings.TrimSpace(params.PrivateKeyPath) == "" {
		missing = append(missing, "api_private_key_file")
	}
	if strings.TrimSpace(params.KeyID) == "" {
		missing = append(missing, "api_key_id")
	}
	if len(missing) > 0 {
		return nil, exporrors.MissingFields(path, missing...)
	}

	return &params, nil
}
