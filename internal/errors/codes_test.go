package errors

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExporterError_UnwrapKeepsCause(t *testing.T) {
	err := Transport("ListHxClusters", io.ErrUnexpectedEOF)

	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.Contains(t, err.Error(), "ListHxClusters")
	assert.Equal(t, "ListHxClusters", err.Details["operation"])
}

func TestMissingFields_NamesEveryField(t *testing.T) {
	err := MissingFields("params.json", "api_key_id", "api_base_uri")

	assert.Contains(t, err.Error(), "api_key_id")
	assert.Contains(t, err.Error(), "api_base_uri")
	assert.Equal(t, ErrCodeConfigMissing, err.Code)
}

func TestClassification(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCfg  bool
		wantAPI  bool
		wantCode ErrorCode
	}{
		{"nil", nil, false, false, ErrCodeOK},
		{"plain error", io.EOF, false, false, ErrCodeUnknown},
		{"config unreadable", ConfigUnreadable("x", io.EOF), true, false, ErrCodeConfigUnreadable},
		{"key invalid", KeyInvalid("k", io.EOF), true, false, ErrCodeKeyInvalid},
		{"status", UnexpectedStatus("BladeCount", 401, "denied"), false, true, ErrCodeStatus},
		{"wrapped decode", fmt.Errorf("cycle: %w", Decode("ListHxHealth", io.EOF)), false, true, ErrCodeDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCfg, IsConfigError(tt.err))
			assert.Equal(t, tt.wantAPI, IsAPIError(tt.err))
			assert.Equal(t, tt.wantCode, CodeOf(tt.err))
		})
	}
}

func TestErrorCode_String(t *testing.T) {
	require.Equal(t, "transport", ErrCodeTransport.String())
	require.Equal(t, "config_missing_field", ErrCodeConfigMissing.String())
	require.Equal(t, "code_42", ErrorCode(42).String())
}
