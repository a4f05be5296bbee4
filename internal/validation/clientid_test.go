package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateClientID(t *testing.T) {
	tests := []struct {
		name     string
		clientID string
		errMsg   string
		wantErr  bool
	}{
		{name: "uuid without dashes", clientID: "0190b5f2c7a84e6fb1d2a3c4d5e6f708", wantErr: false},
		{name: "with dashes and underscores", clientID: "desk_top-01", wantErr: false},
		{name: "exactly min length", clientID: "abcdefgh", wantErr: false},
		{name: "exactly max length", clientID: strings.Repeat("a", MaxClientIDLen), wantErr: false},
		{name: "empty", clientID: "", wantErr: true, errMsg: "cannot be empty"},
		{name: "too short", clientID: "abc", wantErr: true, errMsg: "at least 8"},
		{name: "too long", clientID: strings.Repeat("a", MaxClientIDLen+1), wantErr: true, errMsg: "must not exceed"},
		{name: "spaces", clientID: "client id 01", wantErr: true, errMsg: "can only contain"},
		{name: "unicode", clientID: "клиент-номер-1", wantErr: true, errMsg: "can only contain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateClientID(tt.clientID)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}
