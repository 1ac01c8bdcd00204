package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountID(t *testing.T) {
	tests := []struct {
		name     string
		location string
		want     string
		wantErr  bool
	}{
		{
			name:     "dashboard path",
			location: "https://dash.example.com/a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4/overview",
			want:     "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4",
		},
		{
			name:     "leftmost of several",
			location: "https://x.test/00000000000000000000000000000001/ffffffffffffffffffffffffffffffff",
			want:     "00000000000000000000000000000001",
		},
		{
			name:     "longer hex run takes first 32",
			location: "https://x.test/0123456789abcdef0123456789abcdef99",
			want:     "0123456789abcdef0123456789abcdef",
		},
		{
			name:     "uppercase is not matched",
			location: "https://x.test/A1B2C3D4E5F6A1B2C3D4E5F6A1B2C3D4",
			wantErr:  true,
		},
		{
			name:     "too short",
			location: "https://x.test/a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d",
			wantErr:  true,
		},
		{name: "empty", location: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AccountID(tt.location)
			if tt.wantErr {
				var extractErr *ExtractionError
				require.True(t, errors.As(err, &extractErr))
				assert.Equal(t, KindAccountID, extractErr.Kind)
				assert.Equal(t, tt.location, extractErr.Input)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Value)
			assert.Equal(t, tt.location, got.Source)
			assert.True(t, got.Valid)
			assert.Equal(t, tt.want, got.Preview())
		})
	}
}

func TestAPIToken(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{name: "empty", value: "", wantErr: true},
		{name: "short", value: "short", wantErr: true},
		{name: "19 chars", value: strings.Repeat("a", 19), wantErr: true},
		{name: "20 chars", value: strings.Repeat("b", 20)},
		{name: "long", value: "Zx8v2Qm4Lk9Pt7Rw3Yb6Nc1Hd5Jf0GsAAAAAAAAAAAA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := APIToken(tt.value)
			if tt.wantErr {
				var extractErr *ExtractionError
				require.True(t, errors.As(err, &extractErr))
				assert.Equal(t, KindAPIToken, extractErr.Kind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.value, got.Value)
			assert.True(t, got.Valid)
		})
	}
}

func TestAPIToken_PreviewNeverExposesValue(t *testing.T) {
	token := "Zx8v2Qm4Lk9Pt7Rw3Yb6Nc1Hd5Jf0Gs"
	a, err := APIToken(token)
	require.NoError(t, err)

	assert.Equal(t, "Zx8v2Qm4...", a.Preview())
	assert.NotContains(t, a.Preview(), token)
}

func TestExtractionError_RedactsTokenInput(t *testing.T) {
	err := &ExtractionError{Kind: KindAPIToken, Input: "shorttokenvalue12", Reason: "too short"}
	assert.NotContains(t, err.Error(), "shorttok")
	assert.Contains(t, err.Error(), "<redacted, 17 chars>")

	err = &ExtractionError{Kind: KindAPIToken, Input: "Qm4Lk9Pt7Rw3", Reason: "too short"}
	assert.NotContains(t, err.Error(), "Qm4L")

	err = &ExtractionError{Kind: KindAccountID, Input: "https://x.test/", Reason: "no match"}
	assert.Contains(t, err.Error(), "https://x.test/")
}
