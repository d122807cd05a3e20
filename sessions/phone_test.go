package sessions_test

import (
	"testing"

	"github.com/jrsteele09/go-intercom-bridge/sessions"
	"github.com/stretchr/testify/require"
)

func TestObfuscatePhoneNumber(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "0123456789", want: "3456789012"},
		{in: "7", want: "0"},
		{in: "8888", want: "1111"},
		{in: "97", want: "20"},
		{in: "", wantErr: true},
		{in: "12-34", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := sessions.ObfuscatePhoneNumber(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestObfuscatePhoneNumber_LeadingZeroDropped(t *testing.T) {
	got, err := sessions.ObfuscatePhoneNumber("7123")
	require.NoError(t, err)
	require.Equal(t, "456", got)
}
