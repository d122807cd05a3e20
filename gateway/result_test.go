package gateway_test

import (
	"net/http"
	"testing"

	"github.com/jrsteele09/go-intercom-bridge/gateway"
	internalerrors "github.com/jrsteele09/go-intercom-bridge/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestNormalise(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		want      string
		wantEmpty bool
		wantErr   error
	}{
		{name: "result with datas", status: 200, body: `{"result":0,"datas":{"a":1}}`, want: `{"a":1}`},
		{name: "result without datas", status: 200, body: `{"result":0,"x":2}`, want: `{"result":0,"x":2}`},
		{name: "code with data", status: 200, body: `{"code":0,"data":[1,2]}`, want: `[1,2]`},
		{name: "code without data", status: 200, body: `{"code":0}`, want: `{"code":0}`},
		{name: "code non zero is empty success", status: 200, body: `{"code":1,"msg":"none"}`, wantEmpty: true},
		{name: "err_code string", status: 200, body: `{"err_code":"0","datas":{}}`, want: `{"err_code":"0","datas":{}}`},
		{name: "err_code number", status: 200, body: `{"err_code":0}`, want: `{"err_code":0}`},
		{name: "err_code non zero", status: 200, body: `{"err_code":"1"}`, wantErr: internalerrors.ErrProtocol},
		{name: "result non zero", status: 200, body: `{"result":3}`, wantErr: internalerrors.ErrProtocol},
		{name: "unknown shape", status: 200, body: `{"hello":"world"}`, wantErr: internalerrors.ErrProtocol},
		{name: "not json", status: 200, body: `<html>`, wantErr: internalerrors.ErrProtocol},
		{name: "non 200", status: http.StatusBadGateway, body: `{"result":0}`, wantErr: internalerrors.ErrProtocol},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := gateway.Normalise(tt.status, []byte(tt.body))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.True(t, res.Empty())
				return
			}
			require.NoError(t, err)
			if tt.wantEmpty {
				require.True(t, res.Empty())
				return
			}
			require.JSONEq(t, tt.want, string(res.Data))
		})
	}
}

func TestResult_Decode(t *testing.T) {
	res, err := gateway.Normalise(200, []byte(`{"result":0,"datas":{"rest_server_https":"host.example.com"}}`))
	require.NoError(t, err)

	m, err := res.Object()
	require.NoError(t, err)
	require.Equal(t, "host.example.com", m["rest_server_https"])
	require.Equal(t, gateway.EnvelopeResult, res.Envelope)

	require.ErrorIs(t, gateway.Result{}.Decode(&m), internalerrors.ErrProtocol)
}
