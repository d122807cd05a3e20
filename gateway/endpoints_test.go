package gateway_test

import (
	"testing"

	"github.com/jrsteele09/go-intercom-bridge/gateway"
	"github.com/stretchr/testify/require"
)

func TestEndpoints(t *testing.T) {
	e := gateway.DefaultEndpoints()
	require.Equal(t, "https://gate.subdomain.akuvox.com:8600/servers_list", e.GateURL(gateway.APIServersList))
	require.Equal(t, "https://app.subdomain.akuvox.com/web-server/v3/app/single/getDoorLog", e.AppURL("app/single/", gateway.APIDoorLog))
	require.Equal(t, "https://host.example.com/userconf", e.HostURL("host.example.com", gateway.APIUserConf))
	require.Equal(t, "https://gate.ecloud.akuvox.com:8600/rest_server", e.RestServerURL(gateway.APIRestServerData))
	require.Equal(t, "https://subdomain.akuvox.com/smartplus/TmpKey.html", e.WebURL("/smartplus/TmpKey.html"))
}
