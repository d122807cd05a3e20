package gateway

import (
	"fmt"
	"strings"
)

// Upstream paths and API versions.
const (
	APIRestServerData = "rest_server"
	APISendSMS        = "send_mobile_checkcode"
	APISMSLogin       = "sms_login"
	APIServersList    = "servers_list"
	APIRefreshToken   = "refresh_token"
	APIUserConf       = "userconf"
	APIOpenDoor       = "opendoor"
	APITempKeyList    = "getPersonalTempKeyList"
	APIDoorLog        = "getDoorLog"

	RestServerAPIVersion = "4.0"
	SMSLoginAPIVersion   = "6.5"
	GateAPIVersion       = "6.8"
	UserConfAPIVersion   = "6.6"
	OpenDoorAPIVersion   = "6.6"
	WebCloudVersion      = "6.4"

	// SubdomainPlaceholder is swapped for the session's region on every send.
	SubdomainPlaceholder = "subdomain."
)

// Endpoints holds the base addresses of the upstream services. Hosts may
// contain SubdomainPlaceholder.
type Endpoints struct {
	RestServer string // bootstrap and sms login, no region
	Gate       string // servers list and token refresh
	App        string // activity log and temp keys, followed by app/{type}/
	Web        string // referer and QR code host
	HostScheme string // scheme for the resolved REST host
}

// DefaultEndpoints returns the production addresses.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		RestServer: "https://gate.ecloud.akuvox.com:8600",
		Gate:       "https://gate.subdomain.akuvox.com:8600",
		App:        "https://app.subdomain.akuvox.com/web-server/v3/",
		Web:        "https://subdomain.akuvox.com",
		HostScheme: "https",
	}
}

func (e Endpoints) RestServerURL(path string) string {
	return strings.TrimRight(e.RestServer, "/") + "/" + path
}

func (e Endpoints) GateURL(path string) string {
	return strings.TrimRight(e.Gate, "/") + "/" + path
}

// HostURL addresses the per-account REST host resolved at bootstrap.
func (e Endpoints) HostURL(host, path string) string {
	return fmt.Sprintf("%s://%s/%s", e.HostScheme, host, path)
}

// AppURL builds an activity endpoint under the given path segment,
// e.g. "app/single/".
func (e Endpoints) AppURL(segment, path string) string {
	return strings.TrimRight(e.App, "/") + "/" + segment + path
}

func (e Endpoints) WebURL(path string) string {
	return strings.TrimRight(e.Web, "/") + "/" + strings.TrimLeft(path, "/")
}
