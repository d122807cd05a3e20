package gateway

const (
	appUserAgent  = "VBell/6.61.2 (iPhone; iOS 16.6; Scale/3.00)"
	gateUserAgent = "VBell/7.20.5 (iPhone; iOS 26.1; Scale/2.00)"
	webUserAgent  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0_2 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) SmartPlus/6.2"
)

// BootstrapHeaders are sent to the unauthenticated REST server endpoints.
func BootstrapHeaders(apiVersion string) map[string]string {
	return map[string]string{
		"api-version": apiVersion,
		"User-Agent":  appUserAgent,
	}
}

// AppHeaders are sent to the resolved REST host.
func AppHeaders(host, token, apiVersion string) map[string]string {
	h := map[string]string{
		"Host":            host,
		"X-AUTH-TOKEN":    token,
		"Connection":      "keep-alive",
		"Accept":          "*/*",
		"User-Agent":      appUserAgent,
		"Accept-Language": "en-AU;q=1",
		"x-cloud-lang":    "en",
	}
	if apiVersion != "" {
		h["api-version"] = apiVersion
	}
	return h
}

// FormHeaders are AppHeaders for a form-encoded POST.
func FormHeaders(host, token, apiVersion string) map[string]string {
	h := AppHeaders(host, token, apiVersion)
	h["Content-Type"] = "application/x-www-form-urlencoded"
	return h
}

// OpenDoorHeaders reproduce the mobile app's door-open request. net/http
// takes the wire length from the body, so the fixed Content-Length value is
// informational only. Accept-Encoding is left to the Transport, which only
// decompresses replies when it negotiated the encoding itself.
func OpenDoorHeaders(host, token string) map[string]string {
	h := FormHeaders(host, token, OpenDoorAPIVersion)
	h["Content-Length"] = "24"
	return h
}

// GateHeaders are sent to the regional gate for servers_list and refresh.
func GateHeaders(token string) map[string]string {
	return map[string]string{
		"accept":          "*/*",
		"content-type":    "application/json",
		"x-auth-token":    token,
		"api-version":     GateAPIVersion,
		"x-cloud-lang":    "en",
		"user-agent":      gateUserAgent,
		"accept-language": "en-US,en;q=0.9",
	}
}

// WebHeaders mimic the embedded web views that serve activities and temp
// keys.
func WebHeaders(token, referer string) map[string]string {
	return map[string]string{
		"x-cloud-version": WebCloudVersion,
		"accept":          "application/json, text/plain, */*",
		"sec-fetch-site":  "same-origin",
		"accept-language": "en-AU,en;q=0.9",
		"sec-fetch-mode":  "cors",
		"x-cloud-lang":    "en",
		"user-agent":      webUserAgent,
		"referer":         referer,
		"x-auth-token":    token,
		"sec-fetch-dest":  "empty",
	}
}
