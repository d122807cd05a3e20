package server

// Route path constants
const (
	// API token routes
	RouteAuthToken      = "/auth/token"
	RouteAuthIntrospect = "/auth/introspect"
	RouteAuthRevoke     = "/auth/revoke"

	// Bridge state
	RouteAPIStatus    = "/api/status"
	RouteAPILocations = "/api/locations"

	// Directory
	RouteAPICameras   = "/api/cameras"
	RouteAPIRelays    = "/api/relays"
	RouteAPIRelayOpen = "/api/relays/{mac}/{relay}/open"
	RouteAPITempKeys  = "/api/tempkeys"

	// Upstream account
	RouteAPITokens        = "/api/tokens"
	RouteAPITokensRefresh = "/api/tokens/refresh"
	RouteAPISignInSms     = "/api/signin/sms"
	RouteAPISignInVerify  = "/api/signin/sms/verify"
	RouteAPISignInTokens  = "/api/signin/tokens"

	// Door events
	RouteAPIDoorLogPoll = "/api/doorlog/poll"
	RouteAPIEvents      = "/api/events"
)
