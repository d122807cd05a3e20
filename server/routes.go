package server

func (s *Server) initRoutes() {
	// API token issue/inspect/revoke. These authenticate with the secret or
	// the token itself rather than a bearer header.
	s.RegisterRouteHandler("POST "+RouteAuthToken, ChainMiddleware(s.IssueToken(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthIntrospect, ChainMiddleware(s.Introspect(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthRevoke, ChainMiddleware(s.Revoke(), s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteAPIStatus, ChainMiddleware(s.Status(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("GET "+RouteAPILocations, ChainMiddleware(s.Locations(), s.APIMiddleware(s.RequireAuth(), s.CompressionMiddleware)...))

	s.RegisterRouteHandler("GET "+RouteAPICameras, ChainMiddleware(s.Cameras(), s.APIMiddleware(s.RequireAuth(), s.CompressionMiddleware)...))
	s.RegisterRouteHandler("GET "+RouteAPIRelays, ChainMiddleware(s.Relays(), s.APIMiddleware(s.RequireAuth(), s.CompressionMiddleware)...))
	s.RegisterRouteHandler("GET "+RouteAPITempKeys, ChainMiddleware(s.TempKeys(), s.APIMiddleware(s.RequireAuth(), s.CompressionMiddleware)...))
	s.RegisterRouteHandler("POST "+RouteAPIRelayOpen, ChainMiddleware(s.OpenRelay(), s.APIMiddleware(s.RequireAuth())...))

	s.RegisterRouteHandler("PUT "+RouteAPITokens, ChainMiddleware(s.UpdateTokens(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("DELETE "+RouteAPITokens, ChainMiddleware(s.SignOut(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("POST "+RouteAPITokensRefresh, ChainMiddleware(s.RefreshTokens(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("POST "+RouteAPISignInSms, ChainMiddleware(s.SignInSms(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("POST "+RouteAPISignInVerify, ChainMiddleware(s.SignInVerify(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("POST "+RouteAPISignInTokens, ChainMiddleware(s.SignInTokens(), s.APIMiddleware(s.RequireAuth())...))

	s.RegisterRouteHandler("POST "+RouteAPIDoorLogPoll, ChainMiddleware(s.PollDoorLog(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("GET "+RouteAPIEvents, ChainMiddleware(s.Events(), s.APIMiddleware(s.RequireAuth())...))
}
