package server

// Route path constants
const (
	// Browser login flow
	RouteGoogleLogin    = "/auth/google/login"
	RouteGoogleSilent   = "/auth/google/silent"
	RouteGoogleCallback = "/auth/google/callback"

	// Token API
	RouteGoogleToken = "/auth/google"
	RouteMe          = "/auth/me"
	RouteRefresh     = "/auth/refresh"
	RouteRevoke      = "/auth/revoke"
	RouteSession     = "/auth/session"
	RouteLogout      = "/auth/logout"
	RouteRoles       = "/auth/roles"

	// Users
	RouteUsers        = "/users"
	RouteUser         = "/users/{id}"
	RouteUserRoles    = "/users/{id}/roles"
	RouteUserActive   = "/users/{id}/active"
	RouteUserNickname = "/users/me/nickname"

	// Attendance
	RouteAttendance         = "/attendance"
	RouteEventAttendance    = "/attendance/{eventID}"
	RouteAttendanceAttendee = "/attendance/{eventID}/{name}"

	// Operations
	RouteHealth  = "/health"
	RouteMetrics = "/metrics"
)
