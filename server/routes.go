package server

import (
	"net/http"

	"github.com/jrsteele09/synco-server/permissions"
)

func (s *Server) initRoutes() {
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, "method_not_allowed", "method not allowed", http.StatusMethodNotAllowed)
	})

	// Browser login flow, answers with redirects
	s.RegisterRouteFunc("GET "+RouteGoogleLogin, s.GoogleLoginHandler())
	s.RegisterRouteFunc("GET "+RouteGoogleSilent, s.GoogleSilentLoginHandler())
	s.RegisterRouteFunc("GET "+RouteGoogleCallback, s.GoogleCallbackHandler())

	// Token API
	s.api("POST "+RouteGoogleToken, s.GoogleTokenHandler())
	s.api("POST "+RouteRefresh, s.RefreshHandler())
	s.api("POST "+RouteRevoke, s.RevokeHandler())
	s.api("GET "+RouteSession, s.SessionHandler())
	s.api("POST "+RouteLogout, s.LogoutHandler())
	s.api("GET "+RouteMe, s.MeHandler(), s.RequireAuth())
	s.api("GET "+RouteRoles, s.RolesHandler(), s.RequireAuth(), s.RequireActiveUser())

	// Users
	s.api("GET "+RouteUsers, s.ListUsersHandler(), s.RequireAuth(), s.RequirePermission(permissions.UsersList))
	s.api("PUT "+RouteUserNickname, s.SetNicknameHandler(), s.RequireAuth(), s.RequireActiveUser())
	s.api("GET "+RouteUser, s.GetUserHandler(), s.RequireAuth(), s.RequirePermission(permissions.UsersView))
	s.api("PUT "+RouteUserRoles, s.SetRolesHandler(), s.RequireAuth(), s.RequirePermission(permissions.UsersManageRoles))
	s.api("PUT "+RouteUserActive, s.SetActiveHandler(), s.RequireAuth(), s.RequirePermission(permissions.UsersEdit))

	// Attendance, ownership rules are checked in the handlers
	s.api("POST "+RouteAttendance, s.MarkAttendanceHandler(), s.RequireAuth(), s.RequireActiveUser())
	s.api("GET "+RouteAttendance, s.ListAttendanceHandler(), s.RequireAuth(), s.RequirePermission(permissions.EventsView))
	s.api("GET "+RouteEventAttendance, s.GetAttendanceHandler(), s.RequireAuth(), s.RequirePermission(permissions.EventsView))
	s.api("DELETE "+RouteAttendanceAttendee, s.RemoveAttendeeHandler(), s.RequireAuth(), s.RequireActiveUser())
	s.api("DELETE "+RouteEventAttendance, s.DeleteAttendanceHandler(), s.RequireAuth(), s.RequirePermission(permissions.AttendanceManage))

	// Operations
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	if s.deps.Metrics != nil {
		s.RegisterRouteHandler("GET "+RouteMetrics, s.deps.Metrics)
	}
}

// api registers a JSON route behind the API middleware together with an
// OPTIONS route for CORS preflight.
func (s *Server) api(pattern string, handler http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) {
	s.RegisterRouteHandler(pattern, ChainMiddleware(handler, s.APIMiddleware(mw...)...))

	_, path, _ := cutPattern(pattern)
	s.router.Options(path, ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, s.CorsMiddleware))
}
