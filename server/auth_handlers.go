package server

import (
	"net/http"
	"net/url"

	"github.com/jrsteele09/synco-server/auth"
	"github.com/jrsteele09/synco-server/internal/errors"
	"github.com/jrsteele09/synco-server/permissions"
	"github.com/jrsteele09/synco-server/users"
	"github.com/rs/zerolog/log"
)

// GoogleLoginHandler starts the interactive login, skipping the account
// chooser when the browser carries a session for a known user.
func (s *Server) GoogleLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		redirectURL, err := s.deps.Auth.LoginRedirect(r.Context(), auth.LoginRequest{
			SessionToken: s.deps.Cookie.TokenFromRequest(r),
			Prompt:       r.URL.Query().Get("prompt"),
			LoginHint:    r.URL.Query().Get("login_hint"),
		})
		if err != nil {
			s.redirectLoginError(w, r, err)
			return
		}
		http.Redirect(w, r, redirectURL, http.StatusFound)
	}
}

func (s *Server) GoogleSilentLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		redirectURL, err := s.deps.Auth.SilentLoginRedirect(r.Context(), r.URL.Query().Get("email"))
		if errors.Is(err, errors.ErrInvalidRequest) {
			writeError(w, r, err)
			return
		}
		if err != nil {
			s.redirectLoginError(w, r, err)
			return
		}
		http.Redirect(w, r, redirectURL, http.StatusFound)
	}
}

// GoogleCallbackHandler finishes the login and hands the browser back to the
// frontend. A state that cannot be decoded is answered directly with a 400.
func (s *Server) GoogleCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		result, err := s.deps.Auth.Callback(r.Context(), auth.CallbackRequest{
			Code:             q.Get("code"),
			State:            q.Get("state"),
			Error:            q.Get("error"),
			ErrorDescription: q.Get("error_description"),
		})
		if errors.Is(err, errors.ErrStateDecode) {
			writeError(w, r, err)
			return
		}
		if err != nil {
			s.redirectLoginError(w, r, err)
			return
		}

		s.deps.Cookie.SetCookie(w, result.SessionToken)
		s.redirectFrontend(w, r, url.Values{"login": {"success"}})
	}
}

func (s *Server) redirectFrontend(w http.ResponseWriter, r *http.Request, params url.Values) {
	http.Redirect(w, r, s.deps.Config.GetFrontendURL()+"?"+params.Encode(), http.StatusFound)
}

// redirectLoginError sends the browser back to the frontend with the failure
// in message. Provider errors pass through as the provider's error code so
// the frontend can react to login_required and friends.
func (s *Server) redirectLoginError(w http.ResponseWriter, r *http.Request, err error) {
	status, _ := errorStatus(err)
	if status >= http.StatusInternalServerError {
		log.Err(err).Str("path", r.URL.Path).Msg("login failed")
	} else {
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("login rejected")
	}

	message := err.Error()
	var providerErr *auth.ProviderError
	if errors.As(err, &providerErr) {
		message = providerErr.Code
	}
	s.redirectFrontend(w, r, url.Values{"login": {"error"}, "message": {message}})
}

type accessTokenRequest struct {
	AccessToken string `json:"access_token"`
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// GoogleTokenHandler trades a Google access token for local tokens.
func (s *Server) GoogleTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req accessTokenRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		pair, err := s.deps.Auth.ExchangeProviderToken(r.Context(), req.AccessToken)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, pair)
	}
}

func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshTokenRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		resp, err := s.deps.Auth.Refresh(r.Context(), req.RefreshToken)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) RevokeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshTokenRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		revoked, err := s.deps.Auth.Revoke(r.Context(), req.RefreshToken)
		if err != nil {
			writeError(w, r, err)
			return
		}
		message := "refresh token revoked"
		if !revoked {
			message = "refresh token not found or already revoked"
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": message, "revoked": revoked})
	}
}

func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.deps.Auth.Me(r.Context(), identityFromContext(r.Context()).UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

// SessionHandler exchanges the session cookie for an access token.
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionToken := s.deps.Cookie.TokenFromRequest(r)
		if sessionToken == "" {
			writeError(w, r, errors.Wrapf(errors.ErrSessionNotFound, "no session cookie"))
			return
		}
		resp, err := s.deps.Auth.SessionTokens(r.Context(), sessionToken)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.deps.Auth.Logout(r.Context(), s.deps.Cookie.TokenFromRequest(r)); err != nil {
			writeError(w, r, err)
			return
		}
		s.deps.Cookie.ClearCookie(w)
		writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
	}
}

type roleResponse struct {
	Name        users.RoleType           `json:"name"`
	Permissions []permissions.Permission `json:"permissions"`
}

type rolesResponse struct {
	Roles              []roleResponse           `json:"roles"`
	VisitorPermissions []permissions.Permission `json:"visitor_permissions"`
	UserRoles          []users.RoleType         `json:"user_roles"`
	UserPermissions    []permissions.Permission `json:"user_permissions"`
}

// RolesHandler lists the role catalogue and what the caller may do.
func (s *Server) RolesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFromContext(r.Context())

		resp := rolesResponse{
			VisitorPermissions: permissions.VisitorPermissions(),
			UserRoles:          user.Roles,
			UserPermissions:    permissions.PermissionsFor(user.Roles),
		}
		if resp.UserRoles == nil {
			resp.UserRoles = []users.RoleType{}
		}
		for _, role := range permissions.AvailableRoles() {
			resp.Roles = append(resp.Roles, roleResponse{Name: role, Permissions: permissions.RolePermissions(role)})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HealthHandler pings the backing store.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.deps.Healthcheck != nil {
			if err := s.deps.Healthcheck(r.Context()); err != nil {
				log.Err(err).Msg("healthcheck failed")
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
