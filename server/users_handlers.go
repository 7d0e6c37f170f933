package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/synco-server/internal/errors"
	"github.com/jrsteele09/synco-server/permissions"
	"github.com/jrsteele09/synco-server/users"
)

// pagination reads offset and limit query parameters. Missing values are zero
// and left for the services to default.
func pagination(r *http.Request) (offset, limit int, err error) {
	q := r.URL.Query()
	if v := q.Get("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil {
			return 0, 0, errors.Wrapf(errors.ErrInvalidRequest, "offset must be an integer")
		}
	}
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			return 0, 0, errors.Wrapf(errors.ErrInvalidRequest, "limit must be an integer")
		}
	}
	return offset, limit, nil
}

func (s *Server) ListUsersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, limit, err := pagination(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		list, err := s.deps.Users.List(r.Context(), offset, limit)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if list == nil {
			list = []*users.User{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func (s *Server) GetUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.deps.Users.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

type setRolesRequest struct {
	Roles []string `json:"roles"`
}

func (s *Server) SetRolesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req setRolesRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if err := permissions.ValidateRoles(req.Roles); err != nil {
			writeError(w, r, err)
			return
		}

		roles := make([]users.RoleType, 0, len(req.Roles))
		for _, role := range req.Roles {
			roles = append(roles, users.RoleType(role))
		}
		user, err := s.deps.Users.SetRoles(r.Context(), chi.URLParam(r, "id"), roles)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active"`
}

func (s *Server) SetActiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req setActiveRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if req.IsActive == nil {
			writeError(w, r, errors.Wrapf(errors.ErrInvalidRequest, "is_active is required"))
			return
		}

		id := chi.URLParam(r, "id")
		if !*req.IsActive && id == identityFromContext(r.Context()).UserID {
			writeError(w, r, errors.Wrapf(errors.ErrInvalidRequest, "cannot deactivate yourself"))
			return
		}
		user, err := s.deps.Users.SetActive(r.Context(), id, *req.IsActive)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

type setNicknameRequest struct {
	Nickname string `json:"nickname"`
}

func (s *Server) SetNicknameHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req setNicknameRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		user, err := s.deps.Users.SetNickname(r.Context(), userFromContext(r.Context()).ID, req.Nickname)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}
