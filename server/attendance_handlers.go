package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/synco-server/internal/errors"
	"github.com/jrsteele09/synco-server/permissions"
	"github.com/jrsteele09/synco-server/users"
)

// mayEditAttendance fails with ErrForbidden unless user may change name's attendance.
// Managers edit anyone, players only themselves.
func mayEditAttendance(user *users.User, name string) error {
	if permissions.Allowed(user, permissions.AttendanceManage) {
		return nil
	}
	if name == user.DisplayName() && permissions.Allowed(user, permissions.AttendanceSelf) {
		return nil
	}
	if name == user.DisplayName() {
		return errors.Wrapf(errors.ErrForbidden, "missing permission %s", permissions.AttendanceSelf)
	}
	return errors.Wrapf(errors.ErrForbidden, "missing permission %s", permissions.AttendanceManage)
}

type markAttendanceRequest struct {
	EventID   string `json:"event_id"`
	UserName  string `json:"user_name"`
	Attending *bool  `json:"attending"`
}

func (s *Server) MarkAttendanceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req markAttendanceRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		user := userFromContext(r.Context())
		if req.UserName == "" {
			req.UserName = user.DisplayName()
		}
		attending := req.Attending == nil || *req.Attending

		if err := mayEditAttendance(user, req.UserName); err != nil {
			writeError(w, r, err)
			return
		}
		summary, err := s.deps.Attendance.Mark(r.Context(), req.EventID, req.UserName, attending)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

func (s *Server) ListAttendanceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, limit, err := pagination(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		list, err := s.deps.Attendance.List(r.Context(), offset, limit)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func (s *Server) GetAttendanceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := s.deps.Attendance.Get(r.Context(), chi.URLParam(r, "eventID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

func (s *Server) RemoveAttendeeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID, name := chi.URLParam(r, "eventID"), chi.URLParam(r, "name")
		if err := mayEditAttendance(userFromContext(r.Context()), name); err != nil {
			writeError(w, r, err)
			return
		}

		removed, err := s.deps.Attendance.Remove(r.Context(), eventID, name)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !removed {
			writeError(w, r, errors.Wrapf(errors.ErrNotFound, "%s has no attendance for event %s", name, eventID))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": name + " removed", "removed": true})
	}
}

func (s *Server) DeleteAttendanceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID := chi.URLParam(r, "eventID")
		deleted, err := s.deps.Attendance.Delete(r.Context(), eventID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !deleted {
			writeError(w, r, errors.Wrapf(errors.ErrNotFound, "no attendance for event %s", eventID))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "attendance deleted", "deleted": true})
	}
}

