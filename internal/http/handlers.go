package http

import (
	"errors"
	"net/http"
	"time"

	"spendbook/internal/core"
	applog "spendbook/internal/log"
	"spendbook/internal/notify"
	"spendbook/internal/services"
)

type listResponse struct {
	Sort     core.SortMode  `json:"sort"`
	Count    int            `json:"count"`
	Expenses []core.Expense `json:"expenses"`
}

type undoStateResponse struct {
	Pending bool          `json:"pending"`
	Expense *core.Expense `json:"expense,omitempty"`
	Until   time.Time     `json:"until,omitzero"`
}

type notificationsResponse struct {
	Notifications []notify.Notification `json:"notifications"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("sort"); raw != "" {
		mode, err := core.ParseSortMode(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		// SetMode only fails on invalid modes, which ParseSortMode rules out
		_ = s.controller.SetMode(mode)
	}

	view := s.controller.View()
	writeJSON(w, r, http.StatusOK, listResponse{
		Sort:     s.controller.Mode(),
		Count:    len(view),
		Expenses: view,
	})
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		s.rejectRequest(w, r, err)
		return
	}

	draft, err := req.toDraft(s.loc, s.clock())
	if err != nil {
		s.rejectRequest(w, r, err)
		return
	}

	e, err := s.repo.Add(r.Context(), draft)
	if err != nil {
		s.rejectRequest(w, r, err)
		return
	}

	w.Header().Set("Location", "/expenses/"+e.ID)
	writeJSON(w, r, http.StatusCreated, e)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	e, ok := s.repo.Get(r.PathValue("id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, services.ErrNotFound.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, e)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req updateExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		s.rejectRequest(w, r, err)
		return
	}

	patch, err := req.toPatch(s.loc, s.clock())
	if err != nil {
		s.rejectRequest(w, r, err)
		return
	}
	if patch.IsEmpty() {
		writeError(w, r, http.StatusBadRequest, "no fields to update")
		return
	}

	e, found, err := s.repo.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		s.rejectRequest(w, r, err)
		return
	}
	if !found {
		writeError(w, r, http.StatusNotFound, services.ErrNotFound.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, e)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	slot, ok := s.controller.Delete(r.Context(), r.PathValue("id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, services.ErrNotFound.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, slot)
}

func (s *Server) handleSwipe(w http.ResponseWriter, r *http.Request) {
	var req swipeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.rejectRequest(w, r, err)
		return
	}

	res, err := s.controller.Swipe(r.Context(), r.PathValue("id"), services.Direction(req.Direction))
	switch {
	case errors.Is(err, services.ErrNotFound):
		writeError(w, r, http.StatusNotFound, services.ErrNotFound.Error())
	case errors.Is(err, services.ErrInvalidDirection):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	case err != nil:
		writeError(w, r, http.StatusInternalServerError, "swipe failed")
	default:
		writeJSON(w, r, http.StatusOK, res)
	}
}

func (s *Server) handleUndoState(w http.ResponseWriter, r *http.Request) {
	slot, ok := s.controller.Pending()
	if !ok {
		writeJSON(w, r, http.StatusOK, undoStateResponse{})
		return
	}
	writeJSON(w, r, http.StatusOK, undoStateResponse{
		Pending: true,
		Expense: &slot.Expense,
		Until:   slot.Until,
	})
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	e, ok := s.controller.Undo(r.Context())
	if !ok {
		writeError(w, r, http.StatusConflict, "nothing to undo")
		return
	}
	writeJSON(w, r, http.StatusOK, e)
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, core.Summarize(s.repo.List(), s.clock()))
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	resp := notificationsResponse{Notifications: []notify.Notification{}}
	if s.feed != nil {
		resp.Notifications = s.feed.Recent()
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleDismissNotification(w http.ResponseWriter, r *http.Request) {
	if s.feed != nil {
		s.feed.Dismiss(r.PathValue("id"))
	}
	w.WriteHeader(http.StatusNoContent)
}

// rejectRequest answers 400 for unreadable bodies and 422 for validation
// failures, which also go out as notifications.
func (s *Server) rejectRequest(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errMalformedBody):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case isValidationError(err):
		resp := validationResponse(err)
		s.notifier.Notify(r.Context(), notify.New(notify.KindValidationFailure, resp.Error, err))
		writeJSON(w, r, http.StatusUnprocessableEntity, resp)
	default:
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, "request", nil)
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
