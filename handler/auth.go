package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/stevemurr/cafe-server/auth"
	"github.com/stevemurr/cafe-server/collection"
	"github.com/stevemurr/cafe-server/store"
)

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &req); err != nil {
		badJSON(w, err)
		return
	}
	user, err := h.verifier.Verify(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.Info("login", zap.String("email", user.Email), zap.String("role", string(user.Role)))
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req auth.Registration
	if err := readJSON(w, r, &req); err != nil {
		badJSON(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.fail(w, r, err)
		return
	}

	rec, err := h.collections[usersEntity].CreateUnique(r.Context(), store.Record(req.Profile()), "email")
	if errors.Is(err, collection.ErrDuplicate) {
		writeError(w, http.StatusConflict, "El correo ya está registrado")
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}
