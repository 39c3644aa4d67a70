package handlers

import (
	"net/http"

	"auth-service/internal/service"
	apierrors "auth-service/internal/transport/http/errors"
	"auth-service/internal/transport/http/middleware"
)

type updateUserRequest struct {
	// Email учетной записи, которую просят изменить; пусто — своя.
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	out := make([]userResponse, 0, len(users))
	for i := range users {
		out = append(out, userFrom(&users[i]))
	}

	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.EmailFromContext(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	var in updateUserRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrInvalidBody)
		return
	}

	user, err := h.svc.UpdateUser(r.Context(), email, in.Email, in.Password)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userFrom(user))
}
