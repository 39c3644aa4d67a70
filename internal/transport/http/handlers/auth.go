package handlers

import (
	"net/http"

	"auth-service/internal/service"
	apierrors "auth-service/internal/transport/http/errors"
	"auth-service/internal/transport/http/middleware"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Device   string `json:"device"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type accessResponse struct {
	AccessToken string `json:"access_token"`
}

func (h *Handlers) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var in credentialsRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrInvalidBody)
		return
	}

	pair, err := h.svc.RegisterUser(r.Context(), in.Device, in.Email, in.Password)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, tokenPairFrom(pair))
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in credentialsRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrInvalidBody)
		return
	}

	pair, err := h.svc.Login(r.Context(), in.Device, in.Email, in.Password)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenPairFrom(pair))
}

// Renew выдаёт новый access-токен; refresh-токен остаётся прежним,
// поэтому в ответе его нет.
func (h *Handlers) Renew(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrInvalidBody)
		return
	}

	access, err := h.svc.Renew(r.Context(), in.RefreshToken)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, accessResponse{AccessToken: access})
}

// Logout отзывает все сессии владельца access-токена.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.EmailFromContext(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	if err := h.svc.Logout(r.Context(), email); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me возвращает профиль владельца access-токена.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.EmailFromContext(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	user, err := h.svc.User(r.Context(), email)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userFrom(user))
}
