package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/syncroom/server/internal/domain"
	"github.com/syncroom/server/internal/service/session"
)

const identityTokenHeader = "X-Identity-Token"

func (c controller) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (c controller) writeHTTPError(w http.ResponseWriter, err error) {
	var domainErr *domain.Error
	if !errors.As(err, &domainErr) {
		domainErr = domain.NewError(domain.KindValidation, "internal error")
		c.writeJSON(w, http.StatusInternalServerError, domainErr)
		return
	}

	status := http.StatusBadRequest
	switch domainErr.Kind {
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindPermissionDenied:
		status = http.StatusForbidden
	case domain.KindCapacity:
		status = http.StatusConflict
	}

	c.writeJSON(w, status, domainErr)
}

// requesterIdentity resolves the identity token header. REST endpoints
// that mutate rooms require a known identity.
func (c controller) requesterIdentity(r *http.Request) (string, error) {
	token := r.Header.Get(identityTokenHeader)
	if token == "" {
		return "", domain.NewError(domain.KindValidation, "%s header was not provided", identityTokenHeader)
	}

	identityId, err := c.sessionService.IdentityIdFromToken(token)
	if err != nil {
		return "", domain.ErrIdentityNotFound
	}

	return identityId, nil
}

type CreateRoomInput struct {
	Password string `json:"password" validate:"max=72"`
}

func (c controller) createRoom(w http.ResponseWriter, r *http.Request) {
	identityId, err := c.requesterIdentity(r)
	if err != nil {
		c.logger.DebugContext(r.Context(), "failed to resolve requester", "error", err)
		c.writeHTTPError(w, err)
		return
	}

	var input CreateRoomInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		c.writeHTTPError(w, domain.NewError(domain.KindValidation, "invalid request body"))
		return
	}

	if validationErrors, ok := c.validate.Validate(input); !ok {
		c.writeJSON(w, http.StatusBadRequest, validationErrors)
		return
	}

	room, err := c.sessionService.CreateRoom(r.Context(), &session.CreateRoomParams{
		CreatorId: identityId,
		Password:  input.Password,
	})
	if err != nil {
		c.logger.DebugContext(r.Context(), "failed to create room", "error", err)
		c.writeHTTPError(w, err)
		return
	}

	c.writeJSON(w, http.StatusCreated, room)
}

func (c controller) getRoom(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")

	room, err := c.sessionService.GetRoomInfo(r.Context(), roomId)
	if err != nil {
		c.writeHTTPError(w, err)
		return
	}

	c.writeJSON(w, http.StatusOK, room)
}

type ValidatePasswordInput struct {
	Password string `json:"password" validate:"required,max=72"`
}

func (c controller) validateRoomPassword(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")

	var input ValidatePasswordInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		c.writeHTTPError(w, domain.NewError(domain.KindValidation, "invalid request body"))
		return
	}

	if validationErrors, ok := c.validate.Validate(input); !ok {
		c.writeJSON(w, http.StatusBadRequest, validationErrors)
		return
	}

	valid, err := c.sessionService.ValidateRoomPassword(r.Context(), roomId, input.Password)
	if err != nil {
		c.writeHTTPError(w, err)
		return
	}

	c.writeJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

func (c controller) deleteRoom(w http.ResponseWriter, r *http.Request) {
	identityId, err := c.requesterIdentity(r)
	if err != nil {
		c.writeHTTPError(w, err)
		return
	}

	roomId := chi.URLParam(r, "room-id")

	if err := c.sessionService.DeleteRoom(r.Context(), roomId, identityId); err != nil {
		c.logger.DebugContext(r.Context(), "failed to delete room", "error", err)
		c.writeHTTPError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
