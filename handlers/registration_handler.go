package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/cup-manager/repositories"
	"github.com/Dosada05/cup-manager/services"
)

type RegistrationHandler struct {
	registrationService services.RegistrationService
}

func NewRegistrationHandler(rs services.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrationService: rs}
}

type createRegistrationRequest struct {
	UserID  int `json:"user_id"`
	EventID int `json:"event_id"`
}

// CreateRegistration регистрирует любого пользователя на событие (организатор).
func (h *RegistrationHandler) CreateRegistration(w http.ResponseWriter, r *http.Request) {
	var input createRegistrationRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if input.UserID <= 0 || input.EventID <= 0 {
		badRequestResponse(w, r, errors.New("user_id and event_id are required"))
		return
	}

	registration, err := h.registrationService.Register(r.Context(), input.UserID, input.EventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"registration": registration}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RegistrationHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	userID, err := optionalIntQuery(r, "user_id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	eventID, err := optionalIntQuery(r, "event_id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	registrations, err := h.registrationService.List(r.Context(), repositories.RegistrationFilter{UserID: userID, EventID: eventID})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"registrations": registrations}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RegistrationHandler) DeleteRegistration(w http.ResponseWriter, r *http.Request) {
	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.registrationService.Unregister(r.Context(), userID, eventID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
