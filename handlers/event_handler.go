package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/cup-manager/middleware"
	"github.com/Dosada05/cup-manager/services"
)

type EventHandler struct {
	eventService        services.EventService
	standingsService    services.StandingsService
	registrationService services.RegistrationService
}

func NewEventHandler(es services.EventService, ss services.StandingsService, rs services.RegistrationService) *EventHandler {
	return &EventHandler{
		eventService:        es,
		standingsService:    ss,
		registrationService: rs,
	}
}

// CreateEvent godoc
// @Summary Создать событие
// @Tags events
// @Accept json
// @Produce json
// @Param input body services.CreateEventInput true "Событие"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Security BearerAuth
// @Router /events [post]
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var input services.CreateEventInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.Create(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"event": event}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.eventService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"events": events}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.GetByID(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"event": event}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateEvent godoc
// @Summary Частично обновить событие
// @Description Смена режима запрещена, если у события уже есть матчи.
// @Tags events
// @Accept json
// @Produce json
// @Param eventID path int true "Event ID"
// @Param input body services.UpdateEventInput true "Изменяемые поля"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "Режим заблокирован"
// @Security BearerAuth
// @Router /events/{eventID} [put]
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateEventInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if input.Name == nil && input.Description == nil && input.StartDate == nil && input.EndDate == nil && input.Mode == nil {
		badRequestResponse(w, r, errors.New("no fields provided for update"))
		return
	}

	event, err := h.eventService.Update(r.Context(), eventID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"event": event}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.eventService.Delete(r.Context(), eventID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *EventHandler) ListEventMatches(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.eventService.ListMatches(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participants, err := h.registrationService.ListParticipants(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"participants": participants}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) ListEventRegistrations(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	registrations, err := h.registrationService.ListByEvent(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"registrations": registrations}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetStandings godoc
// @Summary Турнирная таблица лиги
// @Description Сортировка: очки, разница мячей, забитые (по убыванию). Позиции идут подряд.
// @Tags events
// @Produce json
// @Param eventID path int true "Event ID"
// @Success 200 {array} models.StandingRow
// @Failure 400 {object} map[string]string "Событие не является лигой"
// @Failure 404 {object} map[string]string "Событие не найдено"
// @Router /events/{eventID}/standings [get]
func (h *EventHandler) GetStandings(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	rows, err := h.standingsService.RankedStandings(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, rows, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetKnockoutProgress godoc
// @Summary Путь участника по сетке плей-офф
// @Tags events
// @Produce json
// @Param eventID path int true "Event ID"
// @Param userID path int true "User ID"
// @Success 200 {array} models.KnockoutProgressEntry
// @Failure 400 {object} map[string]string "Событие не плей-офф или пользователь не зарегистрирован"
// @Failure 404 {object} map[string]string
// @Router /events/{eventID}/users/{userID}/knockout-progress [get]
func (h *EventHandler) GetKnockoutProgress(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	progress, err := h.eventService.KnockoutProgress(r.Context(), eventID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, progress, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// JoinEvent регистрирует текущего пользователя на событие.
func (h *EventHandler) JoinEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	registration, err := h.registrationService.Register(r.Context(), currentUserID, eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"registration": registration}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) LeaveEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	if err := h.registrationService.Unregister(r.Context(), currentUserID, eventID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
