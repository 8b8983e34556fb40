package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/cup-manager/repositories"
	"github.com/Dosada05/cup-manager/services"
)

type ResultHandler struct {
	resultService services.ResultService
}

func NewResultHandler(rs services.ResultService) *ResultHandler {
	return &ResultHandler{resultService: rs}
}

// CreateResult godoc
// @Summary Записать результат матча
// @Description Для матчей лиги в той же транзакции обновляется турнирная таблица.
// @Tags results
// @Accept json
// @Produce json
// @Param input body services.CreateResultInput true "Результат"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Некорректный счёт или победитель"
// @Failure 404 {object} map[string]string "Матч не найден"
// @Failure 409 {object} map[string]string "Результат уже записан"
// @Security BearerAuth
// @Router /results [post]
func (h *ResultHandler) CreateResult(w http.ResponseWriter, r *http.Request) {
	var input services.CreateResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if input.MatchID <= 0 {
		badRequestResponse(w, r, errors.New("match_id is required"))
		return
	}

	result, err := h.resultService.Create(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ResultHandler) ListResults(w http.ResponseWriter, r *http.Request) {
	matchID, err := optionalIntQuery(r, "match_id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	eventID, err := optionalIntQuery(r, "event_id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	results, err := h.resultService.List(r.Context(), repositories.ResultFilter{MatchID: matchID, EventID: eventID})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"results": results}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ResultHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	resultID, err := getIDFromURL(r, "resultID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.resultService.GetByID(r.Context(), resultID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetMatchResult отдаёт результат матча или null, если его ещё нет.
func (h *ResultHandler) GetMatchResult(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.resultService.GetByMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ResultHandler) UpdateResult(w http.ResponseWriter, r *http.Request) {
	resultID, err := getIDFromURL(r, "resultID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if input.User1Score == nil && input.User2Score == nil && input.WinnerUserID == nil {
		badRequestResponse(w, r, errors.New("no fields provided for update"))
		return
	}

	result, err := h.resultService.Update(r.Context(), resultID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ResultHandler) DeleteResult(w http.ResponseWriter, r *http.Request) {
	resultID, err := getIDFromURL(r, "resultID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.resultService.Delete(r.Context(), resultID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
