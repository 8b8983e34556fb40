package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Dosada05/cup-manager/middleware"
	"github.com/Dosada05/cup-manager/models"
	"github.com/Dosada05/cup-manager/services"
)

// multipartOverhead — запас на заголовки и границы multipart-тела.
const multipartOverhead = 1 << 20

type MatchHandler struct {
	matchService   services.MatchService
	maxUploadBytes int64
}

func NewMatchHandler(ms services.MatchService, maxUploadBytes int64) *MatchHandler {
	return &MatchHandler{
		matchService:   ms,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *MatchHandler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var input services.CreateMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if input.EventID <= 0 || input.User1ID <= 0 || input.User2ID <= 0 {
		badRequestResponse(w, r, errors.New("event_id, user1_id and user2_id are required"))
		return
	}

	match, err := h.matchService.Create(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	eventID, err := optionalIntQuery(r, "event_id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.matchService.List(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetByID(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) UpdateMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.Update(r.Context(), matchID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.matchService.Delete(r.Context(), matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadMatchImage godoc
// @Summary Загрузить скриншот или схему тактики участника матча
// @Tags matches
// @Accept multipart/form-data
// @Produce json
// @Param matchID path int true "Match ID"
// @Param userID path int true "User ID (участник матча)"
// @Param file_type query string true "screenshot или tactics"
// @Param file formData file true "Изображение (.jpg .jpeg .png .gif .bmp .webp)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string "Загрузка за другого пользователя"
// @Failure 404 {object} map[string]string "Матч не найден или пользователь не участник"
// @Failure 413 {object} map[string]string "Файл слишком большой"
// @Security BearerAuth
// @Router /matches/{matchID}/upload/{userID} [post]
func (h *MatchHandler) UploadMatchImage(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			mapServiceErrorToHTTP(w, r, services.ErrFileTooLarge)
			return
		}
		badRequestResponse(w, r, fmt.Errorf("failed to parse multipart form: %w", err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to get file from form: %w", err))
		return
	}
	defer file.Close()

	match, err := h.matchService.UploadMatchImage(r.Context(), services.UploadMatchImageInput{
		MatchID:  matchID,
		UserID:   userID,
		CallerID: currentUserID,
		FileType: models.MatchFileType(r.URL.Query().Get("file_type")),
		Filename: header.Filename,
		Size:     header.Size,
		Reader:   file,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
