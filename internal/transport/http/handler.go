package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"trivia-events-service/internal/app"
	"trivia-events-service/internal/domain"

	"go.uber.org/zap"
)

// Handler serves the weekly event REST endpoints.
type Handler struct {
	service *app.EventService
	logger  *zap.Logger
}

func NewHandler(service *app.EventService, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type completeRequest struct {
	Score            *int `json:"score"`
	QuestionsCorrect *int `json:"questionsCorrect"`
}

type voteRequest struct {
	OptionID string `json:"optionId"`
}

func (h *Handler) CurrentEvent(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.CurrentEvent(r.Context(), userFrom(r.Context()))
	if err != nil {
		fail(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) CompleteNode(w http.ResponseWriter, r *http.Request) {
	index, ok := nodeIndex(w, r)
	if !ok {
		return
	}
	var req completeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	result, err := h.service.CompleteNode(r.Context(), userFrom(r.Context()), index, domain.NodeResult{
		QuestionsCorrect: req.QuestionsCorrect,
		Score:            req.Score,
	})
	if err != nil {
		fail(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) NodeQuestions(w http.ResponseWriter, r *http.Request) {
	index, ok := nodeIndex(w, r)
	if !ok {
		return
	}
	content, err := h.service.NodeQuestions(r.Context(), userFrom(r.Context()), index)
	if err != nil {
		fail(h.logger, w, r, err)
		return
	}
	switch {
	case content.Vote != nil:
		writeJSON(w, http.StatusOK, content.Vote)
	case content.Type == domain.NodeEmojiPuzzle || content.Type == domain.NodeQuoteGuess:
		writeJSON(w, http.StatusOK, content.Questions)
	default:
		if content.Questions == nil {
			content.Questions = []domain.Question{}
		}
		writeJSON(w, http.StatusOK, struct {
			Questions []domain.Question `json:"questions"`
			TimeLimit int               `json:"timeLimit"`
		}{content.Questions, content.TimeLimit})
	}
}

func (h *Handler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	index, ok := nodeIndex(w, r)
	if !ok {
		return
	}
	var req voteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	result, err := h.service.SubmitVote(r.Context(), userFrom(r.Context()), index, req.OptionID)
	if err != nil {
		fail(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func nodeIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, domain.ErrInvalidNodeIndex.Error())
		return 0, false
	}
	return index, true
}

// decodeBody accepts an empty body as the zero request.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	writeError(w, http.StatusBadRequest, "malformed request body")
	return false
}

// fail maps core errors onto HTTP statuses. Unknown errors are logged and hidden.
func fail(logger *zap.Logger, w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNoActiveEvent),
		errors.Is(err, domain.ErrEventNotFound),
		errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, rootMessage(err))
	case errors.Is(err, domain.ErrInvalidNodeIndex),
		errors.Is(err, domain.ErrNodeLocked),
		errors.Is(err, domain.ErrNotVoteNode),
		errors.Is(err, domain.ErrMissingOption),
		errors.Is(err, domain.ErrOptionNotFound):
		writeError(w, http.StatusBadRequest, rootMessage(err))
	default:
		logger.Error("request failed",
			zap.String("request_id", requestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// rootMessage returns the sentinel's text without infrastructure context.
func rootMessage(err error) string {
	for _, sentinel := range []error{
		domain.ErrNoActiveEvent, domain.ErrEventNotFound, domain.ErrQuizNotFound, domain.ErrUserNotFound,
		domain.ErrInvalidNodeIndex, domain.ErrNodeLocked, domain.ErrNotVoteNode,
		domain.ErrMissingOption, domain.ErrOptionNotFound,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

type errorBody struct {
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
