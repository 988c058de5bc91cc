package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/apperror"
	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/entity"
	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/usecase"
)

const maxResultsLimit = 100

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (that *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleGetRoom")

	id := strings.ToUpper(mux.Vars(r)["id"])

	room, err := that.rooms.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			that.writeError(w, http.StatusNotFound, apperror.ErrRoomNotFound)
			return
		}

		log.Error("failed to get room snapshot", "room_id", id, "error", err)
		that.writeError(w, http.StatusInternalServerError, err)
		return
	}

	that.writeJSON(w, http.StatusOK, usecase.NewRoomState(room))
}

func (that *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleListResults")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			that.writeJSON(w, http.StatusBadRequest, errorResponse{
				Error: "limit must be a positive integer",
				Code:  apperror.CodeInvalidArgument,
			})
			return
		}

		limit = min(parsed, maxResultsLimit)
	}

	if that.results == nil {
		that.writeJSON(w, http.StatusOK, []*entity.Result{})
		return
	}

	results, err := that.results.List(r.Context(), limit)
	if err != nil {
		log.Error("failed to list results", "error", err)
		that.writeError(w, http.StatusInternalServerError, err)
		return
	}

	if results == nil {
		results = []*entity.Result{}
	}

	that.writeJSON(w, http.StatusOK, results)
}

func (that *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to encode response", "error", err)
	}
}

func (that *Server) writeError(w http.ResponseWriter, status int, err error) {
	that.writeJSON(w, status, errorResponse{
		Error: apperror.Message(err),
		Code:  apperror.Code(err),
	})
}
