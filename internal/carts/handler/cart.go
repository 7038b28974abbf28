package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"fairway/internal/carts/service"
	apperrors "fairway/pkg/errors"
	httputil "fairway/pkg/http"
	"fairway/pkg/logger"
	"fairway/pkg/model"
)

type CartHandler struct {
	service service.CartService
	log     *logger.Logger
}

func NewCartHandler(service service.CartService, log *logger.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		log:     log,
	}
}

// List reports every cart with its state at the reference instant; "at"
// defaults to now so the fleet view matches what is on the course.
func (h *CartHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	at, err := httputil.ExtractTime(r, "at", time.Now().UTC())
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	carts, err := h.service.List(r.Context(), at)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, carts); err != nil {
		h.log.Error("failed to write success response", "handler", "List", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CartHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := extractCartID(ps)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	at, err := httputil.ExtractTime(r, "at", time.Now().UTC())
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	cart, err := h.service.GetByID(r.Context(), id, at)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, cart); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CartHandler) SetStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := extractCartID(ps)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "SetStatus", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	var update model.CartStatusUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "SetStatus", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	cart, err := h.service.SetStatus(r.Context(), id, &update)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "SetStatus", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, cart); err != nil {
		h.log.Error("failed to write success response", "handler", "SetStatus", "operation", "WriteSuccess", "error", err)
	}
}

func extractCartID(ps httprouter.Params) (int, error) {
	idStr := ps.ByName("id")
	id, err := strconv.Atoi(idStr)
	if err != nil || id < 1 {
		return 0, apperrors.InvalidInput(fmt.Sprintf("invalid cart ID: %s", idStr))
	}
	return id, nil
}

func (h *CartHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/carts", h.List)
	router.GET("/api/v1/carts/id/:id", h.GetByID)
	router.PATCH("/api/v1/carts/id/:id/status", h.SetStatus)
}
