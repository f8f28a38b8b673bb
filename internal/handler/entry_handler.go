package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"moodsync-server/internal/domain"
	"moodsync-server/internal/middleware"
	"moodsync-server/internal/service"
	"moodsync-server/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type EntryHandler struct {
	service  *service.EntryService
	validate *validator.Validate
}

func NewEntryHandler(service *service.EntryService) *EntryHandler {
	return &EntryHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.JSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	userID := middleware.GetUserID(r)

	entry, err := h.service.Create(userID, &req)
	if err != nil {
		response.JSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to create entry"})
		return
	}

	response.JSON(w, http.StatusCreated, entry)
}

func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	entries, err := h.service.List(userID)
	if err != nil {
		response.JSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to list entries"})
		return
	}

	response.JSON(w, http.StatusOK, entries)
}

func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	entryID := vars["id"]
	if entryID == "" {
		response.JSON(w, http.StatusBadRequest, map[string]string{"error": "Entry ID is required"})
		return
	}

	userID := middleware.GetUserID(r)

	entry, err := h.service.GetByID(userID, entryID)
	if err != nil {
		if err.Error() == "unauthorized: entry does not belong to user" {
			response.JSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
			return
		}
		response.JSON(w, http.StatusNotFound, map[string]string{"error": "Entry not found"})
		return
	}

	response.JSON(w, http.StatusOK, entry)
}

func (h *EntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	entryID := vars["id"]
	if entryID == "" {
		response.JSON(w, http.StatusBadRequest, map[string]string{"error": "Entry ID is required"})
		return
	}

	var req domain.UpdateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.JSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	userID := middleware.GetUserID(r)

	entry, err := h.service.Update(userID, entryID, &req)
	if err != nil {
		var conflictErr *service.PendingConflictError
		if errors.As(err, &conflictErr) {
			response.JSON(w, http.StatusConflict, map[string]interface{}{
				"error":    conflictErr.Error(),
				"conflict": conflictErr.Conflict,
			})
			return
		}
		if err.Error() == "unauthorized: entry does not belong to user" {
			response.JSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
			return
		}
		response.JSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to update entry"})
		return
	}

	response.JSON(w, http.StatusOK, entry)
}

func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	entryID := vars["id"]
	if entryID == "" {
		response.JSON(w, http.StatusBadRequest, map[string]string{"error": "Entry ID is required"})
		return
	}

	userID := middleware.GetUserID(r)
	deviceID := r.URL.Query().Get("device_id")

	if err := h.service.Delete(userID, entryID, deviceID); err != nil {
		if err.Error() == "unauthorized: entry does not belong to user" {
			response.JSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
			return
		}
		response.JSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to delete entry"})
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Entry deleted successfully"})
}
