package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"innkeep/internal/catalog/service"
	apperrors "innkeep/pkg/errors"
	httputil "innkeep/pkg/http"
	"innkeep/pkg/logger"
	"innkeep/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type CatalogHandler struct {
	service service.CatalogService
	log     *logger.Logger
}

func NewCatalogHandler(service service.CatalogService, log *logger.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		log:     log,
	}
}

func (h *CatalogHandler) CreateRoomType(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var roomType model.RoomType
	if err := json.NewDecoder(r.Body).Decode(&roomType); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "CreateRoomType", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	created, err := h.service.CreateRoomType(r.Context(), &roomType)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "CreateRoomType", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, created); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateRoomType", "operation", "WriteCreated", "error", err)
	}
}

func (h *CatalogHandler) GetRoomType(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	roomType, err := h.service.GetRoomType(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetRoomType", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, roomType); err != nil {
		h.log.Error("failed to write success response", "handler", "GetRoomType", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CatalogHandler) ListRoomTypes(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListRoomTypes", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	roomTypes, total, err := h.service.ListRoomTypes(r.Context(), limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListRoomTypes", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, roomTypes, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListRoomTypes", "operation", "WritePaginated", "error", err)
	}
}

func (h *CatalogHandler) DeleteRoomType(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.DeleteRoomType(r.Context(), ps.ByName("id")); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "DeleteRoomType", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *CatalogHandler) AddInstance(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var instance model.RoomInstance
	if err := json.NewDecoder(r.Body).Decode(&instance); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "AddInstance", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}
	instance.RoomTypeID = ps.ByName("id")

	created, err := h.service.AddInstance(r.Context(), &instance)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "AddInstance", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, created); err != nil {
		h.log.Error("failed to write created response", "handler", "AddInstance", "operation", "WriteCreated", "error", err)
	}
}

func (h *CatalogHandler) ListInstances(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	instances, err := h.service.ListInstances(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListInstances", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, instances); err != nil {
		h.log.Error("failed to write success response", "handler", "ListInstances", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CatalogHandler) RemoveInstance(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.RemoveInstance(r.Context(), ps.ByName("id")); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "RemoveInstance", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

type availabilityResponse struct {
	RoomTypeID string    `json:"room_type_id"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
	Available  int64     `json:"available"`
}

func (h *CatalogHandler) Availability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	query := r.URL.Query()

	checkIn, err := parseDate(query.Get("check_in"))
	if err != nil {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("invalid check_in, must be YYYY-MM-DD or RFC3339")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Availability", "operation", "WriteError", "error", writeErr)
		}
		return
	}
	checkOut, err := parseDate(query.Get("check_out"))
	if err != nil {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("invalid check_out, must be YYYY-MM-DD or RFC3339")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Availability", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	roomTypeID := ps.ByName("id")
	count, err := h.service.Availability(r.Context(), roomTypeID, checkIn, checkOut)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Availability", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, availabilityResponse{
		RoomTypeID: roomTypeID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Available:  count,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "Availability", "operation", "WriteSuccess", "error", err)
	}
}

func parseDate(value string) (time.Time, error) {
	if parsed, err := time.Parse("2006-01-02", value); err == nil {
		return parsed.UTC(), nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return parsed.UTC(), nil
}

func (h *CatalogHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/room-types", h.CreateRoomType)
	router.GET("/api/v1/room-types", h.ListRoomTypes)
	router.GET("/api/v1/room-types/id/:id", h.GetRoomType)
	router.DELETE("/api/v1/room-types/id/:id", h.DeleteRoomType)
	router.POST("/api/v1/room-types/id/:id/instances", h.AddInstance)
	router.GET("/api/v1/room-types/id/:id/instances", h.ListInstances)
	router.GET("/api/v1/room-types/id/:id/availability", h.Availability)
	router.DELETE("/api/v1/room-instances/id/:id", h.RemoveInstance)
}
