package handler

import (
	"net/http"
	"regexp"

	"fitstudio/internal/classes/service"
	httputil "fitstudio/pkg/http"
	"fitstudio/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

// An unescaped '+' in a query string arrives as a space, so "?timezone=+05:30"
// reads " 05:30".
var mangledOffset = regexp.MustCompile(`^((?i:UTC|GMT)?) (\d)`)

type ClassHandler struct {
	service service.ClassService
	log     *logger.Logger
}

func NewClassHandler(service service.ClassService, log *logger.Logger) *ClassHandler {
	return &ClassHandler{
		service: service,
		log:     log,
	}
}

func (h *ClassHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	classes, err := h.service.List(r.Context(), timezoneParam(r))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, classes); err != nil {
		h.log.Error("failed to write success response", "handler", "List", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ClassHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := httputil.ParseID(ps.ByName("id"), "class_id")
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	class, err := h.service.GetByID(r.Context(), id, timezoneParam(r))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, class); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func timezoneParam(r *http.Request) string {
	return mangledOffset.ReplaceAllString(r.URL.Query().Get("timezone"), "$1+$2")
}

func (h *ClassHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/classes", h.List)
	router.GET("/classes/:id", h.GetByID)
}
