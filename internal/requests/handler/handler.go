package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"solicitudes/internal/requests/models"
	"solicitudes/internal/requests/service"
	"solicitudes/pkg/platform/httputil"
	"solicitudes/pkg/requestcontext"
)

// Handler wires the request endpoints to the use cases.
type Handler struct {
	service *service.Service
	logger  *slog.Logger
}

// New constructs a request handler.
func New(svc *service.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: svc, logger: logger}
}

// Register mounts the public endpoints under /api/solicitudes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/solicitudes", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Get("/stats", h.HandleStats)
		r.Get("/{id}", h.HandleGet)
		r.Patch("/{id}", h.HandleUpdateStatus)
		r.Delete("/{id}", h.HandleDelete)
	})
}

// RegisterAdmin mounts the forced operations under /api/admin/solicitudes.
// Callers guard r with the admin token middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Route("/api/admin/solicitudes", func(r chi.Router) {
		r.Patch("/{id}/status", h.HandleForceUpdateStatus)
		r.Delete("/{id}", h.HandleForceDelete)
	})
}

// HandleList handles GET /api/solicitudes.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, err := h.service.List.Execute(ctx, listQuery(r))
	if err != nil {
		h.fail(w, r, "list requests failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page.Envelope())
}

// HandleStats handles GET /api/solicitudes/stats.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.List.Stats(r.Context())
	if err != nil {
		h.fail(w, r, "request stats failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dataResponse{Data: stats})
}

// HandleCreate handles POST /api/solicitudes.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.CreateRequestRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	summary, err := h.service.Create.Execute(ctx, req.DocumentName)
	if err != nil {
		h.fail(w, r, "create request failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, dataResponse{Data: summary, Message: "request created"})
}

// HandleGet handles GET /api/solicitudes/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	summary, err := h.service.Get.Execute(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get request failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dataResponse{Data: summary})
}

// HandleUpdateStatus handles PATCH /api/solicitudes/{id}.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	h.updateStatus(w, r, false)
}

// HandleForceUpdateStatus handles PATCH /api/admin/solicitudes/{id}/status.
func (h *Handler) HandleForceUpdateStatus(w http.ResponseWriter, r *http.Request) {
	h.updateStatus(w, r, true)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request, forced bool) {
	ctx := r.Context()
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.UpdateStatusRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	target, err := models.ParseStatus(req.Status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	update := h.service.UpdateStatus.Execute
	if forced {
		update = h.service.UpdateStatus.ForceExecute
	}
	summary, err := update(ctx, id, target)
	if err != nil {
		h.fail(w, r, "update request status failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dataResponse{Data: summary, Message: "status updated"})
}

// HandleDelete handles DELETE /api/solicitudes/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, false)
}

// HandleForceDelete handles DELETE /api/admin/solicitudes/{id}. A missing
// request answers 200 with deleted=false.
func (h *Handler) HandleForceDelete(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, true)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request, forced bool) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	remove := h.service.Delete.Execute
	if forced {
		remove = h.service.Delete.ForceExecute
	}
	deleted, err := remove(r.Context(), id)
	if err != nil {
		h.fail(w, r, "delete request failed", err)
		return
	}
	resp := deleteResponse{Deleted: deleted}
	if deleted {
		resp.Message = "request deleted"
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// pathID parses the {id} segment. Malformed ids are a validation error.
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := models.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return 0, false
	}
	return id.Int64(), true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"path", r.URL.Path,
		"error", err,
	)
	httputil.WriteError(w, err)
}

// listQuery reads the list filters. Non-numeric page values fall back to
// the defaults; a numeric per_page is passed on even when it is 0.
func listQuery(r *http.Request) models.ListRequestsQuery {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	var perPage *int
	if n, err := strconv.Atoi(q.Get("per_page")); err == nil {
		perPage = &n
	}
	return models.ListRequestsQuery{
		Page:      page,
		PerPage:   perPage,
		Status:    q.Get("status"),
		Search:    q.Get("search"),
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
	}
}
