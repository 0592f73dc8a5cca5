package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"securitysvc/internal/security/models"
	"securitysvc/internal/security/service"
	id "securitysvc/pkg/domain"
	dErrors "securitysvc/pkg/domain-errors"
	"securitysvc/pkg/platform/httputil"
	"securitysvc/pkg/requestcontext"
)

// Service defines the security operations the handlers need.
type Service interface {
	ListAll(ctx context.Context) ([]*models.SecurityDetails, error)
	Get(ctx context.Context, securityID id.SecurityID) (*models.SecurityDetails, error)
	Create(ctx context.Context, cmd service.CreateCommand) (*models.SecurityDetails, error)
	Update(ctx context.Context, securityID id.SecurityID, cmd service.UpdateCommand) (*models.SecurityDetails, error)
	Delete(ctx context.Context, securityID id.SecurityID, expectedVersion int) error
	Search(ctx context.Context, q models.SearchQuery) (*models.SearchResult, error)
}

// Handler wires security endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a security handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the v1 security endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/securities", h.HandleList)
	r.Post("/securities", h.HandleCreate)
	r.Get("/security/{id}", h.HandleGet)
	r.Put("/security/{id}", h.HandleUpdate)
	r.Delete("/security/{id}", h.HandleDelete)
}

// RegisterV2 mounts the v2 security endpoints on the router.
func (h *Handler) RegisterV2(r chi.Router) {
	r.Get("/securities", h.HandleSearch)
}

// HandleList handles GET /securities.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	details, err := h.service.ListAll(ctx)
	if err != nil {
		h.fail(ctx, w, "list securities failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromSecurityDetailsList(details))
}

// HandleGet handles GET /security/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	securityID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	d, err := h.service.Get(ctx, securityID)
	if err != nil {
		h.fail(ctx, w, "get security failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSecurityDetails(d))
}

// HandleCreate handles POST /securities.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[SecurityRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	d, err := h.service.Create(ctx, req.toCreateCommand())
	if err != nil {
		h.fail(ctx, w, "create security failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromSecurityDetails(d))
}

// HandleUpdate handles PUT /security/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	securityID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SecurityRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	d, err := h.service.Update(ctx, securityID, req.toUpdateCommand())
	if err != nil {
		h.fail(ctx, w, "update security failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSecurityDetails(d))
}

// HandleDelete handles DELETE /security/{id}?version=N.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	securityID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	version, err := httputil.RequiredIntQuery(r, "version")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Delete(ctx, securityID, version); err != nil {
		h.fail(ctx, w, "delete security failed", err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (id.SecurityID, bool) {
	securityID, err := id.ParseSecurityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "Security not found"))
		return id.SecurityID{}, false
	}
	return securityID, true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	level := slog.LevelWarn
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
