package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"securitysvc/internal/securitytype/models"
	"securitysvc/internal/securitytype/service"
	id "securitysvc/pkg/domain"
	dErrors "securitysvc/pkg/domain-errors"
	"securitysvc/pkg/platform/httputil"
	"securitysvc/pkg/requestcontext"
)

// Service defines the security type operations the handler needs.
type Service interface {
	ListAll(ctx context.Context) ([]*models.SecurityType, error)
	Get(ctx context.Context, typeID id.SecurityTypeID) (*models.SecurityType, error)
	Create(ctx context.Context, cmd service.CreateCommand) (*models.SecurityType, error)
	Update(ctx context.Context, typeID id.SecurityTypeID, cmd service.UpdateCommand) (*models.SecurityType, error)
	Delete(ctx context.Context, typeID id.SecurityTypeID, expectedVersion int) error
}

// Handler wires security type endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a security type handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts security type endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/securityTypes", h.HandleList)
	r.Post("/securityTypes", h.HandleCreate)
	r.Get("/securityType/{id}", h.HandleGet)
	r.Put("/securityType/{id}", h.HandleUpdate)
	r.Delete("/securityType/{id}", h.HandleDelete)
}

// HandleList handles GET /securityTypes.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	types, err := h.service.ListAll(ctx)
	if err != nil {
		h.fail(ctx, w, "list security types failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromSecurityTypes(types))
}

// HandleGet handles GET /securityType/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	typeID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	t, err := h.service.Get(ctx, typeID)
	if err != nil {
		h.fail(ctx, w, "get security type failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSecurityType(t))
}

// HandleCreate handles POST /securityTypes.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[SecurityTypeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	t, err := h.service.Create(ctx, req.toCreateCommand())
	if err != nil {
		h.fail(ctx, w, "create security type failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromSecurityType(t))
}

// HandleUpdate handles PUT /securityType/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	typeID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SecurityTypeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	t, err := h.service.Update(ctx, typeID, req.toUpdateCommand())
	if err != nil {
		h.fail(ctx, w, "update security type failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSecurityType(t))
}

// HandleDelete handles DELETE /securityType/{id}?version=N.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	typeID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	version, err := httputil.RequiredIntQuery(r, "version")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Delete(ctx, typeID, version); err != nil {
		h.fail(ctx, w, "delete security type failed", err)
		return
	}
	httputil.WriteNoContent(w)
}

// pathID parses the {id} segment. An unparseable id cannot name a stored
// document, so it is reported as not found.
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (id.SecurityTypeID, bool) {
	typeID, err := id.ParseSecurityTypeID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "SecurityType not found"))
		return id.SecurityTypeID{}, false
	}
	return typeID, true
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
