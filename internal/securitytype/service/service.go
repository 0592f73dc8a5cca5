package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"securitysvc/internal/audit"
	"securitysvc/internal/platform/tracing"
	stmetrics "securitysvc/internal/securitytype/metrics"
	"securitysvc/internal/securitytype/models"
	id "securitysvc/pkg/domain"
	dErrors "securitysvc/pkg/domain-errors"
	"securitysvc/pkg/platform/sentinel"
	"securitysvc/pkg/requestcontext"
)

const tracerName = "securitysvc/securitytype"

// Client-facing messages.
const (
	msgNotFound        = "SecurityType not found"
	msgVersionConflict = "Version conflict"
	msgStillReferenced = "SecurityType is still referenced by securities"
	msgDuplicate       = "abbreviation is already in use"
)

// Store persists security types.
type Store interface {
	Create(ctx context.Context, t *models.SecurityType) error
	FindByID(ctx context.Context, typeID id.SecurityTypeID) (*models.SecurityType, error)
	ListAll(ctx context.Context) ([]*models.SecurityType, error)
	UpdateIfVersion(ctx context.Context, t *models.SecurityType, expectedVersion int) (*models.SecurityType, error)
	DeleteIfVersion(ctx context.Context, typeID id.SecurityTypeID, expectedVersion int) error
}

// AuditPublisher receives change events after successful mutations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

// CreateCommand carries validated input for Create.
type CreateCommand struct {
	Abbreviation string
	Description  string
}

// UpdateCommand carries validated input for Update. Version is the version the
// caller last read.
type UpdateCommand struct {
	Abbreviation string
	Description  string
	Version      int
}

// Service orchestrates security type reads and versioned writes.
type Service struct {
	store          Store
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *stmetrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *stmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service.
func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListAll returns every security type in insertion order.
func (s *Service) ListAll(ctx context.Context) (_ []*models.SecurityType, err error) {
	ctx, span := tracing.Start(ctx, tracerName, "securitytype.list")
	defer func() { tracing.End(span, err) }()

	types, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list security types")
	}
	return types, nil
}

// Get returns one security type.
func (s *Service) Get(ctx context.Context, typeID id.SecurityTypeID) (_ *models.SecurityType, err error) {
	ctx, span := tracing.Start(ctx, tracerName, "securitytype.get",
		attribute.String("security_type.id", typeID.String()))
	defer func() { tracing.End(span, err) }()

	t, err := s.store.FindByID(ctx, typeID)
	if err != nil {
		return nil, translate(err, "failed to load security type")
	}
	return t, nil
}

// Create stores a new security type at version 1.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (_ *models.SecurityType, err error) {
	ctx, span := tracing.Start(ctx, tracerName, "securitytype.create")
	defer func() { tracing.End(span, err) }()

	t, err := models.NewSecurityType(id.NewSecurityTypeID(), cmd.Abbreviation, cmd.Description)
	if err != nil {
		return nil, invariantToUnprocessable(err)
	}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, translate(err, "failed to create security type")
	}

	s.logger.InfoContext(ctx, "security type created",
		"request_id", requestcontext.RequestID(ctx),
		"security_type_id", t.ID.String(),
		"abbreviation", t.Abbreviation,
	)
	s.emit(ctx, audit.ActionSecurityTypeCreated, t.ID, t.Version)
	s.incrementMutation("create")
	return t, nil
}

// Update overwrites the fields of a security type if cmd.Version is current.
func (s *Service) Update(ctx context.Context, typeID id.SecurityTypeID, cmd UpdateCommand) (_ *models.SecurityType, err error) {
	ctx, span := tracing.Start(ctx, tracerName, "securitytype.update",
		attribute.String("security_type.id", typeID.String()),
		attribute.Int("expected_version", cmd.Version))
	defer func() { tracing.End(span, err) }()

	// Versions are checked only by the conditional write, never against a cached read.
	next, err := (&models.SecurityType{ID: typeID, Version: cmd.Version}).WithChanges(cmd.Abbreviation, cmd.Description)
	if err != nil {
		return nil, invariantToUnprocessable(err)
	}
	updated, err := s.store.UpdateIfVersion(ctx, next, cmd.Version)
	if err != nil {
		if errors.Is(err, sentinel.ErrVersionMismatch) {
			s.incrementVersionConflict()
		}
		return nil, translate(err, "failed to update security type")
	}

	s.logger.InfoContext(ctx, "security type updated",
		"request_id", requestcontext.RequestID(ctx),
		"security_type_id", updated.ID.String(),
		"version", updated.Version,
	)
	s.emit(ctx, audit.ActionSecurityTypeUpdated, updated.ID, updated.Version)
	s.incrementMutation("update")
	return updated, nil
}

// Delete removes a security type if expectedVersion is current and no
// security references it. The store enforces both conditions in one step and
// reports a live reference as sentinel.ErrStillReferenced.
func (s *Service) Delete(ctx context.Context, typeID id.SecurityTypeID, expectedVersion int) (err error) {
	ctx, span := tracing.Start(ctx, tracerName, "securitytype.delete",
		attribute.String("security_type.id", typeID.String()),
		attribute.Int("expected_version", expectedVersion))
	defer func() { tracing.End(span, err) }()

	if err := s.store.DeleteIfVersion(ctx, typeID, expectedVersion); err != nil {
		if errors.Is(err, sentinel.ErrVersionMismatch) {
			s.incrementVersionConflict()
		}
		return translate(err, "failed to delete security type")
	}

	s.logger.InfoContext(ctx, "security type deleted",
		"request_id", requestcontext.RequestID(ctx),
		"security_type_id", typeID.String(),
	)
	s.emit(ctx, audit.ActionSecurityTypeDeleted, typeID, expectedVersion)
	s.incrementMutation("delete")
	return nil
}

// translate maps store sentinels onto domain codes.
func translate(err error, internalMsg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, msgNotFound)
	case errors.Is(err, sentinel.ErrVersionMismatch):
		return dErrors.New(dErrors.CodeVersionConflict, msgVersionConflict)
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeConflict, msgDuplicate)
	case errors.Is(err, sentinel.ErrStillReferenced):
		return dErrors.New(dErrors.CodeConflict, msgStillReferenced)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, internalMsg)
	}
}

func invariantToUnprocessable(err error) error {
	if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
		return dErrors.New(dErrors.CodeUnprocessable, dErrors.MessageOf(err))
	}
	return err
}

func (s *Service) emit(ctx context.Context, action audit.Action, typeID id.SecurityTypeID, version int) {
	if s.auditPublisher == nil {
		return
	}
	s.auditPublisher.Emit(ctx, audit.Event{
		Action:     action,
		EntityType: audit.EntitySecurityType,
		EntityID:   typeID.String(),
		Version:    version,
	})
}

func (s *Service) incrementMutation(op string) {
	if s.metrics != nil {
		s.metrics.IncrementMutation(op)
	}
}

func (s *Service) incrementVersionConflict() {
	if s.metrics != nil {
		s.metrics.IncrementVersionConflict()
	}
}
