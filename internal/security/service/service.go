package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"securitysvc/internal/audit"
	"securitysvc/internal/platform/tracing"
	secmetrics "securitysvc/internal/security/metrics"
	"securitysvc/internal/security/models"
	stmodels "securitysvc/internal/securitytype/models"
	id "securitysvc/pkg/domain"
	dErrors "securitysvc/pkg/domain-errors"
	"securitysvc/pkg/platform/sentinel"
	"securitysvc/pkg/requestcontext"
)

const tracerName = "securitysvc/security"

// Client-facing messages.
const (
	msgNotFound         = "Security not found"
	msgVersionConflict  = "Version conflict"
	msgInvalidReference = "Invalid securityTypeId"
	msgDuplicate        = "ticker is already in use"
)

// Store persists securities.
type Store interface {
	Create(ctx context.Context, sec *models.Security) error
	FindByID(ctx context.Context, securityID id.SecurityID) (*models.Security, error)
	ListAll(ctx context.Context) ([]*models.Security, error)
	Count(ctx context.Context, filter models.TickerFilter) (int, error)
	Search(ctx context.Context, filter models.TickerFilter, limit, offset int) ([]*models.Security, error)
	UpdateIfVersion(ctx context.Context, sec *models.Security, expectedVersion int) (*models.Security, error)
	DeleteIfVersion(ctx context.Context, securityID id.SecurityID, expectedVersion int) error
}

// TypeStore looks up the security types securities reference.
type TypeStore interface {
	FindByID(ctx context.Context, typeID id.SecurityTypeID) (*stmodels.SecurityType, error)
	FindByIDs(ctx context.Context, ids []id.SecurityTypeID) (map[id.SecurityTypeID]*stmodels.SecurityType, error)
}

// AuditPublisher receives change events after successful mutations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

// CreateCommand carries validated input for Create.
type CreateCommand struct {
	Ticker         string
	Description    string
	SecurityTypeID id.SecurityTypeID
}

// UpdateCommand carries validated input for Update. Version is the version the
// caller last read.
type UpdateCommand struct {
	Ticker         string
	Description    string
	SecurityTypeID id.SecurityTypeID
	Version        int
}

// Service orchestrates security reads, versioned writes and paginated search.
// Every security it returns carries its security type resolved at read time.
type Service struct {
	store          Store
	types          TypeStore
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *secmetrics.Metrics
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

func WithMetrics(m *secmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service.
func New(store Store, types TypeStore, opts ...Option) *Service {
	s := &Service{store: store, types: types, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListAll returns every security in insertion order with its type.
func (s *Service) ListAll(ctx context.Context) (_ []*models.SecurityDetails, err error) {
	ctx, span := tracing.Start(ctx, tracerName, "security.list")
	defer func() { tracing.End(span, err) }()

	secs, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list securities")
	}
	return s.resolveAll(ctx, secs)
}

// Get returns one security with its type.
func (s *Service) Get(ctx context.Context, securityID id.SecurityID) (_ *models.SecurityDetails, err error) {
	ctx, span := tracing.Start(ctx, tracerName, "security.get",
		attribute.String("security.id", securityID.String()))
	defer func() { tracing.End(span, err) }()

	sec, err := s.store.FindByID(ctx, securityID)
	if err != nil {
		return nil, s.translate(err, "failed to load security")
	}
	t, err := s.resolveOne(ctx, sec.SecurityTypeID)
	if err != nil {
		return nil, err
	}
	return &models.SecurityDetails{Security: sec, Type: t}, nil
}

// Create stores a new security at version 1. The referenced type must exist;
// nothing is written otherwise.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (_ *models.SecurityDetails, err error) {
	ctx, span := tracing.Start(ctx, tracerName, "security.create",
		attribute.String("security_type.id", cmd.SecurityTypeID.String()))
	defer func() { tracing.End(span, err) }()

	t, err := s.resolveOne(ctx, cmd.SecurityTypeID)
	if err != nil {
		return nil, err
	}
	sec, err := models.NewSecurity(id.NewSecurityID(), cmd.Ticker, cmd.Description, cmd.SecurityTypeID)
	if err != nil {
		return nil, invariantToUnprocessable(err)
	}
	if err := s.store.Create(ctx, sec); err != nil {
		return nil, s.translate(err, "failed to create security")
	}

	s.logger.InfoContext(ctx, "security created",
		"request_id", requestcontext.RequestID(ctx),
		"security_id", sec.ID.String(),
		"ticker", sec.Ticker,
	)
	s.emit(ctx, audit.ActionSecurityCreated, sec.ID, sec.Version)
	s.incrementMutation("create")
	return &models.SecurityDetails{Security: sec, Type: t}, nil
}

// Update overwrites a security if cmd.Version is current and the new type
// exists. Failures are reported in that order: not found, version conflict,
// invalid reference.
func (s *Service) Update(ctx context.Context, securityID id.SecurityID, cmd UpdateCommand) (_ *models.SecurityDetails, err error) {
	ctx, span := tracing.Start(ctx, tracerName, "security.update",
		attribute.String("security.id", securityID.String()),
		attribute.Int("expected_version", cmd.Version))
	defer func() { tracing.End(span, err) }()

	current, err := s.store.FindByID(ctx, securityID)
	if err != nil {
		return nil, s.translate(err, "failed to load security")
	}
	if current.Version != cmd.Version {
		s.incrementVersionConflict()
		return nil, dErrors.New(dErrors.CodeVersionConflict, msgVersionConflict)
	}
	t, err := s.resolveOne(ctx, cmd.SecurityTypeID)
	if err != nil {
		return nil, err
	}

	next, err := current.WithChanges(cmd.Ticker, cmd.Description, cmd.SecurityTypeID)
	if err != nil {
		return nil, invariantToUnprocessable(err)
	}
	updated, err := s.store.UpdateIfVersion(ctx, next, cmd.Version)
	if err != nil {
		return nil, s.translate(err, "failed to update security")
	}

	s.logger.InfoContext(ctx, "security updated",
		"request_id", requestcontext.RequestID(ctx),
		"security_id", updated.ID.String(),
		"version", updated.Version,
	)
	s.emit(ctx, audit.ActionSecurityUpdated, updated.ID, updated.Version)
	s.incrementMutation("update")
	return &models.SecurityDetails{Security: updated, Type: t}, nil
}

// Delete removes a security if expectedVersion is current.
func (s *Service) Delete(ctx context.Context, securityID id.SecurityID, expectedVersion int) (err error) {
	ctx, span := tracing.Start(ctx, tracerName, "security.delete",
		attribute.String("security.id", securityID.String()),
		attribute.Int("expected_version", expectedVersion))
	defer func() { tracing.End(span, err) }()

	current, err := s.store.FindByID(ctx, securityID)
	if err != nil {
		return s.translate(err, "failed to load security")
	}
	if current.Version != expectedVersion {
		s.incrementVersionConflict()
		return dErrors.New(dErrors.CodeVersionConflict, msgVersionConflict)
	}
	if err := s.store.DeleteIfVersion(ctx, securityID, expectedVersion); err != nil {
		return s.translate(err, "failed to delete security")
	}

	s.logger.InfoContext(ctx, "security deleted",
		"request_id", requestcontext.RequestID(ctx),
		"security_id", securityID.String(),
	)
	s.emit(ctx, audit.ActionSecurityDeleted, securityID, expectedVersion)
	s.incrementMutation("delete")
	return nil
}

// translate maps store sentinels onto domain codes.
func (s *Service) translate(err error, internalMsg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, msgNotFound)
	case errors.Is(err, sentinel.ErrVersionMismatch):
		s.incrementVersionConflict()
		return dErrors.New(dErrors.CodeVersionConflict, msgVersionConflict)
	case errors.Is(err, sentinel.ErrInvalidReference):
		s.incrementInvalidReference()
		return dErrors.New(dErrors.CodeInvalidReference, msgInvalidReference)
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeConflict, msgDuplicate)
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

func (s *Service) emit(ctx context.Context, action audit.Action, securityID id.SecurityID, version int) {
	if s.auditPublisher == nil {
		return
	}
	s.auditPublisher.Emit(ctx, audit.Event{
		Action:     action,
		EntityType: audit.EntitySecurity,
		EntityID:   securityID.String(),
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

func (s *Service) incrementInvalidReference() {
	if s.metrics != nil {
		s.metrics.IncrementInvalidReference()
	}
}
