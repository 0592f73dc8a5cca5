package service

import (
	"context"
	"errors"

	"securitysvc/internal/security/models"
	stmodels "securitysvc/internal/securitytype/models"
	id "securitysvc/pkg/domain"
	dErrors "securitysvc/pkg/domain-errors"
	"securitysvc/pkg/platform/sentinel"
)

// resolveOne loads the security type a write or single read refers to.
func (s *Service) resolveOne(ctx context.Context, typeID id.SecurityTypeID) (*stmodels.SecurityType, error) {
	t, err := s.types.FindByID(ctx, typeID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.incrementInvalidReference()
			return nil, dErrors.New(dErrors.CodeInvalidReference, msgInvalidReference)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load security type")
	}
	return t, nil
}

// resolveAll attaches types to secs with one batched lookup over the distinct
// type ids. A single dangling reference fails the whole read.
func (s *Service) resolveAll(ctx context.Context, secs []*models.Security) ([]*models.SecurityDetails, error) {
	out := make([]*models.SecurityDetails, 0, len(secs))
	if len(secs) == 0 {
		return out, nil
	}

	seen := make(map[id.SecurityTypeID]struct{}, len(secs))
	ids := make([]id.SecurityTypeID, 0, len(secs))
	for _, sec := range secs {
		if _, ok := seen[sec.SecurityTypeID]; ok {
			continue
		}
		seen[sec.SecurityTypeID] = struct{}{}
		ids = append(ids, sec.SecurityTypeID)
	}

	types, err := s.types.FindByIDs(ctx, ids)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load security types")
	}
	for _, sec := range secs {
		t, ok := types[sec.SecurityTypeID]
		if !ok {
			s.incrementInvalidReference()
			s.logger.WarnContext(ctx, "security references missing security type",
				"security_id", sec.ID.String(),
				"security_type_id", sec.SecurityTypeID.String(),
			)
			return nil, dErrors.New(dErrors.CodeInvalidReference, msgInvalidReference)
		}
		out = append(out, &models.SecurityDetails{Security: sec, Type: t})
	}
	return out, nil
}
