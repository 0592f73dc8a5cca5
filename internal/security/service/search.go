package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"securitysvc/internal/platform/tracing"
	"securitysvc/internal/security/models"
	dErrors "securitysvc/pkg/domain-errors"
)

// Search returns one page of securities matching q.Filter, ordered by ticker,
// together with pagination metadata. The count and the page are read
// concurrently and are not isolated from writes landing in between.
func (s *Service) Search(ctx context.Context, q models.SearchQuery) (_ *models.SearchResult, err error) {
	ctx, span := tracing.Start(ctx, tracerName, "security.search",
		attribute.String("filter.mode", q.Filter.String()),
		attribute.Int("limit", q.Limit),
		attribute.Int("offset", q.Offset))
	defer func() { tracing.End(span, err) }()

	if err := q.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	var (
		total int
		page  []*models.Security
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.store.Count(gctx, q.Filter)
		if err != nil {
			return err
		}
		total = n
		return nil
	})
	g.Go(func() error {
		secs, err := s.store.Search(gctx, q.Filter, q.Limit, q.Offset)
		if err != nil {
			return err
		}
		page = secs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search securities")
	}

	details, err := s.resolveAll(ctx, page)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObserveSearch(q.Filter.String(), time.Since(start))
	}
	return &models.SearchResult{
		Securities: details,
		Pagination: models.NewPagination(total, q.Limit, q.Offset),
	}, nil
}
