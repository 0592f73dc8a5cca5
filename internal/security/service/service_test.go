package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"securitysvc/internal/audit"
	platformmetrics "securitysvc/internal/platform/metrics"
	secmetrics "securitysvc/internal/security/metrics"
	"securitysvc/internal/security/models"
	"securitysvc/internal/security/store"
	stmodels "securitysvc/internal/securitytype/models"
	ststore "securitysvc/internal/securitytype/store"
	id "securitysvc/pkg/domain"
	dErrors "securitysvc/pkg/domain-errors"
)

type recordingPublisher struct {
	events []audit.Event
}

func (p *recordingPublisher) Emit(_ context.Context, event audit.Event) {
	p.events = append(p.events, event)
}

// failingStore fails every count so search error paths can be exercised.
type failingStore struct {
	*store.InMemoryStore
	err error
}

func (s *failingStore) Count(context.Context, models.TickerFilter) (int, error) {
	return 0, s.err
}

type ServiceSuite struct {
	suite.Suite
	ctx       context.Context
	store     *store.InMemoryStore
	types     *ststore.InMemoryStore
	publisher *recordingPublisher
	metrics   *secmetrics.Metrics
	service   *Service
	equity    *stmodels.SecurityType
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewInMemory()
	s.types = ststore.NewInMemory()
	s.publisher = &recordingPublisher{}
	s.metrics = secmetrics.New(platformmetrics.NewRegistry())
	s.service = New(s.store, s.types,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(s.publisher),
		WithMetrics(s.metrics),
	)
	s.equity = s.createType("EQ", "Equity")
}

func (s *ServiceSuite) createType(abbreviation, description string) *stmodels.SecurityType {
	t, err := stmodels.NewSecurityType(id.NewSecurityTypeID(), abbreviation, description)
	s.Require().NoError(err)
	s.Require().NoError(s.types.Create(s.ctx, t))
	return t
}

func (s *ServiceSuite) create(ticker string) *models.SecurityDetails {
	d, err := s.service.Create(s.ctx, CreateCommand{Ticker: ticker, Description: ticker + " Inc.", SecurityTypeID: s.equity.ID})
	s.Require().NoError(err)
	return d
}

func (s *ServiceSuite) tickers(details []*models.SecurityDetails) []string {
	out := make([]string, 0, len(details))
	for _, d := range details {
		out = append(out, d.Security.Ticker)
	}
	return out
}

func (s *ServiceSuite) TestCreate() {
	s.Run("resolves the type and starts at version 1", func() {
		d := s.create("AAPL")
		s.Equal(1, d.Security.Version)
		s.Equal(s.equity, d.Type)
		s.Require().Len(s.publisher.events, 1)
		s.Equal(audit.ActionSecurityCreated, s.publisher.events[0].Action)
		s.Equal(audit.EntitySecurity, s.publisher.events[0].EntityType)
	})

	s.Run("unknown type is an invalid reference and writes nothing", func() {
		_, err := s.service.Create(s.ctx, CreateCommand{Ticker: "MSFT", Description: "Microsoft", SecurityTypeID: id.NewSecurityTypeID()})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidReference))
		s.Equal("Invalid securityTypeId", dErrors.MessageOf(err))
		n, err := s.store.Count(s.ctx, models.ExactTicker("MSFT"))
		s.Require().NoError(err)
		s.Zero(n)
	})

	s.Run("duplicate ticker is a conflict", func() {
		_, err := s.service.Create(s.ctx, CreateCommand{Ticker: "AAPL", Description: "again", SecurityTypeID: s.equity.ID})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *ServiceSuite) TestGet() {
	d := s.create("AAPL")

	got, err := s.service.Get(s.ctx, d.Security.ID)
	s.Require().NoError(err)
	s.Equal(d.Security, got.Security)
	s.Equal("EQ", got.Type.Abbreviation)

	_, err = s.service.Get(s.ctx, id.NewSecurityID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.Equal("Security not found", dErrors.MessageOf(err))
}

func (s *ServiceSuite) TestReadsSeeLiveTypeSnapshot() {
	d := s.create("AAPL")
	_, err := s.types.UpdateIfVersion(s.ctx, &stmodels.SecurityType{ID: s.equity.ID, Abbreviation: "EQT", Description: "Equities"}, 1)
	s.Require().NoError(err)

	got, err := s.service.Get(s.ctx, d.Security.ID)
	s.Require().NoError(err)
	s.Equal("EQT", got.Type.Abbreviation)
	s.Equal(2, got.Type.Version)
}

func (s *ServiceSuite) TestDanglingReferenceFailsReads() {
	d := s.create("AAPL")
	s.create("MSFT")
	s.Require().NoError(s.types.DeleteIfVersion(s.ctx, s.equity.ID, 1))

	_, err := s.service.Get(s.ctx, d.Security.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidReference))

	_, err = s.service.ListAll(s.ctx)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidReference))

	_, err = s.service.Search(s.ctx, models.SearchQuery{Filter: models.AllTickers(), Limit: 10})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidReference))
	s.Equal(3.0, testutil.ToFloat64(s.metrics.InvalidRefs))
}

func (s *ServiceSuite) TestListAllBatchesTypes() {
	bond := s.createType("BD", "Bond")
	s.create("AAPL")
	_, err := s.service.Create(s.ctx, CreateCommand{Ticker: "UST10", Description: "Treasury", SecurityTypeID: bond.ID})
	s.Require().NoError(err)

	all, err := s.service.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal("EQ", all[0].Type.Abbreviation)
	s.Equal("BD", all[1].Type.Abbreviation)

	empty := New(store.NewInMemory(), s.types)
	none, err := empty.ListAll(s.ctx)
	s.Require().NoError(err)
	s.NotNil(none)
	s.Empty(none)
}

func (s *ServiceSuite) TestUpdate() {
	d := s.create("AAPL")
	bond := s.createType("BD", "Bond")
	securityID := d.Security.ID

	s.Run("current version applies and increments", func() {
		updated, err := s.service.Update(s.ctx, securityID, UpdateCommand{Ticker: "AAPL", Description: "Apple", SecurityTypeID: bond.ID, Version: 1})
		s.Require().NoError(err)
		s.Equal(2, updated.Security.Version)
		s.Equal(bond.ID, updated.Type.ID)
	})

	s.Run("stale version is a conflict and changes nothing", func() {
		_, err := s.service.Update(s.ctx, securityID, UpdateCommand{Ticker: "X", Description: "stale", SecurityTypeID: bond.ID, Version: 1})
		s.True(dErrors.HasCode(err, dErrors.CodeVersionConflict))
		got, err := s.service.Get(s.ctx, securityID)
		s.Require().NoError(err)
		s.Equal("AAPL", got.Security.Ticker)
		s.Equal(2, got.Security.Version)
	})

	s.Run("version conflict is reported before an invalid reference", func() {
		_, err := s.service.Update(s.ctx, securityID, UpdateCommand{Ticker: "X", Description: "x", SecurityTypeID: id.NewSecurityTypeID(), Version: 7})
		s.True(dErrors.HasCode(err, dErrors.CodeVersionConflict))
	})

	s.Run("unknown type with current version is an invalid reference", func() {
		_, err := s.service.Update(s.ctx, securityID, UpdateCommand{Ticker: "X", Description: "x", SecurityTypeID: id.NewSecurityTypeID(), Version: 2})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidReference))
	})

	s.Run("unknown security is not found before anything else", func() {
		_, err := s.service.Update(s.ctx, id.NewSecurityID(), UpdateCommand{Ticker: "X", Description: "x", SecurityTypeID: id.NewSecurityTypeID(), Version: 9})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Equal(2.0, testutil.ToFloat64(s.metrics.VersionConflicts))
}

func (s *ServiceSuite) TestDelete() {
	d := s.create("AAPL")

	err := s.service.Delete(s.ctx, d.Security.ID, 2)
	s.True(dErrors.HasCode(err, dErrors.CodeVersionConflict))

	s.Require().NoError(s.service.Delete(s.ctx, d.Security.ID, 1))
	s.Equal(audit.ActionSecurityDeleted, s.publisher.events[len(s.publisher.events)-1].Action)

	err = s.service.Delete(s.ctx, d.Security.ID, 1)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestSearchPartialMatch() {
	for _, ticker := range []string{"AAPL", "AAPL.PF", "AMZN", "APP.TO", "APPN"} {
		s.create(ticker)
	}

	result, err := s.service.Search(s.ctx, models.SearchQuery{Filter: models.TickerContains("APP"), Limit: 50})
	s.Require().NoError(err)
	s.Equal([]string{"APP.TO", "APPN"}, s.tickers(result.Securities))
	s.Equal(2, result.Pagination.TotalElements)
	s.Equal(1, result.Pagination.TotalPages)

	result, err = s.service.Search(s.ctx, models.SearchQuery{Filter: models.ExactTicker("aapl.pf"), Limit: 50})
	s.Require().NoError(err)
	s.Equal([]string{"AAPL.PF"}, s.tickers(result.Securities))
	s.Equal("EQ", result.Securities[0].Type.Abbreviation)
}

func (s *ServiceSuite) TestSearchWalksPagesWithoutGapsOrDuplicates() {
	var want []string
	for i := 7; i >= 0; i-- {
		ticker := fmt.Sprintf("T%02d", i)
		s.create(ticker)
		want = append([]string{ticker}, want...)
	}

	var got []string
	pages := 0
	for offset := 0; ; offset += 3 {
		result, err := s.service.Search(s.ctx, models.SearchQuery{Filter: models.AllTickers(), Limit: 3, Offset: offset})
		s.Require().NoError(err)
		s.Equal(8, result.Pagination.TotalElements)
		s.Equal(3, result.Pagination.TotalPages)
		s.Equal(pages, result.Pagination.CurrentPage)
		s.Equal(offset > 0, result.Pagination.HasPrevious)
		got = append(got, s.tickers(result.Securities)...)
		pages++
		if !result.Pagination.HasNext {
			break
		}
	}
	s.Equal(3, pages)
	s.Equal(want, got)
}

func (s *ServiceSuite) TestSearchOffsetBeyondTotal() {
	for _, ticker := range []string{"A", "B", "C", "D", "E"} {
		s.create(ticker)
	}
	result, err := s.service.Search(s.ctx, models.SearchQuery{Filter: models.AllTickers(), Limit: 50, Offset: 100})
	s.Require().NoError(err)
	s.Empty(result.Securities)
	s.Equal(models.Pagination{TotalElements: 5, TotalPages: 1, CurrentPage: 2, PageSize: 50, HasPrevious: true}, result.Pagination)
}

func (s *ServiceSuite) TestSearchOffsetNearMaxInt() {
	s.create("A")
	result, err := s.service.Search(s.ctx, models.SearchQuery{Filter: models.AllTickers(), Limit: 50, Offset: math.MaxInt - 10})
	s.Require().NoError(err)
	s.Empty(result.Securities)
	s.False(result.Pagination.HasNext)
	s.True(result.Pagination.HasPrevious)
}

func (s *ServiceSuite) TestSearchEmptyStore() {
	result, err := s.service.Search(s.ctx, models.SearchQuery{Filter: models.AllTickers(), Limit: 50})
	s.Require().NoError(err)
	s.NotNil(result.Securities)
	s.Empty(result.Securities)
	s.Equal(models.Pagination{PageSize: 50}, result.Pagination)
}

func (s *ServiceSuite) TestSearchRejectsBadWindow() {
	_, err := s.service.Search(s.ctx, models.SearchQuery{Filter: models.AllTickers(), Limit: 0})
	s.True(dErrors.HasCode(err, dErrors.CodeUnprocessable))

	_, err = s.service.Search(s.ctx, models.SearchQuery{Filter: models.AllTickers(), Limit: 10, Offset: -1})
	s.True(dErrors.HasCode(err, dErrors.CodeUnprocessable))
}

func (s *ServiceSuite) TestSearchStoreFailureIsInternal() {
	svc := New(&failingStore{InMemoryStore: s.store, err: errors.New("connection reset")}, s.types)
	_, err := svc.Search(s.ctx, models.SearchQuery{Filter: models.AllTickers(), Limit: 10})
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}
