package httptransport

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"securitysvc/internal/audit"
	auditmemory "securitysvc/internal/audit/store/memory"
	"securitysvc/internal/platform/metrics"
	"securitysvc/internal/platform/middleware"
	"securitysvc/internal/security"
	securityhandler "securitysvc/internal/security/handler"
	securityservice "securitysvc/internal/security/service"
	securitystore "securitysvc/internal/security/store"
	"securitysvc/internal/securitytype"
	securitytypehandler "securitysvc/internal/securitytype/handler"
	securitytypeservice "securitysvc/internal/securitytype/service"
	securitytypestore "securitysvc/internal/securitytype/store"
	"securitysvc/pkg/platform/middleware/version"
	"securitysvc/pkg/testutil"
)

type RouterSuite struct {
	suite.Suite
	router    http.Handler
	publisher *audit.Publisher
	events    *auditmemory.InMemoryStore
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := metrics.NewRegistry()
	s.publisher = audit.NewPublisher(16, audit.WithLogger(logger))
	s.events = auditmemory.NewInMemoryStore()

	types := securitytypestore.NewInMemory()
	securities := securitystore.NewInMemory()
	securitystore.LinkInMemory(securities, types)
	typeService := securitytype.NewService(types,
		securitytypeservice.WithLogger(logger),
		securitytypeservice.WithAuditPublisher(s.publisher),
	)
	securityService := security.NewService(securities, types,
		securityservice.WithLogger(logger),
		securityservice.WithAuditPublisher(s.publisher),
	)
	s.router = NewRouter(Handlers{
		SecurityTypes: securitytype.NewHandler(typeService, logger),
		Securities:    security.NewHandler(securityService, logger),
	}, reg, logger)
}

func (s *RouterSuite) do(method, path string, body any) *http.Request {
	return testutil.NewJSONRequest(s.T(), method, path, body)
}

func (s *RouterSuite) TestEndToEnd() {
	rr := testutil.DoRequest(s.router, s.do(http.MethodPost, "/api/v1/securityTypes",
		map[string]any{"abbreviation": "EQ", "description": "Equity"}))
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	s.Equal("v1", rr.Header().Get(version.HeaderAPIVersion))
	eq := testutil.DecodeResponse[securitytypehandler.SecurityTypeResponse](s.T(), rr)

	rr = testutil.DoRequest(s.router, s.do(http.MethodPost, "/api/v1/securities",
		map[string]any{"ticker": "AAPL", "description": "Apple", "securityTypeId": eq.SecurityTypeID}))
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	aapl := testutil.DecodeResponse[securityhandler.SecurityResponse](s.T(), rr)

	s.Run("referenced type cannot be deleted", func() {
		rr := testutil.DoRequest(s.router, s.do(http.MethodDelete, "/api/v1/securityType/"+eq.SecurityTypeID+"?version=1", nil))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
	})

	s.Run("v2 search embeds the type version", func() {
		rr := testutil.DoRequest(s.router, s.do(http.MethodGet, "/api/v2/securities?ticker=aapl", nil))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		s.Equal("v2", rr.Header().Get(version.HeaderAPIVersion))
		resp := testutil.DecodeResponse[securityhandler.SearchResponse](s.T(), rr)
		s.Require().Len(resp.Securities, 1)
		s.Equal(aapl.SecurityID, resp.Securities[0].SecurityID)
		s.Equal(1, resp.Securities[0].SecurityType.Version)
	})

	s.Run("type becomes deletable once unreferenced", func() {
		rr := testutil.DoRequest(s.router, s.do(http.MethodDelete, "/api/v1/security/"+aapl.SecurityID+"?version=1", nil))
		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
		rr = testutil.DoRequest(s.router, s.do(http.MethodDelete, "/api/v1/securityType/"+eq.SecurityTypeID+"?version=1", nil))
		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
	})

	s.Run("mutations emitted change events", func() {
		var actions []audit.Action
		for len(s.publisher.Inbox()) > 0 {
			event := <-s.publisher.Inbox()
			s.Equal("v1", event.APIVersion)
			actions = append(actions, event.Action)
		}
		s.Equal([]audit.Action{
			audit.ActionSecurityTypeCreated,
			audit.ActionSecurityCreated,
			audit.ActionSecurityDeleted,
			audit.ActionSecurityTypeDeleted,
		}, actions)
	})
}

func (s *RouterSuite) TestRequestIDEchoed() {
	req := s.do(http.MethodGet, "/api/v1/securityTypes", nil)
	req.Header.Set(middleware.HeaderRequestID, "req-42")
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	s.Equal("req-42", rr.Header().Get(middleware.HeaderRequestID))
}

func (s *RouterSuite) TestV2HasNoWriteRoutes() {
	rr := testutil.DoRequest(s.router, s.do(http.MethodPost, "/api/v2/securities", map[string]any{}))
	testutil.AssertStatus(s.T(), rr, http.StatusMethodNotAllowed)

	rr = testutil.DoRequest(s.router, s.do(http.MethodGet, "/api/v3/securities", nil))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
}

func (s *RouterSuite) TestMetricsEndpoint() {
	testutil.DoRequest(s.router, s.do(http.MethodGet, "/api/v1/securities", nil))

	rr := testutil.DoRequest(s.router, s.do(http.MethodGet, "/metrics", nil))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	body := rr.Body.String()
	s.True(strings.Contains(body, "security_service_http_request_duration_seconds"), body)
	s.Contains(body, `route="/api/v1/securities"`)
}
