package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"domainacq/internal/metrics"
	"domainacq/internal/models"
	"domainacq/internal/registrar"
	"domainacq/internal/registrar/mocks"
	"domainacq/internal/store"
)

type BatchSuite struct {
	suite.Suite
	ctx     context.Context
	reg     *mocks.MockRegistrar
	store   *store.MemoryStore
	metrics *metrics.Metrics
	acq     *AcquisitionService
	batch   *BatchService
}

func TestBatchSuite(t *testing.T) {
	suite.Run(t, new(BatchSuite))
}

func (s *BatchSuite) SetupTest() {
	s.ctx = context.Background()
	s.reg = mocks.NewMockRegistrar(gomock.NewController(s.T()))
	s.store = store.NewMemoryStore()
	s.metrics = metrics.New(prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	picker, err := NewPrefixPicker(testVocabulary, nil)
	s.Require().NoError(err)
	s.acq = NewAcquisitionService(s.store, s.reg, picker, AcquisitionConfig{},
		WithLogger(logger), WithMetrics(s.metrics))
	s.batch = NewBatchService(s.acq, s.store, s.reg, "info", WithLogger(logger), WithMetrics(s.metrics))
	s.T().Cleanup(s.batch.Shutdown)
}

func (s *BatchSuite) seed(domain string, status models.Status) *models.ImportedDomain {
	rec := &models.ImportedDomain{OriginalDomain: domain, Status: status}
	s.Require().NoError(s.store.Create(s.ctx, rec))
	return rec
}

func (s *BatchSuite) TestSearchPending_SequentialAndIsolated() {
	s.seed("aaaa.de", models.StatusPending)
	s.seed("bbbb.de", models.StatusPending)
	s.seed("cccc.de", models.StatusFound)
	s.seed("dd.de", models.StatusPending)

	inFlight := 0
	s.reg.EXPECT().SearchDomain(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, domain string) (registrar.SearchResult, error) {
			inFlight++
			defer func() { inFlight-- }()
			s.Equal(1, inFlight)
			s.NotEmpty(s.acq.Guard().Current())
			switch domain {
			case "aaa-a.de":
				return registrar.SearchResult{Domain: domain, Available: true}, nil
			}
			return registrar.SearchResult{Domain: domain}, nil
		}).AnyTimes()

	summary, err := s.batch.SearchPending(s.ctx)
	s.Require().NoError(err)
	s.Equal(BatchSummary{Total: 3, Found: 1, NoVariant: 2}, summary)

	found, err := s.store.ListByStatus(s.ctx, models.StatusFound)
	s.Require().NoError(err)
	s.Len(found, 2)
	pending, err := s.store.ListByStatus(s.ctx, models.StatusPending)
	s.Require().NoError(err)
	s.Empty(pending)
	s.Equal("", s.acq.Guard().Current())
}

func (s *BatchSuite) TestSearchPending_NeverApproves() {
	s.seed("aaaa.de", models.StatusPending)
	s.reg.EXPECT().SearchDomain(gomock.Any(), gomock.Any()).
		Return(registrar.SearchResult{Available: true}, nil)

	summary, err := s.batch.SearchPending(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, summary.Found)
}

func (s *BatchSuite) TestSearchPending_CountsFailures() {
	first := s.seed("aaaa.de", models.StatusPending)
	second := s.seed("bbbb.de", models.StatusPending)

	// The first record searched deletes the other one, whose search then fails
	// on its own without stopping the batch.
	deleted := false
	s.reg.EXPECT().SearchDomain(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, string) (registrar.SearchResult, error) {
			if !deleted {
				deleted = true
				current := s.acq.Guard().Current()
				other := first.ID
				if current == first.ID {
					other = second.ID
				}
				s.Require().NoError(s.store.Delete(s.ctx, other))
			}
			return registrar.SearchResult{}, nil
		}).AnyTimes()

	summary, err := s.batch.SearchPending(s.ctx)
	s.Require().NoError(err)
	s.Equal(BatchSummary{Total: 2, NoVariant: 1, Failed: 1}, summary)
}

func (s *BatchSuite) TestSearchPending_StopsOnCancellation() {
	s.seed("aaaa.de", models.StatusPending)
	s.seed("bbbb.de", models.StatusPending)
	ctx, cancel := context.WithCancel(s.ctx)
	s.reg.EXPECT().SearchDomain(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string) (registrar.SearchResult, error) {
			cancel()
			return registrar.SearchResult{}, ctx.Err()
		})

	_, err := s.batch.SearchPending(ctx)
	s.ErrorIs(err, context.Canceled)

	pending, err := s.store.ListByStatus(s.ctx, models.StatusPending)
	s.Require().NoError(err)
	s.Len(pending, 2)
	s.False(s.batch.Run().Running)
}

func (s *BatchSuite) TestStartSearch() {
	s.seed("aaaa.de", models.StatusPending)
	unblock := make(chan struct{})
	s.reg.EXPECT().SearchDomain(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, string) (registrar.SearchResult, error) {
			<-unblock
			return registrar.SearchResult{}, nil
		}).AnyTimes()

	s.Require().NoError(s.batch.StartSearch())
	s.True(s.batch.Run().Running)
	s.ErrorIs(s.batch.StartSearch(), ErrBusy)
	_, err := s.batch.SearchPending(s.ctx)
	s.ErrorIs(err, ErrBusy)

	close(unblock)
	s.Eventually(func() bool { return !s.batch.Run().Running }, 2*time.Second, 10*time.Millisecond)
	run := s.batch.Run()
	s.Require().NotNil(run.Summary)
	s.Equal(BatchSummary{Total: 1, NoVariant: 1}, *run.Summary)
	s.NotNil(run.FinishedAt)
	s.Empty(run.Error)
}

func (s *BatchSuite) TestForwardAll() {
	s.reg.EXPECT().ListDomains(gomock.Any()).Return([]registrar.DomainInfo{
		{Domain: "a-bcd.de"}, {Domain: "das-efgh.de"}, {Domain: "ijk-l.de"},
	}, nil)
	s.reg.EXPECT().SetEmailForward(gomock.Any(), "a-bcd.de", []registrar.EmailForward{{Username: "info", ForwardTo: "office@example.org"}}).
		Return(registrar.Result{Success: true, Message: "ok"}, nil)
	s.reg.EXPECT().SetEmailForward(gomock.Any(), "das-efgh.de", gomock.Any()).
		Return(registrar.Result{}, errors.New("connection reset"))
	s.reg.EXPECT().SetEmailForward(gomock.Any(), "ijk-l.de", gomock.Any()).
		Return(registrar.Result{Success: true}, nil)

	res, err := s.batch.ForwardAll(s.ctx, "office@example.org")
	s.Require().NoError(err)
	s.True(res.Success)
	s.Equal("Email forwarding set for 2/3 domains", res.Message)
	s.Require().Len(res.Results, 3)
	s.False(res.Results[1].Success)
	s.Equal("connection reset", res.Results[1].Message)
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.BulkForwards.WithLabelValues("failed")))
}

func (s *BatchSuite) TestForwardAll_AllFail() {
	s.reg.EXPECT().ListDomains(gomock.Any()).Return([]registrar.DomainInfo{{Domain: "a-bcd.de"}}, nil)
	s.reg.EXPECT().SetEmailForward(gomock.Any(), "a-bcd.de", gomock.Any()).
		Return(registrar.Result{Success: false, Message: "invalid email"}, nil)

	res, err := s.batch.ForwardAll(s.ctx, "office@example.org")
	s.Require().NoError(err)
	s.False(res.Success)
	s.Equal("Email forwarding set for 0/1 domains", res.Message)
}

func (s *BatchSuite) TestForwardAll_Validation() {
	var vErr *ValidationError
	_, err := s.batch.ForwardAll(s.ctx, "")
	s.ErrorAs(err, &vErr)

	s.reg.EXPECT().ListDomains(gomock.Any()).Return(nil, nil)
	_, err = s.batch.ForwardAll(s.ctx, "office@example.org")
	s.Require().ErrorAs(err, &vErr)
	s.Equal("No domains found in account", vErr.Error())
}
