package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/vadymuxd/searching-the-fox-sub001/internal/journal"
	"github.com/vadymuxd/searching-the-fox-sub001/internal/run"
	"github.com/vadymuxd/searching-the-fox-sub001/internal/scrapeclient"
	"github.com/vadymuxd/searching-the-fox-sub001/internal/userjob"
	"github.com/vadymuxd/searching-the-fox-sub001/shared/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeScheduler struct {
	run         *run.SearchRun
	delivery    scrapeclient.DeliveryResult
	scheduleErr error

	batch    run.BatchResult
	batchErr error

	lastOverride int
	lastSource   string
	lastParams   run.Parameters
}

func (f *fakeScheduler) ScheduleForUser(_ context.Context, _ string, params run.Parameters, source string) (*run.SearchRun, scrapeclient.DeliveryResult, error) {
	f.lastParams = params
	f.lastSource = source
	if f.scheduleErr != nil {
		return nil, scrapeclient.DeliveryResult{}, f.scheduleErr
	}
	return f.run, f.delivery, nil
}

func (f *fakeScheduler) ScheduleAllFromLastSuccess(_ context.Context, overrideHours int) (run.BatchResult, error) {
	f.lastOverride = overrideHours
	return f.batch, f.batchErr
}

type fakeMonitor struct {
	active *run.SearchRun
}

func (f *fakeMonitor) ActiveRun(_ context.Context, _ string) *run.SearchRun {
	return f.active
}

type fakeEngine struct {
	result userjob.BulkResult
	err    error

	lastCallerID string
	lastUserID   string
	lastIDs      []string
	lastOp       userjob.BulkOperation
}

func (f *fakeEngine) BulkApply(_ context.Context, callerID, userID string, userJobIDs []string, op userjob.BulkOperation) (userjob.BulkResult, error) {
	f.lastCallerID = callerID
	f.lastUserID = userID
	f.lastIDs = userJobIDs
	f.lastOp = op
	return f.result, f.err
}

type fakeIngestor struct {
	summary run.IngestSummary
	err     error

	lastResults run.ScrapeResults
}

func (f *fakeIngestor) Ingest(_ context.Context, results run.ScrapeResults) (run.IngestSummary, error) {
	f.lastResults = results
	if f.err != nil {
		return run.IngestSummary{}, f.err
	}
	return f.summary, nil
}

type fakeLister struct {
	jobs       []userjob.ListedJob
	err        error
	lastFilter userjob.Filter
}

func (f *fakeLister) ListByUser(_ context.Context, filter userjob.Filter) ([]userjob.ListedJob, error) {
	f.lastFilter = filter
	return f.jobs, f.err
}

type fakeResumer struct {
	resumed bool
	err     error
}

func (f *fakeResumer) ResumeOnce(_ context.Context, _, _ string) (bool, error) {
	return f.resumed, f.err
}

type testDeps struct {
	scheduler *fakeScheduler
	monitor   *fakeMonitor
	engine    *fakeEngine
	ingestor  *fakeIngestor
	lister    *fakeLister
	journal   *journal.MemoryStore
	resumer   *fakeResumer
}

func newTestDeps() (*Dependencies, *testDeps) {
	fakes := &testDeps{
		scheduler: &fakeScheduler{},
		monitor:   &fakeMonitor{},
		engine:    &fakeEngine{},
		ingestor:  &fakeIngestor{},
		lister:    &fakeLister{},
		journal:   journal.NewMemoryStore(journal.StaleAfter),
		resumer:   &fakeResumer{},
	}
	deps := &Dependencies{
		Logger:    logger.NewDefault().Logger,
		Scheduler: fakes.scheduler,
		Monitor:   fakes.monitor,
		Engine:    fakes.engine,
		Ingestor:  fakes.ingestor,
		Jobs:      fakes.lister,
		Journal:   fakes.journal,
		Resumer:   fakes.resumer,
	}
	return deps, fakes
}

// identity injects the values the router middleware would set from headers
func identity(userID, sessionID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != "" {
			c.Set(ContextUserID, userID)
		}
		if sessionID != "" {
			c.Set(ContextSessionID, sessionID)
		}
		c.Next()
	}
}

func performJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func performRaw(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
