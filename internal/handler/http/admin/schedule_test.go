package admin

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hybridnews/internal/domain/entity"
	"hybridnews/internal/usecase/crawl"
	"hybridnews/internal/usecase/topic"

	"github.com/stretchr/testify/assert"
)

type emptyTopics struct{}

func (emptyTopics) Upsert(ctx context.Context, t *entity.Topic) error      { return nil }
func (emptyTopics) Get(ctx context.Context, url string) (*entity.Topic, error) { return nil, nil }
func (emptyTopics) ListActive(ctx context.Context, website string) ([]*entity.Topic, error) {
	return nil, nil
}
func (emptyTopics) TouchCrawledAt(ctx context.Context, url string, crawledAt time.Time) error {
	return nil
}

type emptyRegistry struct{ websites map[string]bool }

func (r emptyRegistry) Adapter(website string) (crawl.SiteAdapter, bool) {
	return nil, r.websites[website]
}
func (r emptyRegistry) Websites() []string {
	out := make([]string, 0, len(r.websites))
	for w := range r.websites {
		out = append(out, w)
	}
	return out
}

func newScheduler(websites ...string) *topic.Scheduler {
	known := make(map[string]bool, len(websites))
	for _, w := range websites {
		known[w] = true
	}
	return topic.NewScheduler(emptyTopics{}, nil, emptyRegistry{websites: known}, nil, 1)
}

func TestScheduleHandler_RejectsBelowFiveMinutes(t *testing.T) {
	h := ScheduleHandler{Scheduler: newScheduler()}
	req := httptest.NewRequest(http.MethodPost, "/admin/schedule", strings.NewReader(`{"interval_minutes":4}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScheduleHandler_AcceptsFiveMinutes(t *testing.T) {
	h := ScheduleHandler{Scheduler: newScheduler()}
	req := httptest.NewRequest(http.MethodPost, "/admin/schedule", strings.NewReader(`{"interval_minutes":5}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestScheduleHandler_RejectsMalformedBody(t *testing.T) {
	h := ScheduleHandler{Scheduler: newScheduler()}
	req := httptest.NewRequest(http.MethodPost, "/admin/schedule", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAutoCrawlHandler_RejectsUnknownWebsite(t *testing.T) {
	h := AutoCrawlHandler{Scheduler: newScheduler("vnexpress"), Logger: slog.Default()}
	req := httptest.NewRequest(http.MethodPost, "/admin/auto-crawl/unknown", nil)
	req.SetPathValue("website", "unknown")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAutoCrawlHandler_AcceptsKnownWebsite(t *testing.T) {
	h := AutoCrawlHandler{Scheduler: newScheduler("vnexpress"), Logger: slog.Default()}
	req := httptest.NewRequest(http.MethodPost, "/admin/auto-crawl/vnexpress", nil)
	req.SetPathValue("website", "vnexpress")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}
