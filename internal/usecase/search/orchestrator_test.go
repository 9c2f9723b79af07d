package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"hybridnews/internal/domain/entity"
	"hybridnews/internal/repository"
	"hybridnews/internal/usecase/fanout"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLexical struct {
	hits []*entity.Article
	err  error
}

func (s *stubLexical) Query(ctx context.Context, q LexicalQuery) ([]*entity.Article, error) {
	return s.hits, s.err
}

type fakeSessions struct {
	created []*entity.SearchSession
}

func (f *fakeSessions) Create(ctx context.Context, session *entity.SearchSession) error {
	f.created = append(f.created, session)
	return nil
}
func (f *fakeSessions) Get(ctx context.Context, searchID string) (*entity.SearchSession, error) {
	for _, s := range f.created {
		if s.SearchID == searchID {
			return s, nil
		}
	}
	return nil, nil
}
func (f *fakeSessions) SetStatus(ctx context.Context, searchID string, status entity.SearchSessionStatus, totalSaved int) error {
	return nil
}
func (f *fakeSessions) ListByUser(ctx context.Context, userID string) ([]*entity.SearchSession, error) {
	return nil, nil
}
func (f *fakeSessions) ListOverRetention(ctx context.Context, userID string, keepNewest int) ([]string, error) {
	return nil, nil
}
func (f *fakeSessions) Delete(ctx context.Context, searchID string) error          { return nil }
func (f *fakeSessions) MarkDataCleared(ctx context.Context, searchID string) error { return nil }

type fakeArticleRepo struct {
	addedSearchID []string
}

func (f *fakeArticleRepo) GetByURL(ctx context.Context, url string) (*entity.Article, error) {
	return nil, nil
}
func (f *fakeArticleRepo) GetByID(ctx context.Context, id string) (*entity.Article, error) { return nil, nil }
func (f *fakeArticleRepo) GetByIDs(ctx context.Context, ids []string) ([]*entity.Article, error) {
	return nil, nil
}
func (f *fakeArticleRepo) Upsert(ctx context.Context, a *entity.Article) error { return nil }
func (f *fakeArticleRepo) AddSearchID(ctx context.Context, articleIDs []string, searchID string) error {
	f.addedSearchID = articleIDs
	return nil
}
func (f *fakeArticleRepo) RemoveSearchID(ctx context.Context, searchID string) error { return nil }
func (f *fakeArticleRepo) ListEmptySearchIDArticles(ctx context.Context) ([]string, error) {
	return nil, nil
}
func (f *fakeArticleRepo) ClaimForEnrichment(ctx context.Context, limit int) ([]*entity.Article, error) {
	return nil, nil
}
func (f *fakeArticleRepo) MarkEnriched(ctx context.Context, a *entity.Article) error { return nil }
func (f *fakeArticleRepo) MarkAIError(ctx context.Context, articleID string) error   { return nil }
func (f *fakeArticleRepo) Search(ctx context.Context, filter repository.ArticleFilter, limit int) ([]*entity.Article, error) {
	return nil, nil
}
func (f *fakeArticleRepo) DeleteByArticleIDs(ctx context.Context, articleIDs []string) error {
	return nil
}
func (f *fakeArticleRepo) ExistsByURLBatch(ctx context.Context, urls []string) (map[string]bool, error) {
	return nil, nil
}
func (f *fakeArticleRepo) CountBySearchID(ctx context.Context, searchID string) (int64, error) {
	return 0, nil
}
func (f *fakeArticleRepo) ListBySearchIDPaginated(ctx context.Context, searchID string, offset, limit int) ([]*entity.Article, int64, error) {
	return nil, 0, nil
}

type noopLexicalFanout struct{}

func (noopLexicalFanout) EnsureAttributes(ctx context.Context) error { return nil }
func (noopLexicalFanout) UpsertArticles(ctx context.Context, articles []*entity.Article) error {
	return nil
}
func (noopLexicalFanout) AddSearchID(ctx context.Context, articleIDs []string, searchID string) error {
	return nil
}
func (noopLexicalFanout) DeleteByArticleIDs(ctx context.Context, articleIDs []string) error {
	return nil
}

type noopVectorFanout struct{}

func (noopVectorFanout) EnsureCollection(ctx context.Context) error { return nil }
func (noopVectorFanout) UpsertPoints(ctx context.Context, points []entity.VectorPoint, vectors map[string][]float32) error {
	return nil
}
func (noopVectorFanout) AddSearchID(ctx context.Context, articleIDs []string, searchID string) error {
	return nil
}
func (noopVectorFanout) DeleteByArticleIDs(ctx context.Context, articleIDs []string) error {
	return nil
}

type noopEmbedder struct{}

func (noopEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0}, nil
}

type recordingDispatcher struct {
	dispatched []CrawlRequest
}

func (d *recordingDispatcher) Dispatch(req CrawlRequest) {
	d.dispatched = append(d.dispatched, req)
}

func newDate(daysAgo int) *time.Time {
	t := time.Now().Add(-time.Duration(daysAgo) * 24 * time.Hour)
	return &t
}

func TestOrchestrate_WarmSearchNoCrawl(t *testing.T) {
	hits := make([]*entity.Article, 0, 10)
	for i := 0; i < 10; i++ {
		hits = append(hits, &entity.Article{
			ArticleID:   "a" + string(rune('0'+i)),
			URL:         "https://vnexpress.net/bai-" + string(rune('0'+i)),
			Title:       "lạm phát tăng cao",
			PublishDate: newDate(i),
		})
	}
	articleRepo := &fakeArticleRepo{}
	fan := fanout.NewService(articleRepo, noopLexicalFanout{}, noopVectorFanout{}, noopEmbedder{})
	sessions := &fakeSessions{}
	dispatcher := &recordingDispatcher{}
	orch := NewOrchestrator(&stubLexical{hits: hits}, sessions, fan, dispatcher, nil)

	result, err := orch.Orchestrate(context.Background(), Request{
		KeywordSearch: "lạm phát",
		MaxArticles:   5,
		UserID:        "u1",
	})

	require.NoError(t, err)
	assert.Equal(t, entity.SearchStatusCompleted, result.Status)
	assert.Equal(t, 5, result.TotalAvailableNow)
	assert.Empty(t, dispatcher.dispatched)
	require.Len(t, sessions.created, 1)
	assert.Equal(t, entity.SearchStatusCompleted, sessions.created[0].Status)
}

func TestOrchestrate_ColdSearchDispatchesGapFill(t *testing.T) {
	articleRepo := &fakeArticleRepo{}
	fan := fanout.NewService(articleRepo, noopLexicalFanout{}, noopVectorFanout{}, noopEmbedder{})
	sessions := &fakeSessions{}
	dispatcher := &recordingDispatcher{}
	orch := NewOrchestrator(&stubLexical{hits: nil}, sessions, fan, dispatcher, nil)

	result, err := orch.Orchestrate(context.Background(), Request{
		KeywordSearch: "lạm phát",
		MaxArticles:   5,
		UserID:        "u1",
	})

	require.NoError(t, err)
	assert.Equal(t, entity.SearchStatusProcessing, result.Status)
	assert.Equal(t, 0, result.TotalAvailableNow)
	require.Len(t, dispatcher.dispatched, 1)
	assert.Equal(t, 5, dispatcher.dispatched[0].MaxArticles)
	assert.Equal(t, result.SearchID, dispatcher.dispatched[0].SearchID)
}

func TestOrchestrate_TitleFilterExcludesNonMatching(t *testing.T) {
	hits := []*entity.Article{
		{ArticleID: "a1", URL: "https://vnexpress.net/1", Title: "lạm phát tăng cao", PublishDate: newDate(1)},
		{ArticleID: "a2", URL: "https://vnexpress.net/2", Title: "bóng đá hôm nay", PublishDate: newDate(1)},
	}
	articleRepo := &fakeArticleRepo{}
	fan := fanout.NewService(articleRepo, noopLexicalFanout{}, noopVectorFanout{}, noopEmbedder{})
	orch := NewOrchestrator(&stubLexical{hits: hits}, &fakeSessions{}, fan, &recordingDispatcher{}, nil)

	result, err := orch.Orchestrate(context.Background(), Request{
		KeywordSearch: "lạm phát",
		MaxArticles:   5,
		UserID:        "u1",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalAvailableNow)
}

func TestOrchestrate_DedupesByURL(t *testing.T) {
	hits := []*entity.Article{
		{ArticleID: "a1", URL: "https://vnexpress.net/1", Title: "x", PublishDate: newDate(1)},
		{ArticleID: "a1dup", URL: "https://vnexpress.net/1", Title: "x", PublishDate: newDate(2)},
	}
	articleRepo := &fakeArticleRepo{}
	fan := fanout.NewService(articleRepo, noopLexicalFanout{}, noopVectorFanout{}, noopEmbedder{})
	orch := NewOrchestrator(&stubLexical{hits: hits}, &fakeSessions{}, fan, &recordingDispatcher{}, nil)

	result, err := orch.Orchestrate(context.Background(), Request{MaxArticles: 5, UserID: "u1"})

	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalAvailableNow)
}

type recordingHistorySweeper struct {
	mu       sync.Mutex
	calledFor []string
	done      chan struct{}
}

func (r *recordingHistorySweeper) EnforceRetention(ctx context.Context, userID string) error {
	r.mu.Lock()
	r.calledFor = append(r.calledFor, userID)
	r.mu.Unlock()
	close(r.done)
	return nil
}

func TestOrchestrate_TriggersHistoryRetentionSweepAfterSessionCreate(t *testing.T) {
	articleRepo := &fakeArticleRepo{}
	fan := fanout.NewService(articleRepo, noopLexicalFanout{}, noopVectorFanout{}, noopEmbedder{})
	sweeper := &recordingHistorySweeper{done: make(chan struct{})}
	orch := NewOrchestrator(&stubLexical{hits: nil}, &fakeSessions{}, fan, &recordingDispatcher{}, sweeper)

	_, err := orch.Orchestrate(context.Background(), Request{MaxArticles: 5, UserID: "u1"})
	require.NoError(t, err)

	select {
	case <-sweeper.done:
	case <-time.After(time.Second):
		t.Fatal("history retention sweep was not triggered")
	}
	assert.Equal(t, []string{"u1"}, sweeper.calledFor)
}

func TestOrchestrate_ColdSearchDispatchRequestShape(t *testing.T) {
	articleRepo := &fakeArticleRepo{}
	fan := fanout.NewService(articleRepo, noopLexicalFanout{}, noopVectorFanout{}, noopEmbedder{})
	dispatcher := &recordingDispatcher{}
	orch := NewOrchestrator(&stubLexical{hits: nil}, &fakeSessions{}, fan, dispatcher, nil)

	result, err := orch.Orchestrate(context.Background(), Request{
		KeywordSearch:  "lạm phát",
		KeywordContent: "kinh tế",
		Websites:       []string{"vnexpress", "cafef"},
		MaxArticles:    5,
		UserID:         "u1",
	})
	require.NoError(t, err)
	require.Len(t, dispatcher.dispatched, 1)

	want := CrawlRequest{
		SearchID:       result.SearchID,
		Websites:       []string{"vnexpress", "cafef"},
		KeywordSearch:  "lạm phát",
		KeywordContent: "kinh tế",
		MaxArticles:    5,
		UserID:         "u1",
	}
	if diff := cmp.Diff(want, dispatcher.dispatched[0], cmpopts.IgnoreFields(CrawlRequest{}, "StartDate", "EndDate")); diff != "" {
		t.Errorf("dispatched CrawlRequest mismatch (-want +got):\n%s", diff)
	}
}

func TestSortByPublishDateDesc_MissingDatesLast(t *testing.T) {
	articles := []*entity.Article{
		{ArticleID: "a1", PublishDate: nil},
		{ArticleID: "a2", PublishDate: newDate(5)},
		{ArticleID: "a3", PublishDate: newDate(1)},
	}
	sortByPublishDateDesc(articles)
	assert.Equal(t, "a3", articles[0].ArticleID)
	assert.Equal(t, "a2", articles[1].ArticleID)
	assert.Equal(t, "a1", articles[2].ArticleID)
}
