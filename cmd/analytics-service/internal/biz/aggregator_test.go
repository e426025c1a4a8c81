package biz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"velora/cmd/analytics-service/internal/conf"
	"velora/cmd/analytics-service/internal/data"
	"velora/cmd/analytics-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// failingStore 写入总是失败的存储
type failingStore struct {
	*data.MemoryStore
	failSet    bool
	failRemove bool
}

func (s *failingStore) Set(ctx context.Context, key, value string) error {
	if s.failSet {
		return errors.New("quota exceeded")
	}
	return s.MemoryStore.Set(ctx, key, value)
}

func (s *failingStore) Remove(ctx context.Context, keys ...string) error {
	if s.failRemove {
		return errors.New("store offline")
	}
	return s.MemoryStore.Remove(ctx, keys...)
}

// recordingSink 记录转发的事件
type recordingSink struct {
	mu     sync.Mutex
	events []*domain.Event
	closed bool
}

func (s *recordingSink) Forward(ctx context.Context, e *domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) Close() error {
	s.closed = true
	return nil
}

func testConfig() *conf.Config {
	return &conf.Config{
		Analytics: conf.AnalyticsConfig{MaxEvents: 1000, RecentLimit: 20, MaxDataBytes: 64 * 1024},
		Presence:  conf.PresenceConfig{HeartbeatInterval: 30 * time.Second, Grace: 5 * time.Minute},
	}
}

// fakeClock 可控时钟
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestAggregator(t *testing.T, store domain.KVStore) (*Aggregator, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	agg := NewAggregator(testConfig(), store, nil, zap.NewNop())
	agg.now = clock.Now
	agg.Init(context.Background())
	agg.SetClientInfo(domain.ClientInfo{UserAgent: "Mozilla/5.0 (X11; Linux x86_64)", PageURL: "https://velora.example/"})
	return agg, clock
}

func TestAggregator_RecordThenRecentActivity(t *testing.T) {
	ctx := context.Background()
	agg, clock := newTestAggregator(t, data.NewMemoryStore())

	agg.Record(ctx, domain.EventTypeButtonClick, map[string]interface{}{"buttonName": "get-demo"})
	clock.Advance(time.Second)
	agg.Record(ctx, domain.EventTypePricingSelection, map[string]interface{}{"plan": "Premium"})

	recent := agg.RecentActivity(1)
	require.Len(t, recent, 1)
	assert.Equal(t, domain.EventTypePricingSelection, recent[0].Type)
	assert.Equal(t, "Premium", recent[0].Data["plan"])

	// 同一毫秒内写入，后写入者在前
	agg.Record(ctx, domain.EventTypeButtonClick, map[string]interface{}{"buttonName": "a"})
	agg.Record(ctx, domain.EventTypeButtonClick, map[string]interface{}{"buttonName": "b"})
	recent = agg.RecentActivity(1)
	require.Len(t, recent, 1)
	assert.Equal(t, "b", recent[0].Data["buttonName"])
}

func TestAggregator_RecordMergesAmbientFields(t *testing.T) {
	ctx := context.Background()
	agg, _ := newTestAggregator(t, data.NewMemoryStore())

	input := map[string]interface{}{"path": "/", "userId": "spoofed"}
	agg.Record(ctx, domain.EventTypePageView, input)

	events := agg.Events()
	require.Len(t, events, 1)
	e := events[0]
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, agg.SessionID(), e.SessionID())
	assert.Equal(t, agg.UserID(), e.UserID())
	assert.Equal(t, "https://velora.example/", e.URL)
	assert.Equal(t, "Mozilla/5.0 (X11; Linux x86_64)", e.UserAgent)
	// 调用方的 map 不被修改
	assert.Equal(t, "spoofed", input["userId"])
	_, hasSession := input["sessionId"]
	assert.False(t, hasSession)
}

func TestAggregator_PageViewCounts(t *testing.T) {
	ctx := context.Background()
	agg, _ := newTestAggregator(t, data.NewMemoryStore())
	tracker := agg.Tracker()

	tracker.PageView(ctx, "/", "", "Velora")
	tracker.PageView(ctx, "/get-demo", "/", "Get a Demo")
	tracker.PageView(ctx, "/", "", "Velora")
	agg.Record(ctx, domain.EventTypePageView, nil)

	assert.Equal(t, map[string]int{"/": 2, "/get-demo": 1, domain.UnknownGroup: 1}, agg.PageViewCounts())
}

func TestAggregator_FormSubmissionCounts(t *testing.T) {
	ctx := context.Background()
	agg, _ := newTestAggregator(t, data.NewMemoryStore())
	tracker := agg.Tracker()

	tracker.FormSubmit(ctx, "demo_request", map[string]interface{}{"companySize": "51-200"})
	tracker.FormSubmit(ctx, "demo_request", nil)
	tracker.FormSubmit(ctx, "newsletter", nil)
	tracker.ButtonClick(ctx, "submit", "footer")

	assert.Equal(t, map[string]int{"demo_request": 2, "newsletter": 1}, agg.FormSubmissionCounts())
	assert.Len(t, agg.EventsByType(domain.EventTypeFormSubmit), 3)
	assert.Len(t, agg.EventsByType(domain.EventTypeButtonClick), 1)
	assert.Empty(t, agg.EventsByType(domain.EventTypeDemoRequest))
}

func TestAggregator_TruncatesToMostRecent(t *testing.T) {
	ctx := context.Background()
	store := data.NewMemoryStore()
	agg, _ := newTestAggregator(t, store)

	for i := 0; i < 1005; i++ {
		agg.Record(ctx, domain.EventTypeButtonClick, map[string]interface{}{"buttonName": fmt.Sprintf("b%d", i)})
	}

	events := agg.Events()
	require.Len(t, events, 1000)
	// 最早的 5 条被淘汰
	assert.Equal(t, "b5", events[0].Data["buttonName"])
	assert.Equal(t, "b1004", events[999].Data["buttonName"])

	raw, ok, err := store.Get(ctx, domain.KeyEvents)
	require.NoError(t, err)
	require.True(t, ok)
	var persisted []*domain.Event
	require.NoError(t, json.Unmarshal([]byte(raw), &persisted))
	assert.Len(t, persisted, 1000)
}

func TestAggregator_EvictsSingleOldest(t *testing.T) {
	ctx := context.Background()
	agg, _ := newTestAggregator(t, data.NewMemoryStore())

	for i := 0; i < 1001; i++ {
		agg.Record(ctx, domain.EventTypeButtonClick, map[string]interface{}{"buttonName": fmt.Sprintf("b%d", i)})
	}

	events := agg.Events()
	require.Len(t, events, 1000)
	for i, e := range events {
		assert.Equal(t, fmt.Sprintf("b%d", i+1), e.Data["buttonName"])
	}
}

func TestAggregator_ReturnedEventsAreCopies(t *testing.T) {
	ctx := context.Background()
	agg, _ := newTestAggregator(t, data.NewMemoryStore())

	agg.Record(ctx, domain.EventTypeFormSubmit, map[string]interface{}{
		"formName": "demo_request",
		"fields":   map[string]interface{}{"company": "Acme"},
		"tags":     []interface{}{"b2b"},
	})

	got := agg.Events()[0]
	got.Data["formName"] = "changed"
	got.Data["fields"].(map[string]interface{})["company"] = "changed"
	got.Data["tags"].([]interface{})[0] = "changed"

	again := agg.RecentActivity(1)[0]
	assert.Equal(t, "demo_request", again.Data["formName"])
	assert.Equal(t, "Acme", again.Data["fields"].(map[string]interface{})["company"])
	assert.Equal(t, "b2b", again.Data["tags"].([]interface{})[0])
	assert.Equal(t, map[string]int{"demo_request": 1}, agg.FormSubmissionCounts())
}

func TestAggregator_UniqueUsersAndSessions(t *testing.T) {
	ctx := context.Background()
	store := data.NewMemoryStore()
	agg, _ := newTestAggregator(t, store)

	s1 := agg.NewSession(domain.ClientInfo{UserAgent: "ua", PageURL: "https://velora.example/"})
	s2 := agg.NewSession(domain.ClientInfo{UserAgent: "ua", PageURL: "https://velora.example/pricing"})
	s1.Tracker().PageView(ctx, "/", "", "")
	s1.Tracker().PageView(ctx, "/pricing", "/", "")
	s2.Tracker().PricingSelection(ctx, "Basic")
	agg.Record(ctx, domain.EventTypeButtonClick, nil)

	stats := agg.SummaryStats()
	assert.Equal(t, 4, stats.TotalEvents)
	assert.Equal(t, 1, stats.UniqueUserCount)
	assert.Equal(t, 3, stats.UniqueSessionCount)

	// 清除后重新生成用户ID
	require.NoError(t, agg.ClearAll(ctx))
	agg.Record(ctx, domain.EventTypeButtonClick, nil)
	s1.Tracker().ButtonClick(ctx, "x", "")

	stats = agg.SummaryStats()
	assert.Equal(t, 2, stats.TotalEvents)
	assert.Equal(t, 1, stats.UniqueUserCount)
	assert.Equal(t, 2, stats.UniqueSessionCount)
}

func TestAggregator_UniqueUserCountAcrossIdentities(t *testing.T) {
	ctx := context.Background()
	agg, _ := newTestAggregator(t, data.NewMemoryStore())

	// 每次清除后重新生成一个用户
	users := 0
	for round := 0; round < 4; round++ {
		for i := 0; i <= round; i++ {
			agg.Record(ctx, domain.EventTypeButtonClick, nil)
		}
		users++
		assert.Equal(t, users, agg.SummaryStats().UniqueUserCount)

		agg.mu.Lock()
		agg.userID = ""
		agg.mu.Unlock()
	}
}

func TestAggregator_ClearAll(t *testing.T) {
	ctx := context.Background()
	store := data.NewMemoryStore()
	agg, _ := newTestAggregator(t, store)

	agg.Tracker().PageView(ctx, "/", "", "")
	agg.Tracker().FormSubmit(ctx, "demo_request", nil)
	agg.SessionStart(ctx)
	oldUser := agg.UserID()

	require.NoError(t, agg.ClearAll(ctx))

	stats := agg.SummaryStats()
	assert.Equal(t, 0, stats.TotalEvents)
	assert.Equal(t, 0, stats.UniqueUserCount)
	assert.Equal(t, 0, stats.UniqueSessionCount)
	assert.Equal(t, 0, stats.EventsInLastWeek)
	assert.Empty(t, stats.PageViewCounts)
	assert.Empty(t, stats.FormSubmissionCounts)
	assert.Equal(t, "", agg.UserID())

	for _, key := range []string{domain.KeyEvents, domain.KeyUserID, domain.KeySessionStart} {
		_, ok, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok, key)
	}

	agg.Record(ctx, domain.EventTypeButtonClick, nil)
	assert.NotEmpty(t, agg.UserID())
	assert.NotEqual(t, oldUser, agg.UserID())

	persisted, ok, err := store.Get(ctx, domain.KeyUserID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, agg.UserID(), persisted)
}

func TestAggregator_ClearAllStoreFailure(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{MemoryStore: data.NewMemoryStore(), failRemove: true}
	agg, _ := newTestAggregator(t, store)
	agg.Record(ctx, domain.EventTypeButtonClick, nil)

	err := agg.ClearAll(ctx)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Equal(t, 0, agg.SummaryStats().TotalEvents)
}

func TestAggregator_EventsInLastWeek(t *testing.T) {
	ctx := context.Background()
	agg, clock := newTestAggregator(t, data.NewMemoryStore())

	agg.Record(ctx, domain.EventTypeButtonClick, nil)
	clock.Advance(6 * 24 * time.Hour)
	agg.Record(ctx, domain.EventTypeButtonClick, nil)
	clock.Advance(2 * 24 * time.Hour)
	agg.Record(ctx, domain.EventTypeButtonClick, nil)

	stats := agg.SummaryStats()
	assert.Equal(t, 3, stats.TotalEvents)
	assert.Equal(t, 2, stats.EventsInLastWeek)
}

func TestAggregator_PersistFailureKeepsMemory(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{MemoryStore: data.NewMemoryStore()}
	agg, _ := newTestAggregator(t, store)

	store.failSet = true
	assert.NotPanics(t, func() {
		agg.Record(ctx, domain.EventTypeDemoRequest, map[string]interface{}{"companyName": "Acme"})
	})

	assert.Equal(t, 1, agg.SummaryStats().TotalEvents)
	_, ok, err := store.Get(ctx, domain.KeyEvents)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAggregator_DropsUnencodableData(t *testing.T) {
	ctx := context.Background()
	agg, _ := newTestAggregator(t, data.NewMemoryStore())

	agg.Record(ctx, domain.EventTypeButtonClick, map[string]interface{}{"bad": math.Inf(1)})
	agg.Record(ctx, domain.EventTypeButtonClick, map[string]interface{}{"ch": make(chan int)})

	assert.Equal(t, 0, agg.SummaryStats().TotalEvents)
}

func TestAggregator_DropsOversizedData(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Analytics.MaxDataBytes = 128
	agg := NewAggregator(cfg, data.NewMemoryStore(), nil, zap.NewNop())
	agg.Init(ctx)

	big := make([]byte, 512)
	for i := range big {
		big[i] = 'x'
	}
	agg.Record(ctx, domain.EventTypeFormSubmit, map[string]interface{}{"formName": string(big)})
	assert.Equal(t, 0, agg.SummaryStats().TotalEvents)
}

func TestAggregator_InitLoadsPersistedLog(t *testing.T) {
	ctx := context.Background()
	store := data.NewMemoryStore()

	first, _ := newTestAggregator(t, store)
	first.Tracker().PageView(ctx, "/", "", "")
	first.Tracker().PageView(ctx, "/get-demo", "", "")
	user := first.UserID()

	second, _ := newTestAggregator(t, store)
	assert.Equal(t, user, second.UserID())
	assert.NotEqual(t, first.SessionID(), second.SessionID())
	assert.Equal(t, map[string]int{"/": 1, "/get-demo": 1}, second.PageViewCounts())
}

func TestAggregator_InitMalformedLog(t *testing.T) {
	ctx := context.Background()
	store := data.NewMemoryStore()
	require.NoError(t, store.Set(ctx, domain.KeyEvents, "{not json"))

	agg, _ := newTestAggregator(t, store)
	assert.Equal(t, 0, agg.SummaryStats().TotalEvents)

	agg.Record(ctx, domain.EventTypeButtonClick, nil)
	assert.Equal(t, 1, agg.SummaryStats().TotalEvents)
}

func TestAggregator_ExportAll(t *testing.T) {
	ctx := context.Background()
	agg, _ := newTestAggregator(t, data.NewMemoryStore())
	assert.Equal(t, "[]", agg.ExportAll())

	agg.Tracker().DemoRequest(ctx, "Acme Logistics", "201-500")
	agg.Tracker().PricingSelection(ctx, "Enterprise")

	out := agg.ExportAll()
	assert.Contains(t, out, "\n  {")

	var events []*domain.Event
	require.NoError(t, json.Unmarshal([]byte(out), &events))
	assert.Equal(t, agg.Events(), events)
}

func TestAggregator_SinkAndDispose(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{}
	agg := NewAggregator(testConfig(), data.NewMemoryStore(), sink, zap.NewNop())
	agg.Init(ctx)

	agg.Record(ctx, domain.EventTypeButtonClick, nil)
	agg.Dispose(ctx)

	assert.Len(t, sink.events, 1)
	assert.True(t, sink.closed)
}

// blockingSink 转发时阻塞直到放行
type blockingSink struct {
	entered chan struct{}
	release chan struct{}
}

func (s *blockingSink) Forward(ctx context.Context, e *domain.Event) error {
	close(s.entered)
	<-s.release
	return nil
}

func (s *blockingSink) Close() error {
	return nil
}

func TestAggregator_ForwardDoesNotBlockReaders(t *testing.T) {
	ctx := context.Background()
	sink := &blockingSink{entered: make(chan struct{}), release: make(chan struct{})}
	agg := NewAggregator(testConfig(), data.NewMemoryStore(), sink, zap.NewNop())
	agg.Init(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		agg.Record(ctx, domain.EventTypeButtonClick, map[string]interface{}{"buttonName": "cta"})
	}()
	<-sink.entered

	read := make(chan *domain.SummaryStats, 1)
	go func() {
		read <- agg.SummaryStats()
	}()

	select {
	case stats := <-read:
		assert.Equal(t, 1, stats.TotalEvents)
		recent := agg.RecentActivity(1)
		require.Len(t, recent, 1)
		assert.Equal(t, "cta", recent[0].Data["buttonName"])
	case <-time.After(2 * time.Second):
		t.Fatal("readers blocked while the sink was forwarding")
	}

	close(sink.release)
	<-done
}

func TestAggregator_SessionStartPersisted(t *testing.T) {
	ctx := context.Background()
	agg, clock := newTestAggregator(t, data.NewMemoryStore())

	first := agg.SessionStart(ctx)
	clock.Advance(time.Hour)
	assert.Equal(t, first, agg.SessionStart(ctx))
}

func TestAggregator_ConcurrentRecord(t *testing.T) {
	ctx := context.Background()
	agg := NewAggregator(testConfig(), data.NewMemoryStore(), nil, zap.NewNop())
	agg.Init(ctx)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := agg.NewSession(domain.ClientInfo{})
			for j := 0; j < 10; j++ {
				s.Tracker().ButtonClick(ctx, "cta", "hero")
				_ = agg.RecentActivity(5)
			}
		}()
	}
	wg.Wait()

	stats := agg.SummaryStats()
	assert.Equal(t, 200, stats.TotalEvents)
	assert.Equal(t, 20, stats.UniqueSessionCount)
}
