package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"ReviewPipeline/internal/domain"
	"ReviewPipeline/internal/ports"
	"ReviewPipeline/internal/prompt"
)

// fakeClock is a manually advanced time source shared by a test's fakes.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)}
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

type memItems struct {
	mu    sync.Mutex
	items map[string]domain.Item
}

var _ ports.ItemRepository = (*memItems)(nil)

func newMemItems() *memItems { return &memItems{items: map[string]domain.Item{}} }

func (m *memItems) InsertIfAbsent(_ context.Context, item domain.Item) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[item.ID]; ok {
		return false, nil
	}
	m.items[item.ID] = item
	return true, nil
}

func (m *memItems) Get(_ context.Context, id string) (domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return domain.Item{}, fmt.Errorf("item %s not found", id)
	}
	return item, nil
}

func (m *memItems) SetStatus(_ context.Context, id string, status domain.ItemStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return fmt.Errorf("item %s not found", id)
	}
	item.Status = status
	m.items[id] = item
	return nil
}

func (m *memItems) add(item domain.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.ID] = item
}

func (m *memItems) status(id string) domain.ItemStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id].Status
}

func (m *memItems) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

type memDrafts struct {
	mu     sync.Mutex
	drafts map[string]domain.Draft
}

var _ ports.DraftRepository = (*memDrafts)(nil)

func newMemDrafts() *memDrafts { return &memDrafts{drafts: map[string]domain.Draft{}} }

func (m *memDrafts) Save(_ context.Context, draft domain.Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[draft.ID] = draft
	return nil
}

func (m *memDrafts) Get(_ context.Context, id string) (domain.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	draft, ok := m.drafts[id]
	if !ok {
		return domain.Draft{}, fmt.Errorf("draft %s not found", id)
	}
	return draft, nil
}

func (m *memDrafts) Update(_ context.Context, draft domain.Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.drafts[draft.ID]; !ok {
		return fmt.Errorf("draft %s not found", draft.ID)
	}
	m.drafts[draft.ID] = draft
	return nil
}

func (m *memDrafts) ListByStatus(_ context.Context, status domain.DraftStatus, limit int) ([]domain.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Draft
	for _, draft := range m.drafts {
		if draft.Status == status {
			out = append(out, draft)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memDrafts) SlugExists(_ context.Context, slug, excludeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, draft := range m.drafts {
		if draft.Slug == slug && draft.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memDrafts) byItem(itemID string) []domain.Draft {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Draft
	for _, draft := range m.drafts {
		if draft.ItemID == itemID {
			out = append(out, draft)
		}
	}
	return out
}

func (m *memDrafts) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.drafts)
}

type memQueue struct {
	mu           sync.Mutex
	entries      map[string]domain.RetryEntry
	clock        *fakeClock
	lease        time.Duration
	failNextBump error
}

var _ ports.RetryQueue = (*memQueue)(nil)

func newMemQueue(clock *fakeClock) *memQueue {
	return &memQueue{
		entries: map[string]domain.RetryEntry{},
		clock:   clock,
		lease:   10 * time.Minute,
	}
}

func (m *memQueue) Bump(_ context.Context, itemID, lastError string, backoff func(int) time.Duration) (domain.RetryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNextBump != nil {
		err := m.failNextBump
		m.failNextBump = nil
		return domain.RetryEntry{}, err
	}
	now := m.clock.Now()
	entry, ok := m.entries[itemID]
	if !ok {
		entry = domain.RetryEntry{ItemID: itemID}
	}
	entry.Attempt++
	entry.LastError = lastError
	entry.NextRunAt = now.Add(backoff(entry.Attempt))
	entry.InFlight = false
	entry.ClaimedUntil = time.Time{}
	entry.UpdatedAt = now
	m.entries[itemID] = entry
	return entry, nil
}

func (m *memQueue) ClaimDue(_ context.Context, now time.Time, limit int) ([]domain.RetryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var due []domain.RetryEntry
	for _, entry := range m.entries {
		claimed := entry.InFlight && entry.ClaimedUntil.After(now)
		if !claimed && !entry.NextRunAt.After(now) {
			due = append(due, entry)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].NextRunAt.Before(due[j].NextRunAt) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	for _, entry := range due {
		entry.InFlight = true
		entry.ClaimedUntil = now.Add(m.lease)
		m.entries[entry.ItemID] = entry
	}
	return due, nil
}

func (m *memQueue) Release(_ context.Context, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.entries[itemID]; ok {
		entry.InFlight = false
		entry.ClaimedUntil = time.Time{}
		m.entries[itemID] = entry
	}
	return nil
}

func (m *memQueue) Get(_ context.Context, itemID string) (domain.RetryEntry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[itemID]
	return entry, ok, nil
}

func (m *memQueue) Delete(_ context.Context, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, itemID)
	return nil
}

func (m *memQueue) DeleteAll(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.entries))
	for id := range m.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	m.entries = map[string]domain.RetryEntry{}
	return ids, nil
}

func (m *memQueue) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *memQueue) seed(entry domain.RetryEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.ItemID] = entry
}

type memSettings struct {
	mu sync.Mutex
	s  domain.ValidationSettings
}

var _ ports.SettingsRepository = (*memSettings)(nil)

func newMemSettings() *memSettings {
	return &memSettings{s: domain.ValidationSettings{
		Version:            1,
		MinLength:          10,
		MaxLength:          300,
		ToneScoreThreshold: 0.4,
		PromptTemplate:     prompt.DefaultTemplate,
	}}
}

func (m *memSettings) Current(_ context.Context) (domain.ValidationSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s, nil
}

func (m *memSettings) Update(_ context.Context, s domain.ValidationSettings) (domain.ValidationSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.Version = m.s.Version + 1
	m.s = s
	return s, nil
}

type memLogs struct {
	mu      sync.Mutex
	entries []domain.LogEntry
}

var _ ports.LogStore = (*memLogs)(nil)

func newMemLogs() *memLogs { return &memLogs{} }

func (m *memLogs) Append(_ context.Context, entry domain.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memLogs) Stats(_ context.Context, since time.Time) ([]domain.LogStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]*domain.LogStat{}
	for _, entry := range m.entries {
		if !since.IsZero() && entry.CreatedAt.Before(since) {
			continue
		}
		day := entry.CreatedAt.Truncate(24 * time.Hour)
		key := entry.Type + "|" + entry.Level + "|" + day.Format("2006-01-02")
		if counts[key] == nil {
			counts[key] = &domain.LogStat{Type: entry.Type, Level: entry.Level, Day: day}
		}
		counts[key].Count++
	}
	var out []domain.LogStat
	for _, stat := range counts {
		out = append(out, *stat)
	}
	return out, nil
}

// fakeSource serves canned products per source ref and shortens URLs with
// a recognizable prefix.
type fakeSource struct {
	mu         sync.Mutex
	products   map[string][]domain.Item
	fetchErr   map[string]error
	shortenErr error
	fetches    []string
}

var _ ports.SourceClient = (*fakeSource)(nil)

func newFakeSource() *fakeSource {
	return &fakeSource{products: map[string][]domain.Item{}, fetchErr: map[string]error{}}
}

func (f *fakeSource) FetchBySource(_ context.Context, src domain.SourceRef, limit int) ([]domain.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := src.String()
	f.fetches = append(f.fetches, key)
	if err := f.fetchErr[key]; err != nil {
		return nil, err
	}
	items := f.products[key]
	if len(items) > limit {
		items = items[:limit]
	}
	return append([]domain.Item(nil), items...), nil
}

func (f *fakeSource) ShortenURL(_ context.Context, rawURL string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.shortenErr != nil {
		return "", f.shortenErr
	}
	return "https://link.test/" + rawURL, nil
}

func (f *fakeSource) stock(key string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("%s-%d", key, i)
		f.products[key] = append(f.products[key], domain.Item{
			ID:         id,
			Name:       "상품 " + id,
			Category:   "생활용품",
			Price:      10000,
			ProductURL: "https://shop.test/" + id,
		})
	}
}

// fakeModel scripts the language-model collaborator.
type fakeModel struct {
	mu      sync.Mutex
	fn      func(prompt string) (string, error)
	calls   int
	prompts []string
	started chan struct{}
	proceed chan struct{}
}

var _ ports.Completer = (*fakeModel)(nil)

func (f *fakeModel) Complete(_ context.Context, p string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.prompts = append(f.prompts, p)
	started, proceed := f.started, f.proceed
	fn := f.fn
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if proceed != nil {
		<-proceed
	}
	if fn != nil {
		return fn(p)
	}
	return "", fmt.Errorf("no response scripted")
}

func (f *fakeModel) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

var _ ports.Notifier = (*fakeNotifier)(nil)

func (f *fakeNotifier) Notify(_ context.Context, level, title, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, level+"|"+title+"|"+text)
	return nil
}

// goodReview is long enough, free of banned phrases, and positive in tone.
const goodReview = "배송이 빨라서 원하는 날에 도착했고, 품질도 만족스러워 인테리어에도 잘 어울려요. 추천하고 싶은 제품입니다."
