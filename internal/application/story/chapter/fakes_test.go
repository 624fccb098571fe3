package chapter

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"odyscribe-api/internal/domain/entity"
	"odyscribe-api/internal/domain/repository"
	wfmodel "odyscribe-api/internal/workflow/model"
)

// memStore 内存版条目/章节仓储，事务失败时整体回滚
type memStore struct {
	mu       sync.Mutex
	entries  map[string]entity.JournalEntry
	chapters map[string]entity.Chapter

	failSetHasChapter error
}

func newMemStore() *memStore {
	return &memStore{
		entries:  map[string]entity.JournalEntry{},
		chapters: map[string]entity.Chapter{},
	}
}

func (s *memStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	entries := make(map[string]entity.JournalEntry, len(s.entries))
	for k, v := range s.entries {
		entries[k] = v
	}
	chapters := make(map[string]entity.Chapter, len(s.chapters))
	for k, v := range s.chapters {
		chapters[k] = v
	}
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.entries, s.chapters = entries, chapters
		s.mu.Unlock()
		return err
	}
	return nil
}

type memEntries struct{ s *memStore }

func (r memEntries) Create(_ context.Context, e *entity.JournalEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.entries[e.ID] = *e
	return nil
}

func (r memEntries) GetByID(_ context.Context, id string) (*entity.JournalEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.entries[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (r memEntries) Update(_ context.Context, e *entity.JournalEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.entries[e.ID] = *e
	return nil
}

func (r memEntries) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.entries, id)
	return nil
}

func (r memEntries) ListByUser(_ context.Context, userID string, _ *repository.EntryFilter, _ *repository.Pagination) (*repository.PagedResult[*entity.JournalEntry], error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.JournalEntry
	for _, e := range r.s.entries {
		if e.UserID == userID {
			e := e
			out = append(out, &e)
		}
	}
	return repository.NewUnpagedResult(out), nil
}

func (r memEntries) ListRecent(ctx context.Context, userID string, limit int) ([]*entity.JournalEntry, error) {
	res, _ := r.ListByUser(ctx, userID, nil, nil)
	return res.Items, nil
}

func (r memEntries) SetHasChapter(_ context.Context, id string, has bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failSetHasChapter != nil {
		return r.s.failSetHasChapter
	}
	e, ok := r.s.entries[id]
	if !ok {
		return errors.New("entry not found")
	}
	e.HasChapter = has
	r.s.entries[id] = e
	return nil
}

func (r memEntries) CountByUser(ctx context.Context, userID string) (int64, error) {
	res, _ := r.ListByUser(ctx, userID, nil, nil)
	return res.Total, nil
}

type memChapters struct{ s *memStore }

func (r memChapters) Create(_ context.Context, c *entity.Chapter) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.chapters[c.ID] = *c
	return nil
}

func (r memChapters) GetByID(_ context.Context, id string) (*entity.Chapter, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.chapters[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r memChapters) GetByEntryID(_ context.Context, entryID string) (*entity.Chapter, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var latest *entity.Chapter
	for _, c := range r.s.chapters {
		if c.SourceEntryID() == entryID && (latest == nil || c.CreatedAt.After(latest.CreatedAt)) {
			c := c
			latest = &c
		}
	}
	return latest, nil
}

func (r memChapters) Update(_ context.Context, c *entity.Chapter) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *c
	cp.Version++
	r.s.chapters[c.ID] = cp
	return nil
}

func (r memChapters) CompleteGeneration(_ context.Context, c *entity.Chapter, expectedVersion int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.chapters[c.ID]
	if !ok || cur.Version != expectedVersion {
		return false, nil
	}
	cp := *c
	cp.Status = entity.ChapterStatusCompleted
	cp.Version = expectedVersion + 1
	r.s.chapters[c.ID] = cp
	return true, nil
}

func (r memChapters) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.chapters, id)
	return nil
}

func (r memChapters) ListByUser(_ context.Context, userID string) ([]*entity.Chapter, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Chapter
	for _, c := range r.s.chapters {
		if c.UserID == userID {
			c := c
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memChapters) CountCompletedByEntry(_ context.Context, entryID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, c := range r.s.chapters {
		if c.SourceEntryID() == entryID && c.Status == entity.ChapterStatusCompleted {
			n++
		}
	}
	return n, nil
}

func (r memChapters) CountByUser(ctx context.Context, userID string) (int64, error) {
	list, _ := r.ListByUser(ctx, userID)
	return int64(len(list)), nil
}

// memLocker 内存锁
type memLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMemLocker() *memLocker { return &memLocker{held: map[string]bool{}} }

func (l *memLocker) TryLock(_ context.Context, key string, _ time.Duration) (repository.Lock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, nil
	}
	l.held[key] = true
	return &memLock{l: l, key: key}, nil
}

func (l *memLocker) isHeld(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held[key]
}

type memLock struct {
	l   *memLocker
	key string
}

func (m *memLock) Release(context.Context) error {
	m.l.mu.Lock()
	defer m.l.mu.Unlock()
	delete(m.l.held, m.key)
	return nil
}

// generatorFunc 让函数满足 NarrativeGenerator
type generatorFunc func(ctx context.Context, in *wfmodel.NarrativeGenerateInput) (*wfmodel.NarrativeGenerateOutput, error)

func (f generatorFunc) Generate(ctx context.Context, in *wfmodel.NarrativeGenerateInput) (*wfmodel.NarrativeGenerateOutput, error) {
	return f(ctx, in)
}

// fakeChatModel 记录请求并返回预设回复
type fakeChatModel struct {
	mu       sync.Mutex
	reply    string
	err      error
	calls    int
	lastMsgs []*schema.Message
	lastOpts *model.Options
}

func (m *fakeChatModel) Generate(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastMsgs = input
	m.lastOpts = model.GetCommonOptions(nil, opts...)
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

type fakeFactory struct {
	model    *fakeChatModel
	lastName string
}

func (f *fakeFactory) ChatModel(_ context.Context, name string) (model.BaseChatModel, string, error) {
	f.lastName = name
	return f.model, name, nil
}
