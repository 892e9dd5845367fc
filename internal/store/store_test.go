package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/hpungsan/rolodex/internal/contact"
	"github.com/hpungsan/rolodex/internal/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeChannel wraps a MemoryChannel and can be told to fail.
type fakeChannel struct {
	*MemoryChannel

	mu      sync.Mutex
	getErr  error
	setErr  error
	sets    int
	lastSet []byte
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{MemoryChannel: NewMemoryChannel()}
}

func (f *fakeChannel) Get(ctx context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	err := f.getErr
	f.mu.Unlock()
	if err != nil {
		return nil, false, err
	}
	return f.MemoryChannel.Get(ctx, key)
}

func (f *fakeChannel) Set(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	f.sets++
	err := f.setErr
	if err == nil {
		f.lastSet = append([]byte(nil), value...)
	}
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.MemoryChannel.Set(ctx, key, value)
}

func (f *fakeChannel) setCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sets
}

// stepClock returns a clock that advances by step on every call.
func stepClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := next
		next = next.Add(step)
		return t
	}
}

func persisted(t *testing.T, ch Channel) []contact.Record {
	t.Helper()
	data, ok, err := ch.Get(context.Background(), DefaultKey)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("nothing persisted")
	}
	records, err := contact.Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return records
}

func TestSave_CreatesOnEmptyStore(t *testing.T) {
	ch := newFakeChannel()
	s := New(ch, WithClock(stepClock(time.UnixMilli(1_700_000_000_000), time.Millisecond)))

	rec, err := s.Save(context.Background(), SaveInput{Level1: "cat1", Comment: "hi"})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if rec.ID == "" {
		t.Error("ID should be assigned")
	}
	if len(rec.ID) != 26 {
		t.Errorf("ID length = %d, want 26 (ULID)", len(rec.ID))
	}
	if rec.Timestamp != 1_700_000_000_000 {
		t.Errorf("Timestamp = %d, want %d", rec.Timestamp, int64(1_700_000_000_000))
	}
	if rec.Level1 != "cat1" || rec.Level2 != "" || rec.Level3 != "" || rec.Comment != "hi" {
		t.Errorf("record fields = %+v", rec)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
	if ch.setCount() != 1 {
		t.Errorf("persistence writes = %d, want 1", ch.setCount())
	}
	if diff := cmp.Diff([]contact.Record{rec}, persisted(t, ch)); diff != "" {
		t.Errorf("persisted mismatch (-want +got):\n%s", diff)
	}
}

func TestSave_NewRecordsHaveDistinctIDs(t *testing.T) {
	s := New(NewMemoryChannel())
	ctx := context.Background()

	const n = 200
	ids := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		rec, err := s.Save(ctx, SaveInput{Comment: fmt.Sprintf("entry %d", i)})
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if ids[rec.ID] {
			t.Fatalf("duplicate id %q", rec.ID)
		}
		ids[rec.ID] = true
	}
	if s.Len() != n {
		t.Errorf("Len() = %d, want %d", s.Len(), n)
	}
}

func TestSave_ReplaceKeepsIDAndTimestamp(t *testing.T) {
	ch := newFakeChannel()
	s := New(ch, WithClock(stepClock(time.UnixMilli(1000), time.Second)))
	ctx := context.Background()

	orig, err := s.Save(ctx, SaveInput{Level1: "cat1", Comment: "hi"})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	edited, err := s.Save(ctx, SaveInput{Level1: "cat1", Level2: "cat1-1", Comment: "edited", ID: orig.ID})
	if err != nil {
		t.Fatalf("Save(edit) error = %v", err)
	}

	if edited.ID != orig.ID {
		t.Errorf("ID = %q, want %q", edited.ID, orig.ID)
	}
	if edited.Timestamp != orig.Timestamp {
		t.Errorf("Timestamp = %d, want original %d", edited.Timestamp, orig.Timestamp)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
	got, err := s.Get(orig.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Comment != "edited" || got.Level2 != "cat1-1" {
		t.Errorf("Get() = %+v, want edited record", got)
	}
	if ch.setCount() != 2 {
		t.Errorf("persistence writes = %d, want 2", ch.setCount())
	}
}

func TestSave_ReplaceIsFull(t *testing.T) {
	s := New(NewMemoryChannel())
	ctx := context.Background()

	orig, _ := s.Save(ctx, SaveInput{Level1: "cat1", Level2: "cat1-2", Level3: "cat1-2-1", Comment: "full"})
	edited, err := s.Save(ctx, SaveInput{ID: orig.ID})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	want := contact.Record{ID: orig.ID, Timestamp: orig.Timestamp}
	if diff := cmp.Diff(want, edited); diff != "" {
		t.Errorf("replaced record mismatch (-want +got):\n%s", diff)
	}
}

func TestSave_ReplaceWithExplicitCreatedAt(t *testing.T) {
	s := New(NewMemoryChannel())
	ctx := context.Background()

	orig, _ := s.Save(ctx, SaveInput{Comment: "a"})
	override := orig.Timestamp - 5000
	edited, err := s.Save(ctx, SaveInput{Comment: "b", ID: orig.ID, CreatedAt: &override})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if edited.Timestamp != override {
		t.Errorf("Timestamp = %d, want %d", edited.Timestamp, override)
	}
}

func TestSave_UnknownIDCreatesNew(t *testing.T) {
	s := New(NewMemoryChannel())
	ctx := context.Background()

	rec, err := s.Save(ctx, SaveInput{Comment: "x", ID: "does-not-exist"})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if rec.ID == "does-not-exist" {
		t.Error("unknown id should not be adopted")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestSave_TimestampsNeverGoBackwards(t *testing.T) {
	times := []time.Time{time.UnixMilli(5000), time.UnixMilli(3000), time.UnixMilli(3000), time.UnixMilli(9000)}
	i := 0
	clock := func() time.Time {
		ts := times[i]
		i++
		return ts
	}
	s := New(NewMemoryChannel(), WithClock(clock))
	ctx := context.Background()

	var got []int64
	for range times {
		rec, err := s.Save(ctx, SaveInput{})
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		got = append(got, rec.Timestamp)
	}

	want := []int64{5000, 5000, 5000, 9000}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("timestamps mismatch (-want +got):\n%s", diff)
	}
}

func TestSave_WriteFailureKeepsInMemoryChange(t *testing.T) {
	ch := newFakeChannel()
	ch.setErr = stderrors.New("quota exceeded")
	s := New(ch)

	rec, err := s.Save(context.Background(), SaveInput{Comment: "session only"})
	if !errors.Is(err, errors.ErrPersistenceWriteFailed) {
		t.Fatalf("Save() error = %v, want PERSISTENCE_WRITE_FAILED", err)
	}
	if rec.ID == "" {
		t.Error("record should still be returned")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
	if _, ok, _ := ch.MemoryChannel.Get(context.Background(), DefaultKey); ok {
		t.Error("nothing should have been written")
	}
}

func TestSave_IDGeneratorFailure(t *testing.T) {
	ch := newFakeChannel()
	s := New(ch, WithIDGenerator(func(time.Time) (string, error) {
		return "", stderrors.New("entropy exhausted")
	}))

	_, err := s.Save(context.Background(), SaveInput{})
	if !errors.Is(err, errors.ErrInternal) {
		t.Fatalf("Save() error = %v, want INTERNAL", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
	if ch.setCount() != 0 {
		t.Errorf("persistence writes = %d, want 0", ch.setCount())
	}
}

func TestSave_IDCollisionRetries(t *testing.T) {
	next := []string{"A", "A", "B"}
	s := New(NewMemoryChannel(), WithIDGenerator(func(time.Time) (string, error) {
		id := next[0]
		next = next[1:]
		return id, nil
	}))
	ctx := context.Background()

	first, _ := s.Save(ctx, SaveInput{})
	second, err := s.Save(ctx, SaveInput{})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if first.ID != "A" || second.ID != "B" {
		t.Errorf("ids = %q, %q; want A, B", first.ID, second.ID)
	}
}

func TestDelete(t *testing.T) {
	ch := newFakeChannel()
	s := New(ch)
	ctx := context.Background()

	rec, _ := s.Save(ctx, SaveInput{Level1: "cat1", Comment: "hi"})

	out, err := s.Delete(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !out.Deleted || out.ID != rec.ID {
		t.Errorf("Delete() = %+v", out)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
	if string(ch.lastSet) != "[]" {
		t.Errorf("persisted = %s, want []", ch.lastSet)
	}
}

func TestDelete_MissingIsNoOp(t *testing.T) {
	ch := newFakeChannel()
	s := New(ch)
	ctx := context.Background()

	a, _ := s.Save(ctx, SaveInput{Comment: "a"})
	b, _ := s.Save(ctx, SaveInput{Comment: "b"})
	before := s.List()

	out, err := s.Delete(ctx, "nope")
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if out.Deleted {
		t.Error("Deleted should be false for missing id")
	}
	if diff := cmp.Diff(before, s.List()); diff != "" {
		t.Errorf("collection changed (-before +after):\n%s", diff)
	}
	if _, err := s.Delete(ctx, ""); err != nil {
		t.Fatalf("Delete(\"\") error = %v", err)
	}
	if s.Len() != 2 || before[0].ID != a.ID || before[1].ID != b.ID {
		t.Errorf("unexpected collection %+v", s.List())
	}
}

func TestDelete_WriteFailure(t *testing.T) {
	ch := newFakeChannel()
	s := New(ch)
	ctx := context.Background()
	rec, _ := s.Save(ctx, SaveInput{})

	ch.mu.Lock()
	ch.setErr = stderrors.New("storage disabled")
	ch.mu.Unlock()

	out, err := s.Delete(ctx, rec.ID)
	if !errors.Is(err, errors.ErrPersistenceWriteFailed) {
		t.Fatalf("Delete() error = %v, want PERSISTENCE_WRITE_FAILED", err)
	}
	if !out.Deleted || s.Len() != 0 {
		t.Error("in-memory delete should still take effect")
	}
}

func TestList_ChronologicalWithStableTies(t *testing.T) {
	ch := NewMemoryChannel()
	seed := `[
		{"level1":"","level2":"","level3":"","comment":"late","id":"c","timestamp":300},
		{"level1":"","level2":"","level3":"","comment":"tie-first","id":"a","timestamp":100},
		{"level1":"","level2":"","level3":"","comment":"tie-second","id":"b","timestamp":100},
		{"level1":"","level2":"","level3":"","comment":"early","id":"d","timestamp":50}
	]`
	_ = ch.Set(context.Background(), DefaultKey, []byte(seed))

	s, err := Open(context.Background(), ch)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	var order []string
	for _, r := range s.List() {
		order = append(order, r.ID)
	}
	if diff := cmp.Diff([]string{"d", "a", "b", "c"}, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestList_EditedRecordKeepsChronologicalPlace(t *testing.T) {
	s := New(NewMemoryChannel(), WithClock(stepClock(time.UnixMilli(0), time.Second)))
	ctx := context.Background()

	first, _ := s.Save(ctx, SaveInput{Comment: "first"})
	s.Save(ctx, SaveInput{Comment: "second"})
	s.Save(ctx, SaveInput{Comment: "first, edited", ID: first.ID})

	list := s.List()
	if list[0].ID != first.ID || list[0].Comment != "first, edited" {
		t.Errorf("List()[0] = %+v, want edited first record", list[0])
	}
}

func TestList_IsSnapshot(t *testing.T) {
	s := New(NewMemoryChannel())
	ctx := context.Background()
	s.Save(ctx, SaveInput{Comment: "orig"})

	list := s.List()
	list[0].Comment = "mutated"

	if s.List()[0].Comment != "orig" {
		t.Error("List() result aliases store state")
	}
	if New(NewMemoryChannel()).List() == nil {
		t.Error("List() on empty store should not be nil")
	}
}

func TestGet_NotFound(t *testing.T) {
	s := New(NewMemoryChannel())
	_, err := s.Get("missing")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Get() error = %v, want NOT_FOUND", err)
	}
}

func TestLoad_Absent(t *testing.T) {
	s, err := Open(context.Background(), NewMemoryChannel())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestLoad_CorruptFallsBackToEmpty(t *testing.T) {
	ch := NewMemoryChannel()
	_ = ch.Set(context.Background(), DefaultKey, []byte(`{not json`))

	s, err := Open(context.Background(), ch)
	if !errors.Is(err, errors.ErrPersistenceReadCorrupt) {
		t.Fatalf("Open() error = %v, want PERSISTENCE_READ_CORRUPT", err)
	}
	if s == nil {
		t.Fatal("lenient Open should return a usable store")
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}

	// The store is usable and the next save overwrites the corrupt value.
	if _, err := s.Save(context.Background(), SaveInput{Comment: "fresh"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if got := persisted(t, ch); len(got) != 1 {
		t.Errorf("persisted %d records, want 1", len(got))
	}
}

func TestLoad_StrictFailsFast(t *testing.T) {
	ch := NewMemoryChannel()
	_ = ch.Set(context.Background(), DefaultKey, []byte(`"not a list"`))

	s, err := Open(context.Background(), ch, WithStrictLoad(true))
	if !errors.Is(err, errors.ErrPersistenceReadCorrupt) {
		t.Fatalf("Open() error = %v, want PERSISTENCE_READ_CORRUPT", err)
	}
	if s != nil {
		t.Error("strict Open should not return a store")
	}
}

func TestLoad_ReadFailure(t *testing.T) {
	ch := newFakeChannel()
	ch.getErr = stderrors.New("disk gone")

	s, err := Open(context.Background(), ch)
	if !errors.Is(err, errors.ErrPersistenceReadFailed) {
		t.Fatalf("Open() error = %v, want PERSISTENCE_READ_FAILED", err)
	}
	if s == nil || s.Len() != 0 {
		t.Error("expected usable empty store")
	}
}

func TestLoad_RepairsMissingAndDuplicateIDs(t *testing.T) {
	ch := NewMemoryChannel()
	seed := `[
		{"comment":"no id","timestamp":10},
		{"comment":"one","id":"x","timestamp":20},
		{"comment":"dup","id":"x","timestamp":30}
	]`
	_ = ch.Set(context.Background(), DefaultKey, []byte(seed))

	s, err := Open(context.Background(), ch)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	list := s.List()
	if len(list) != 2 {
		t.Fatalf("Len = %d, want 2", len(list))
	}
	if list[0].ID == "" || list[0].Comment != "no id" {
		t.Errorf("list[0] = %+v, want repaired id", list[0])
	}
	if list[1].ID != "x" || list[1].Comment != "one" {
		t.Errorf("list[1] = %+v, want first occurrence of x", list[1])
	}
}

func TestLoad_NewTimestampsFollowLoaded(t *testing.T) {
	ch := NewMemoryChannel()
	_ = ch.Set(context.Background(), DefaultKey, []byte(`[{"id":"future","timestamp":9000000000000}]`))

	s, err := Open(context.Background(), ch, WithClock(func() time.Time { return time.UnixMilli(1000) }))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	rec, _ := s.Save(context.Background(), SaveInput{})
	if rec.Timestamp < 9000000000000 {
		t.Errorf("Timestamp = %d, want >= loaded maximum", rec.Timestamp)
	}
}

func TestLoad_OutOfRangeTimestampsDoNotBlockSave(t *testing.T) {
	tests := []struct {
		name string
		seed string
	}{
		{name: "microseconds", seed: `[{"id":"a","level1":"cat1","timestamp":1700000000000000}]`},
		{name: "beyond id range", seed: `[{"id":"a","timestamp":9223372036854775807}]`},
		{name: "negative without id", seed: `[{"comment":"old","timestamp":-5}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := newFakeChannel()
			_ = ch.MemoryChannel.Set(context.Background(), DefaultKey, []byte(tt.seed))

			s, err := Open(context.Background(), ch)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			rec, err := s.Save(context.Background(), SaveInput{Level1: "cat1", Comment: "new"})
			if err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			if rec.ID == "" {
				t.Error("expected a generated id")
			}
			if s.Len() != 2 {
				t.Errorf("Len() = %d, want 2", s.Len())
			}
			if diff := cmp.Diff(s.List(), persisted(t, ch)); diff != "" {
				t.Errorf("memory and storage differ (-memory +stored):\n%s", diff)
			}
		})
	}
}

func TestLoad_SkipsRecordsThatCannotGetAnID(t *testing.T) {
	ch := NewMemoryChannel()
	seed := `[
		{"id":"a","timestamp":5},
		{"comment":"no id","timestamp":-1},
		{"id":"b","timestamp":6}
	]`
	_ = ch.Set(context.Background(), DefaultKey, []byte(seed))

	s, err := Open(context.Background(), ch, WithIDGenerator(func(time.Time) (string, error) {
		return "", stderrors.New("entropy exhausted")
	}))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	var ids []string
	for _, r := range s.List() {
		ids = append(ids, r.ID)
	}
	if diff := cmp.Diff([]string{"a", "b"}, ids); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestULIDGenerator_ClampsTime(t *testing.T) {
	gen := NewULIDGenerator()
	for _, at := range []time.Time{time.UnixMilli(-1), time.UnixMilli(1 << 50), time.UnixMilli(1700000000000)} {
		if _, err := gen(at); err != nil {
			t.Errorf("gen(%d) error = %v", at.UnixMilli(), err)
		}
	}
}

func TestRoundTrip_PersistThenLoad(t *testing.T) {
	for _, n := range []int{0, 1, 5, 25} {
		t.Run(fmt.Sprintf("%d records", n), func(t *testing.T) {
			ch := NewMemoryChannel()
			s := New(ch)
			ctx := context.Background()

			for i := 0; i < n; i++ {
				_, err := s.Save(ctx, SaveInput{
					Level1:  "cat1",
					Level2:  fmt.Sprintf("cat1-%d", i%3),
					Comment: fmt.Sprintf("line one\nline %d", i),
				})
				if err != nil {
					t.Fatalf("Save() error = %v", err)
				}
			}
			if n == 0 {
				// An unknown-id delete still writes the (empty) collection.
				if _, err := s.Delete(ctx, "none"); err != nil {
					t.Fatalf("Delete() error = %v", err)
				}
			}

			reloaded, err := Open(ctx, ch)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			if diff := cmp.Diff(s.List(), reloaded.List()); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWithKey(t *testing.T) {
	ch := NewMemoryChannel()
	s := New(ch, WithKey("alt"))
	if s.Key() != "alt" {
		t.Errorf("Key() = %q, want alt", s.Key())
	}
	s.Save(context.Background(), SaveInput{})

	if _, ok, _ := ch.Get(context.Background(), "alt"); !ok {
		t.Error("expected value under custom key")
	}
	if _, ok, _ := ch.Get(context.Background(), DefaultKey); ok {
		t.Error("default key should be untouched")
	}
}

func TestConcurrentSaves(t *testing.T) {
	ch := newFakeChannel()
	s := New(ch)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if _, err := s.Save(ctx, SaveInput{Comment: fmt.Sprintf("%d-%d", i, j)}); err != nil {
					t.Errorf("Save() error = %v", err)
				}
			}
		}(i)
	}
	wg.Wait()

	if s.Len() != 200 {
		t.Errorf("Len() = %d, want 200", s.Len())
	}
	if got := persisted(t, ch); len(got) != 200 {
		t.Errorf("persisted %d records, want 200 (last write must hold the full snapshot)", len(got))
	}
}

func TestListener_FiresAfterPersist(t *testing.T) {
	ch := newFakeChannel()
	var events []string
	var s *Store
	s = New(ch, WithListener(ListenerFuncs{
		Load: func(records []contact.Record) {
			events = append(events, fmt.Sprintf("load:%d", len(records)))
		},
		Saved: func(rec contact.Record) {
			// Persistence already happened and the store is unlocked.
			events = append(events, fmt.Sprintf("saved:%d:%d", ch.setCount(), s.Len()))
		},
		Deleted: func(id string) {
			events = append(events, fmt.Sprintf("deleted:%d:%d", ch.setCount(), s.Len()))
		},
	}))
	ctx := context.Background()

	if _, err := s.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	rec, _ := s.Save(ctx, SaveInput{})
	s.Delete(ctx, rec.ID)
	s.Delete(ctx, rec.ID) // missing: no notification

	want := []string{"load:0", "saved:1:1", "deleted:2:0"}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}
