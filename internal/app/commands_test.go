package app_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"flexreviews/internal/app"
	"flexreviews/internal/domain"
	"flexreviews/internal/storage/filestore"
)

func fileStore(t *testing.T) *filestore.Store {
	t.Helper()
	s := filestore.New(filepath.Join(t.TempDir(), "mock-data.json"))
	if err := s.Save(context.Background(), domain.Snapshot{Result: rawBatch()}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return s
}

func TestModeration_SetPersistsAcrossInstances(t *testing.T) {
	s := fileStore(t)
	ctx := context.Background()

	ok, err := app.NewModerationService(s, nil).Set(ctx, 7453, true)
	if err != nil || !ok {
		t.Fatalf("Set: ok=%v err=%v", ok, err)
	}

	// a fresh service over a fresh store handle sees the write
	got, err := app.NewModerationService(filestore.New(s.Path()), nil).Get(ctx, 7453)
	if err != nil || !got {
		t.Fatalf("Get after Set = %v, %v", got, err)
	}
}

func TestModeration_DoubleToggleRestores(t *testing.T) {
	s := fileStore(t)
	ctx := context.Background()
	mod := app.NewModerationService(s, nil)

	orig, _ := mod.Get(ctx, 7454)
	if _, err := mod.Set(ctx, 7454, !orig); err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if v, _ := mod.Get(ctx, 7454); v == orig {
		t.Fatalf("first toggle had no effect")
	}
	if _, err := mod.Set(ctx, 7454, orig); err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if v, _ := mod.Get(ctx, 7454); v != orig {
		t.Fatalf("expected original state %v, got %v", orig, v)
	}
}

func TestModeration_UnknownIDIsNoOp(t *testing.T) {
	s := fileStore(t)
	before, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	ok, err := app.NewModerationService(s, nil).Set(context.Background(), 999999, true)
	if err != nil || !ok {
		t.Fatalf("unknown id should report success, got ok=%v err=%v", ok, err)
	}

	after, _ := os.ReadFile(s.Path())
	if string(before) != string(after) {
		t.Fatalf("snapshot changed for unknown id")
	}
	if v, _ := app.NewModerationService(s, nil).Get(context.Background(), 999999); v {
		t.Fatalf("unknown id must not read as approved")
	}
}

func TestModeration_ConcurrentTogglesAllLand(t *testing.T) {
	s := filestore.NewMemory(domain.Snapshot{Result: rawBatch()})
	mod := app.NewModerationService(s, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, id := range []int64{7453, 7454, 7455} {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			if _, err := mod.Set(ctx, id, true); err != nil {
				t.Errorf("Set(%d): %v", id, err)
			}
		}(id)
	}
	wg.Wait()

	for _, id := range []int64{7453, 7454, 7455} {
		if v, _ := mod.Get(ctx, id); !v {
			t.Fatalf("toggle for %d was lost", id)
		}
	}
}

func TestModeration_ToggleKeepsUndeclaredFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mock-data.json")
	doc := `{"result":[
		{"id":1,"reservationId":501,"channelId":2005,"listingName":"Loft A","submittedAt":"2024-01-01 00:00:00"},
		{"id":2,"reservationId":502,"reviewCategory":[],"listingName":"Loft A","submittedAt":"2024-01-02 00:00:00"}]}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := app.NewModerationService(filestore.New(path), nil).Set(context.Background(), 2, true); err != nil {
		t.Fatalf("Set: %v", err)
	}

	b, _ := os.ReadFile(path)
	var got struct {
		Result []map[string]any `json:"result"`
	}
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	first, second := got.Result[0], got.Result[1]
	for _, k := range []string{"reservationId", "channelId"} {
		if _, ok := first[k]; !ok {
			t.Fatalf("field %s of record 1 lost: %s", k, b)
		}
	}
	if _, ok := first["rating"]; ok {
		t.Fatalf("rating added to record 1: %s", b)
	}
	if _, ok := first["approved"]; ok {
		t.Fatalf("approved added to an untoggled record: %s", b)
	}
	if second["approved"] != true || second["reservationId"] == nil {
		t.Fatalf("record 2 not patched in place: %s", b)
	}
	if cats, ok := second["reviewCategory"].([]any); !ok || len(cats) != 0 {
		t.Fatalf("empty reviewCategory not kept: %s", b)
	}
}

func TestModeration_ToggleLiveOnlyReviewUpserts(t *testing.T) {
	store := filestore.NewMemory(domain.Snapshot{Result: rawBatch()})
	live := domain.RawChannelReview{ID: 500, ListingName: "New", SubmittedAt: "2024-05-05 05:05:05"}
	mod := app.NewModerationService(store, &fakeChannel{reviews: []domain.RawChannelReview{live}})
	ctx := context.Background()

	ok, err := mod.Set(ctx, 500, true)
	if err != nil || !ok {
		t.Fatalf("Set: ok=%v err=%v", ok, err)
	}
	if v, _ := mod.Get(ctx, 500); !v {
		t.Fatalf("live review not approved after toggle")
	}
	snap, _ := store.Load(ctx)
	if n := len(snap.Result); n != len(rawBatch())+1 {
		t.Fatalf("expected one record appended, got %d", n)
	}
}

func TestModeration_UnknownEverywhereWithChannel(t *testing.T) {
	store := filestore.NewMemory(domain.Snapshot{Result: rawBatch()})
	for _, ch := range []*fakeChannel{{reviews: rawBatch()}, {err: domain.ErrUnavailable}} {
		ok, err := app.NewModerationService(store, ch).Set(context.Background(), 999999, true)
		if err != nil || !ok {
			t.Fatalf("unknown id should report success, got ok=%v err=%v", ok, err)
		}
	}
	snap, _ := store.Load(context.Background())
	if len(snap.Result) != len(rawBatch()) {
		t.Fatalf("unknown id changed the snapshot")
	}
}

type flagStore struct {
	*filestore.Memory
	flags map[int64]bool
	reads int
}

func (f *flagStore) Approved(ctx context.Context, id int64) (bool, error) {
	f.reads++
	v, ok := f.flags[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	return v, nil
}

func TestModeration_GetUsesDirectFlagRead(t *testing.T) {
	fs := &flagStore{Memory: filestore.NewMemory(domain.Snapshot{}), flags: map[int64]bool{7: true}}
	mod := app.NewModerationService(fs, nil)
	ctx := context.Background()

	if v, err := mod.Get(ctx, 7); err != nil || !v {
		t.Fatalf("Get(7) = %v, %v", v, err)
	}
	if v, err := mod.Get(ctx, 8); err != nil || v {
		t.Fatalf("Get(8) = %v, %v; unknown ids read as not approved", v, err)
	}
	if fs.reads != 2 {
		t.Fatalf("expected 2 direct reads, got %d", fs.reads)
	}
}
