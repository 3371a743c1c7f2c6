package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/dm3k/dm3k/pkg/document"
	"github.com/dm3k/dm3k/pkg/model"
)

func sampleDoc() document.Document {
	return document.Document{
		ResourceClasses: []document.ResourceClass{
			{ClassName: "Backpack", Budgets: []string{"space"}, CanBeAllocatedToClasses: []string{"Item"}},
		},
		ActivityClasses: []document.ActivityClass{
			{ClassName: "Item", Rewards: []string{"utility"}, Costs: []string{"space"}, AllocatedWhen: map[string]any{}},
		},
		ResourceInstances: []document.ResourceInstances{{
			ClassName:     "Backpack",
			InstanceTable: []document.ResourceRow{{InstanceName: "small", Budget: map[string]float64{"space": 3.5}}},
		}},
		AllocationInstances: []document.AllocationInstances{{
			ResourceClassName: "Backpack",
			ActivityClassName: "Item",
			InstanceTable: []document.AllocationRow{
				{ResourceInstanceName: model.All, ActivityInstanceName: model.Specific("book")},
			},
		}},
	}
}

// tick makes now advance one second per call.
func tick(t *testing.T) {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	old := now
	now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	t.Cleanup(func() { now = old })
}

// exercise runs the behaviour every backend shares.
func exercise(t *testing.T, s Store) {
	t.Helper()
	tick(t)
	ctx := context.Background()

	id, err := s.Put(ctx, Record{Name: "backpack", Document: sampleDoc()})
	if err != nil {
		t.Fatal(err)
	}
	if err := ValidateID(id); err != nil {
		t.Fatalf("Put() id: %v", err)
	}

	rec, err := s.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Name != "backpack" || rec.ID != id {
		t.Errorf("Get() = %s %q", rec.ID, rec.Name)
	}
	want, _ := json.Marshal(sampleDoc())
	got, _ := json.Marshal(rec.Document)
	if string(got) != string(want) {
		t.Errorf("document changed in storage:\n got %s\nwant %s", got, want)
	}
	created := rec.CreatedAt

	// Replacing keeps the creation time.
	if _, err := s.Put(ctx, Record{ID: id, Name: "renamed", Document: sampleDoc()}); err != nil {
		t.Fatal(err)
	}
	rec, err = s.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Name != "renamed" {
		t.Errorf("Name = %q after replace, want renamed", rec.Name)
	}
	if !rec.CreatedAt.Equal(created) || !rec.UpdatedAt.After(created) {
		t.Errorf("timestamps after replace: created %v updated %v, original %v", rec.CreatedAt, rec.UpdatedAt, created)
	}

	id2, err := s.Put(ctx, Record{Name: "second", Document: sampleDoc()})
	if err != nil {
		t.Fatal(err)
	}
	list, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != id2 || list[1].ID != id {
		t.Errorf("List() = %+v, want %s then %s", list, id2, id)
	}

	if err := s.Delete(ctx, id); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after Delete error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
	if _, err := s.Put(ctx, Record{ID: "not-a-uuid"}); !errors.Is(err, ErrInvalidID) {
		t.Errorf("Put() with bad id error = %v, want ErrInvalidID", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exercise(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	exercise(t, s)
}

func TestFileStoreRejectsBadIDs(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	// IDs become file names, so anything but a UUID is refused.
	for _, id := range []string{"../escape", ""} {
		if _, err := s.Get(context.Background(), id); !errors.Is(err, ErrInvalidID) {
			t.Errorf("Get(%q) error = %v, want ErrInvalidID", id, err)
		}
	}
}

func TestFileStoreListEmpty(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	list, err := s.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("List() = %#v, want empty non-nil slice", list)
	}
}

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { s.Close() })
	return mr, s
}

func TestRedisStore(t *testing.T) {
	_, s := newMiniredis(t)
	exercise(t, s)
}

func TestRedisStoreKeys(t *testing.T) {
	mr, s := newMiniredis(t)
	id, err := s.Put(context.Background(), Record{Name: "backpack", Document: sampleDoc()})
	if err != nil {
		t.Fatal(err)
	}
	if !mr.Exists(DefaultRedisPrefix + id) {
		t.Error("record was not written under the prefix")
	}
	members, err := mr.ZMembers(DefaultRedisPrefix + "index")
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 1 || members[0] != id {
		t.Errorf("index = %v, want [%s]", members, id)
	}
}

func TestNewRedisStoreUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := NewRedisStore(context.Background(), addr); !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

func TestDocumentBSONRoundTrip(t *testing.T) {
	doc, err := documentToBSON(sampleDoc())
	if err != nil {
		t.Fatal(err)
	}
	if doc[0].Key != "resourceClasses" {
		t.Errorf("first key = %q, want resourceClasses", doc[0].Key)
	}

	back, err := documentFromBSON(doc)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := json.Marshal(sampleDoc())
	got, _ := json.Marshal(back)
	if string(got) != string(want) {
		t.Errorf("round trip changed the document:\n got %s\nwant %s", got, want)
	}
}

func TestValidateID(t *testing.T) {
	if err := ValidateID(NewID()); err != nil {
		t.Errorf("NewID() is not valid: %v", err)
	}
	if err := ValidateID("backpack"); !errors.Is(err, ErrInvalidID) {
		t.Errorf("ValidateID(backpack) = %v, want ErrInvalidID", err)
	}
}
