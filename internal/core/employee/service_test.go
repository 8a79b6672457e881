package employee

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

type stubClock struct {
	now time.Time
}

func (s *stubClock) Now() time.Time {
	return s.now
}

type fakeSlot struct {
	data     []byte
	readErr  error
	writeErr error
	writes   int
}

func (f *fakeSlot) Read(context.Context) ([]byte, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	if f.data == nil {
		return nil, ErrSlotEmpty
	}
	return append([]byte(nil), f.data...), nil
}

func (f *fakeSlot) Write(_ context.Context, data []byte) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes++
	f.data = append([]byte(nil), data...)
	return nil
}

func (f *fakeSlot) decode(t *testing.T) []Employee {
	t.Helper()
	var emps []Employee
	if err := json.Unmarshal(f.data, &emps); err != nil {
		t.Fatalf("slot holds invalid json: %v", err)
	}
	return emps
}

func sampleFields(name string) Fields {
	return Fields{
		Name:           name,
		Department:     "開発部",
		Position:       "エンジニア",
		Email:          "dev@example.com",
		Phone:          "090-0000-0000",
		EmploymentType: EmploymentFullTime,
		HireDate:       "2024-04-01",
		Status:         StatusActive,
		AccessRole:     AccessStandard,
	}
}

func newLoadedStore(t *testing.T, slot *fakeSlot, emps []Employee) *Store {
	t.Helper()
	if emps != nil {
		data, err := json.Marshal(emps)
		if err != nil {
			t.Fatalf("marshal fixture: %v", err)
		}
		slot.data = data
	}
	store := NewStore(slot)
	store.Load(context.Background())
	return store
}

func TestStore_Load_EmptySlotUsesSeed(t *testing.T) {
	t.Parallel()

	store := NewStore(&fakeSlot{})
	got := store.Load(context.Background())

	if len(got) != len(SeedEmployees()) {
		t.Fatalf("expected %d seed employees, got %d", len(SeedEmployees()), len(got))
	}
	if got[0].ID != "1" || got[0].Name != "田中 太郎" {
		t.Fatalf("unexpected first seed employee: %+v", got[0])
	}
}

func TestStore_Load_CorruptSlotFallsBack(t *testing.T) {
	t.Parallel()

	cases := map[string][]byte{
		"not json":     []byte("{broken"),
		"wrong shape":  []byte(`{"id":"1"}`),
		"null":         []byte(`null`),
		"duplicate id": []byte(`[{"id":"a","employmentType":"full_time","status":"active","accessRole":"standard"},{"id":"a","employmentType":"full_time","status":"active","accessRole":"standard"}]`),
		"unknown enum": []byte(`[{"id":"a","employmentType":"intern","status":"active","accessRole":"standard"}]`),
	}

	for name, raw := range cases {
		raw := raw
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			store := NewStore(&fakeSlot{data: raw})
			got := store.Load(context.Background())
			if len(got) != len(SeedEmployees()) {
				t.Fatalf("expected seed fallback, got %d employees", len(got))
			}
		})
	}
}

func TestStore_Load_ReadErrorFallsBack(t *testing.T) {
	t.Parallel()

	store := NewStore(&fakeSlot{readErr: errors.New("disk gone")})
	if got := store.Load(context.Background()); len(got) != len(SeedEmployees()) {
		t.Fatalf("expected seed fallback, got %d employees", len(got))
	}
}

func TestStore_Load_StoredCollection(t *testing.T) {
	t.Parallel()

	stored := []Employee{{ID: "x", Fields: sampleFields("A")}, {ID: "y", Fields: sampleFields("B")}}
	store := newLoadedStore(t, &fakeSlot{}, stored)

	got := store.Snapshot()
	if len(got) != 2 || got[0].ID != "x" || got[1].ID != "y" {
		t.Fatalf("expected stored order preserved, got %+v", got)
	}
}

func TestStore_Create_AssignsIDAndPersists(t *testing.T) {
	t.Parallel()

	slot := &fakeSlot{}
	store := newLoadedStore(t, slot, []Employee{})

	created, err := store.Create(context.Background(), sampleFields("新人"))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}

	persisted := slot.decode(t)
	if len(persisted) != 1 || persisted[0] != created {
		t.Fatalf("slot not synchronized: %+v", persisted)
	}
	if snap := store.Snapshot(); len(snap) != 1 || snap[0] != created {
		t.Fatalf("snapshot not updated: %+v", snap)
	}
}

func TestStore_Create_UniqueIDsInRapidSuccession(t *testing.T) {
	t.Parallel()

	frozen := &stubClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	gen := NewIDGenerator(frozen)
	gen.random = func() string { return "same" }

	store := NewStore(&fakeSlot{}, WithIDGenerator(gen))
	store.Load(context.Background())

	seen := make(map[string]struct{})
	for _, e := range store.Snapshot() {
		seen[e.ID] = struct{}{}
	}
	for i := 0; i < 200; i++ {
		created, err := store.Create(context.Background(), sampleFields(fmt.Sprintf("user-%d", i)))
		if err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
		if _, dup := seen[created.ID]; dup {
			t.Fatalf("duplicate id generated: %s", created.ID)
		}
		seen[created.ID] = struct{}{}
	}
}

type collidingIDs struct {
	ids []string
}

func (c *collidingIDs) NewID(exists func(string) bool) string {
	for len(c.ids) > 0 {
		id := c.ids[0]
		c.ids = c.ids[1:]
		if !exists(id) {
			return id
		}
	}
	return "fallback"
}

func TestStore_Create_SkipsTakenIDs(t *testing.T) {
	t.Parallel()

	store := NewStore(&fakeSlot{}, WithIDGenerator(&collidingIDs{ids: []string{"1", "2", "fresh"}}))
	store.Load(context.Background())

	created, err := store.Create(context.Background(), sampleFields("X"))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.ID != "fresh" {
		t.Fatalf("expected id to skip taken values, got %s", created.ID)
	}
}

func TestStore_Create_WriteFailureKeepsMutation(t *testing.T) {
	t.Parallel()

	slot := &fakeSlot{}
	store := newLoadedStore(t, slot, []Employee{})
	slot.writeErr = ErrQuotaExceeded

	created, err := store.Create(context.Background(), sampleFields("X"))
	if !errors.Is(err, ErrPersistFailed) {
		t.Fatalf("expected ErrPersistFailed, got %v", err)
	}
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected cause to be preserved, got %v", err)
	}
	var perr *PersistError
	if !errors.As(err, &perr) || perr.Op != "create" {
		t.Fatalf("expected PersistError for create, got %v", err)
	}

	if got, ok := store.Get(created.ID); !ok || got.Name != "X" {
		t.Fatalf("expected in-memory create to survive write failure")
	}
}

func TestStore_Update_ReplacesFieldsKeepsID(t *testing.T) {
	t.Parallel()

	slot := &fakeSlot{}
	store := newLoadedStore(t, slot, []Employee{{ID: "a", Fields: sampleFields("A")}, {ID: "b", Fields: sampleFields("B")}})

	next := sampleFields("A2")
	next.Status = StatusSeparated
	ok, err := store.Update(context.Background(), "a", next)
	if err != nil || !ok {
		t.Fatalf("Update returned ok=%t err=%v", ok, err)
	}

	got, _ := store.Get("a")
	if got.ID != "a" || got.Name != "A2" || got.Status != StatusSeparated {
		t.Fatalf("unexpected updated employee: %+v", got)
	}
	if snap := store.Snapshot(); snap[0].ID != "a" || snap[1].ID != "b" {
		t.Fatalf("update must not reorder: %+v", snap)
	}
	if persisted := slot.decode(t); persisted[0].Name != "A2" {
		t.Fatalf("update not persisted: %+v", persisted)
	}
}

func TestStore_Patch_MergesFields(t *testing.T) {
	t.Parallel()

	store := newLoadedStore(t, &fakeSlot{}, []Employee{{ID: "a", Fields: sampleFields("A")}})

	position := "マネージャー"
	role := AccessAdmin
	ok, err := store.Patch(context.Background(), "a", Patch{Position: &position, AccessRole: &role})
	if err != nil || !ok {
		t.Fatalf("Patch returned ok=%t err=%v", ok, err)
	}

	got, _ := store.Get("a")
	if got.Position != "マネージャー" || got.AccessRole != AccessAdmin {
		t.Fatalf("patch not applied: %+v", got)
	}
	if got.Name != "A" || got.Email != "dev@example.com" {
		t.Fatalf("patch touched unrelated fields: %+v", got)
	}
}

func TestStore_UnknownIDIsNoop(t *testing.T) {
	t.Parallel()

	slot := &fakeSlot{}
	store := newLoadedStore(t, slot, []Employee{{ID: "a", Fields: sampleFields("A")}})
	before := store.Snapshot()

	if ok, err := store.Delete(context.Background(), "nonexistent"); ok || err != nil {
		t.Fatalf("Delete unknown returned ok=%t err=%v", ok, err)
	}
	if ok, err := store.Update(context.Background(), "nonexistent", sampleFields("Z")); ok || err != nil {
		t.Fatalf("Update unknown returned ok=%t err=%v", ok, err)
	}
	name := "Z"
	if ok, err := store.Patch(context.Background(), "nonexistent", Patch{Name: &name}); ok || err != nil {
		t.Fatalf("Patch unknown returned ok=%t err=%v", ok, err)
	}

	after := store.Snapshot()
	if len(after) != len(before) || after[0] != before[0] {
		t.Fatalf("collection changed: %+v", after)
	}
	if slot.writes != 0 {
		t.Fatalf("no-op must not write the slot, got %d writes", slot.writes)
	}
}

func TestStore_Delete_RemovesAndReindexes(t *testing.T) {
	t.Parallel()

	slot := &fakeSlot{}
	store := newLoadedStore(t, slot, []Employee{
		{ID: "a", Fields: sampleFields("A")},
		{ID: "b", Fields: sampleFields("B")},
		{ID: "c", Fields: sampleFields("C")},
	})

	if ok, err := store.Delete(context.Background(), "b"); !ok || err != nil {
		t.Fatalf("Delete returned ok=%t err=%v", ok, err)
	}
	if _, ok := store.Get("b"); ok {
		t.Fatal("deleted employee still present")
	}
	if got, ok := store.Get("c"); !ok || got.Name != "C" {
		t.Fatalf("index not rebuilt after delete: %+v", got)
	}
	if persisted := slot.decode(t); len(persisted) != 2 {
		t.Fatalf("delete not persisted: %+v", persisted)
	}
}

func TestStore_ReplaceAll(t *testing.T) {
	t.Parallel()

	slot := &fakeSlot{}
	store := newLoadedStore(t, slot, nil)

	replacement := []Employee{{ID: "z", Fields: sampleFields("Z")}}
	if err := store.ReplaceAll(context.Background(), replacement); err != nil {
		t.Fatalf("ReplaceAll returned error: %v", err)
	}
	replacement[0].Name = "mutated by caller"

	snap := store.Snapshot()
	if len(snap) != 1 || snap[0].Name != "Z" {
		t.Fatalf("unexpected snapshot after replace: %+v", snap)
	}
	if persisted := slot.decode(t); len(persisted) != 1 || persisted[0].ID != "z" {
		t.Fatalf("replace not persisted: %+v", persisted)
	}
}

func TestStore_ReplaceAll_RejectsDuplicateIDs(t *testing.T) {
	t.Parallel()

	store := newLoadedStore(t, &fakeSlot{}, nil)
	before := store.Snapshot()

	err := store.ReplaceAll(context.Background(), []Employee{
		{ID: "d", Fields: sampleFields("A")},
		{ID: "d", Fields: sampleFields("B")},
	})
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if len(store.Snapshot()) != len(before) {
		t.Fatal("rejected replace must not mutate the store")
	}
}

func TestStore_Subscribe(t *testing.T) {
	t.Parallel()

	store := newLoadedStore(t, &fakeSlot{}, []Employee{})

	var got [][]Employee
	cancel := store.Subscribe(func(snap []Employee) {
		got = append(got, snap)
	})

	if _, err := store.Create(context.Background(), sampleFields("A")); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	cancel()
	if _, err := store.Create(context.Background(), sampleFields("B")); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(got))
	}
	if len(got[0]) != 1 || got[0][0].Name != "A" {
		t.Fatalf("unexpected notified snapshot: %+v", got[0])
	}
}

func TestStore_SubscribersInRegistrationOrder(t *testing.T) {
	t.Parallel()

	store := newLoadedStore(t, &fakeSlot{}, []Employee{})

	var order []string
	for _, name := range []string{"first", "second", "third", "fourth"} {
		name := name
		store.Subscribe(func([]Employee) { order = append(order, name) })
	}
	cancel := store.Subscribe(func([]Employee) { order = append(order, "cancelled") })
	cancel()

	if _, err := store.Create(context.Background(), sampleFields("A")); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	want := []string{"first", "second", "third", "fourth"}
	if fmt.Sprint(order) != fmt.Sprint(want) {
		t.Fatalf("want notification order %v, got %v", want, order)
	}
}

func TestStore_ConcurrentNotificationsFollowMutationOrder(t *testing.T) {
	t.Parallel()

	store := newLoadedStore(t, &fakeSlot{}, []Employee{})

	var sizes []int
	store.Subscribe(func(snap []Employee) { sizes = append(sizes, len(snap)) })

	const writers = 32
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := store.Create(context.Background(), sampleFields(fmt.Sprintf("E%d", i))); err != nil {
				t.Errorf("Create returned error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if len(sizes) != writers {
		t.Fatalf("expected %d notifications, got %d", writers, len(sizes))
	}
	for i, n := range sizes {
		if n != i+1 {
			t.Fatalf("notification %d carried %d employees, want %d (sizes %v)", i, n, i+1, sizes)
		}
	}
}

func TestStore_SnapshotIsCopy(t *testing.T) {
	t.Parallel()

	store := newLoadedStore(t, &fakeSlot{}, []Employee{{ID: "a", Fields: sampleFields("A")}})
	snap := store.Snapshot()
	snap[0].Name = "changed"

	if got, _ := store.Get("a"); got.Name != "A" {
		t.Fatalf("snapshot aliases store state: %+v", got)
	}
}
