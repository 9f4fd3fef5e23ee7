package session

import (
	"context"
	"testing"
	"time"

	"github.com/0x6d61/storefront/internal/domain"
)

func TestNewSQLiteStore(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore(:memory:) returned error: %v", err)
	}
	defer store.Close()

	if store.db == nil {
		t.Fatal("NewSQLiteStore(:memory:) db field is nil")
	}
}

func TestSQLiteStore_SaveAndLoad(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	state := &State{
		ID:     "state-1",
		APIURL: "http://shop.test",
		Token:  "tok-1",
		User: &domain.User{
			ID:    "u1",
			Name:  "Ada",
			Email: "ada@example.com",
			Role:  domain.RoleUser,
		},
		GuestID:       "guest-1",
		CustomerEmail: "ada@example.com",
		LastRoute:     "cart",
	}

	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	loaded, err := store.Load(ctx, "http://shop.test")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded == nil {
		t.Fatal("Load returned nil state")
	}

	if loaded.ID != "state-1" {
		t.Errorf("ID = %q, want %q", loaded.ID, "state-1")
	}
	if loaded.Token != "tok-1" {
		t.Errorf("Token = %q, want %q", loaded.Token, "tok-1")
	}
	if loaded.User == nil || loaded.User.Email != "ada@example.com" {
		t.Errorf("User = %+v, want ada@example.com", loaded.User)
	}
	if loaded.GuestID != "guest-1" {
		t.Errorf("GuestID = %q, want %q", loaded.GuestID, "guest-1")
	}
	if loaded.LastRoute != "cart" {
		t.Errorf("LastRoute = %q, want %q", loaded.LastRoute, "cart")
	}
	if loaded.CreatedAt.IsZero() || loaded.UpdatedAt.IsZero() {
		t.Error("timestamps were not populated")
	}

	sess := loaded.Session()
	if sess == nil || sess.Token != "tok-1" || sess.User.Name != "Ada" {
		t.Errorf("Session() = %+v", sess)
	}
}

func TestState_SessionAnonymous(t *testing.T) {
	var nilState *State
	if nilState.Session() != nil {
		t.Error("nil state should have no session")
	}
	if (&State{Token: "tok"}).Session() != nil {
		t.Error("state without user should have no session")
	}
}

func TestSQLiteStore_SaveGeneratesIDs(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	state := &State{APIURL: "http://shop.test"}
	if err := store.Save(context.Background(), state); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	// UUID format: 36 chars with hyphens.
	if len(state.ID) != 36 {
		t.Errorf("generated ID length = %d, want 36", len(state.ID))
	}
	if len(state.GuestID) != 36 {
		t.Errorf("generated GuestID length = %d, want 36", len(state.GuestID))
	}
}

func TestSQLiteStore_SaveUpdate(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	state := &State{APIURL: "http://shop.test", LastRoute: "home"}
	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("Save: %v", err)
	}
	created := state.CreatedAt

	state.LastRoute = "orders"
	state.Token = ""
	state.User = nil
	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("Save (update): %v", err)
	}

	loaded, err := store.LoadByID(ctx, state.ID)
	if err != nil {
		t.Fatalf("LoadByID: %v", err)
	}
	if loaded.LastRoute != "orders" {
		t.Errorf("LastRoute = %q, want %q", loaded.LastRoute, "orders")
	}
	if !loaded.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt changed on update: %v -> %v", created, loaded.CreatedAt)
	}

	summaries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("List returned %d summaries, want 1", len(summaries))
	}
}

func TestSQLiteStore_List(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	for _, u := range []string{"http://a.test", "http://b.test"} {
		st := &State{
			APIURL:    u,
			Token:     "t",
			User:      &domain.User{Email: "x@" + u[7:]},
			LastRoute: "products",
		}
		if err := store.Save(ctx, st); err != nil {
			t.Fatalf("Save %s: %v", u, err)
		}
	}

	summaries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("List returned %d summaries, want 2", len(summaries))
	}
	// Most recent first.
	if summaries[0].APIURL != "http://b.test" {
		t.Errorf("summaries[0].APIURL = %q, want http://b.test", summaries[0].APIURL)
	}
	if summaries[0].UserEmail != "x@b.test" {
		t.Errorf("summaries[0].UserEmail = %q", summaries[0].UserEmail)
	}
	if summaries[0].UpdatedAt.IsZero() {
		t.Error("summary UpdatedAt is zero")
	}
}

func TestSQLiteStore_LoadNotFound(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	loaded, err := store.Load(ctx, "http://missing.test")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded != nil {
		t.Errorf("Load returned %+v, want nil", loaded)
	}
	loaded, err = store.LoadByID(ctx, "missing")
	if err != nil || loaded != nil {
		t.Errorf("LoadByID = (%v, %v), want (nil, nil)", loaded, err)
	}
}

func TestSQLiteStore_Delete(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	state := &State{APIURL: "http://shop.test"}
	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Delete(ctx, state.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	loaded, err := store.LoadByID(ctx, state.ID)
	if err != nil {
		t.Fatalf("LoadByID: %v", err)
	}
	if loaded != nil {
		t.Error("state still exists after Delete")
	}
}

func TestSQLiteStore_Cleanup(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	oldState := &State{ID: "old", APIURL: "http://old.test"}
	if err := store.Save(ctx, oldState); err != nil {
		t.Fatalf("Save old state: %v", err)
	}
	_, err = store.db.ExecContext(ctx,
		"UPDATE client_sessions SET updated_at = ? WHERE id = ?",
		time.Now().Add(-48*time.Hour).UTC().Format(timeLayout),
		"old",
	)
	if err != nil {
		t.Fatalf("backdate state: %v", err)
	}

	newState := &State{ID: "new", APIURL: "http://new.test"}
	if err := store.Save(ctx, newState); err != nil {
		t.Fatalf("Save new state: %v", err)
	}

	deleted, err := store.Cleanup(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Cleanup returned error: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Cleanup deleted %d states, want 1", deleted)
	}

	if loaded, _ := store.LoadByID(ctx, "old"); loaded != nil {
		t.Error("old state still exists after cleanup")
	}
	if loaded, _ := store.LoadByID(ctx, "new"); loaded == nil {
		t.Error("new state was removed by cleanup")
	}
}

func TestSQLiteStore_Close(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
}
