package services

import (
	"context"
	"testing"
	"time"

	"field-trip-backend/internal/models"
	"field-trip-backend/internal/testutil"
)

func newVolunteerService() (*VolunteerService, *testutil.Store, *recordingPublisher) {
	store := testutil.NewStore()
	events := &recordingPublisher{}
	svc := NewVolunteerService(store.Volunteers(), events)
	svc.now = func() time.Time { return testNow }
	return svc, store, events
}

func TestVolunteerCreate(t *testing.T) {
	svc, _, events := newVolunteerService()

	v, err := svc.Create(context.Background(), VolunteerInput{Name: " Jane ", Phone: "555-123-4567", Area: "North"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if v.ID == 0 || v.Name != "Jane" || v.Phone != "5551234567" || v.Status != models.VolunteerEnabled {
		t.Errorf("unexpected volunteer %+v", v)
	}
	if len(events.types()) != 1 || events.types()[0] != EventVolunteerSaved {
		t.Errorf("unexpected events %v", events.types())
	}
}

func TestVolunteerCreate_DuplicatePhone(t *testing.T) {
	svc, _, _ := newVolunteerService()

	if _, err := svc.Create(context.Background(), VolunteerInput{Name: "A", Phone: "5559876543"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	_, err := svc.Create(context.Background(), VolunteerInput{Name: "B", Phone: "(555) 987-6543"})
	assertKind(t, err, ErrConflict)
	assertMessage(t, err, "Phone number already exists")
}

func TestVolunteerCreate_Validation(t *testing.T) {
	svc, _, _ := newVolunteerService()

	for _, in := range []VolunteerInput{
		{Phone: "5551234567"},
		{Name: "Jane"},
		{Name: "Jane", Phone: "12345"},
		{Name: "Jane", Phone: "5551234567", Status: "sleeping"},
	} {
		_, err := svc.Create(context.Background(), in)
		assertKind(t, err, ErrInvalidInput)
	}
}

func TestVolunteerUpdateToggleDelete(t *testing.T) {
	svc, store, _ := newVolunteerService()
	jane := store.AddVolunteer("Jane", "5551234567", "", models.VolunteerEnabled)
	store.AddVolunteer("Bob", "5559876543", "", models.VolunteerEnabled)
	ctx := context.Background()

	updated, err := svc.Update(ctx, jane.ID, VolunteerInput{Name: "Jane D", Phone: "5551234567", Email: "jane@example.com", Status: "off"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Name != "Jane D" || updated.Status != models.VolunteerDisabled || updated.Email != "jane@example.com" {
		t.Errorf("unexpected update %+v", updated)
	}

	_, err = svc.Update(ctx, jane.ID, VolunteerInput{Name: "Jane", Phone: "5559876543"})
	assertKind(t, err, ErrConflict)
	_, err = svc.Update(ctx, 999, VolunteerInput{Name: "X", Phone: "5550000000"})
	assertKind(t, err, ErrNotFound)

	status, err := svc.Toggle(ctx, jane.ID)
	if err != nil || status != models.VolunteerEnabled {
		t.Fatalf("Toggle = %q, %v", status, err)
	}
	status, _ = svc.Toggle(ctx, jane.ID)
	if status != models.VolunteerDisabled {
		t.Errorf("second toggle should disable, got %q", status)
	}
	_, err = svc.Toggle(ctx, 999)
	assertKind(t, err, ErrNotFound)

	if err := svc.Delete(ctx, jane.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	assertKind(t, svc.Delete(ctx, jane.ID), ErrNotFound)

	list, _ := svc.List(ctx)
	if len(list) != 1 || list[0].Name != "Bob" {
		t.Errorf("unexpected list %+v", list)
	}
}

func TestVolunteerUpdate_KeepsStatusWhenOmitted(t *testing.T) {
	svc, store, _ := newVolunteerService()
	v := store.AddVolunteer("Jane", "5551234567", "", models.VolunteerDisabled)

	updated, err := svc.Update(context.Background(), v.ID, VolunteerInput{Name: "Jane D", Phone: "5551234567"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Status != models.VolunteerDisabled {
		t.Errorf("status = %q, want disabled to be kept", updated.Status)
	}

	updated, err = svc.Update(context.Background(), v.ID, VolunteerInput{Name: "Jane D", Phone: "5551234567", Status: "enabled"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Status != models.VolunteerEnabled {
		t.Errorf("explicit status not applied: %q", updated.Status)
	}

	_, err = svc.Update(context.Background(), 999, VolunteerInput{Name: "X", Phone: "5550000000"})
	assertKind(t, err, ErrNotFound)
}
