package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"field-trip-backend/internal/config"
	"field-trip-backend/internal/models"
	"field-trip-backend/internal/notify"
	"field-trip-backend/internal/ratelimit"
	"field-trip-backend/internal/testutil"
)

type accessFixture struct {
	store    *testutil.Store
	notifier *testutil.Notifier
	events   *recordingPublisher
	sessions *SessionIssuer
	svc      *AccessService
}

func newAccessFixture(cfg AccessConfig, limits AccessLimits) *accessFixture {
	f := &accessFixture{
		store:    testutil.NewStore(),
		notifier: &testutil.Notifier{},
		events:   &recordingPublisher{},
		sessions: NewSessionIssuer("test-secret", 24*time.Hour, time.Hour),
	}
	f.sessions.now = func() time.Time { return testNow }
	if cfg.PublicURL == "" {
		cfg.PublicURL = "https://trips.example.org/"
	}
	f.svc = NewAccessService(f.store.Volunteers(), f.store.Tokens(), f.notifier, f.sessions, limits, f.events, cfg)
	f.svc.now = func() time.Time { return testNow }
	return f
}

func TestIssue_Success(t *testing.T) {
	f := newAccessFixture(AccessConfig{}, AccessLimits{})
	f.store.AddVolunteer("Jane", "5551234567", "jane@example.com", models.VolunteerEnabled)

	res, err := f.svc.Issue(context.Background(), "(555) 123-4567", "203.0.113.1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if !res.Success || res.Token != "" || res.Message != "Access link sent to your email" {
		t.Errorf("unexpected result %+v", res)
	}

	msg, ok := f.notifier.Last()
	if !ok {
		t.Fatal("expected a notification")
	}
	if msg.To != "jane@example.com" || msg.VolunteerName != "Jane" {
		t.Errorf("unexpected message %+v", msg)
	}
	if len(msg.Token) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(msg.Token))
	}
	if msg.Link != "https://trips.example.org/access/"+msg.Token {
		t.Errorf("unexpected link %q", msg.Link)
	}

	stored, ok := f.store.Token(msg.Token)
	if !ok {
		t.Fatal("token not stored")
	}
	if !stored.ExpiresAt.Equal(testNow.Add(24*time.Hour)) || stored.Used {
		t.Errorf("unexpected stored token %+v", stored)
	}
}

func TestIssue_TokensAreUnique(t *testing.T) {
	f := newAccessFixture(AccessConfig{}, AccessLimits{})
	f.store.AddVolunteer("Jane", "5551234567", "jane@example.com", models.VolunteerEnabled)

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		if _, err := f.svc.Issue(context.Background(), "5551234567", "ip"); err != nil {
			t.Fatalf("Issue failed: %v", err)
		}
		msg, _ := f.notifier.Last()
		if seen[msg.Token] {
			t.Fatalf("duplicate token %s", msg.Token)
		}
		seen[msg.Token] = true
	}
	if f.store.TokenCount() != 20 {
		t.Errorf("earlier tokens should not be revoked, have %d", f.store.TokenCount())
	}
}

func TestIssue_UnknownAndDisabledLookTheSame(t *testing.T) {
	f := newAccessFixture(AccessConfig{}, AccessLimits{})
	f.store.AddVolunteer("Off", "5550000000", "off@example.com", models.VolunteerDisabled)

	_, errUnknown := f.svc.Issue(context.Background(), "5559999999", "ip")
	_, errDisabled := f.svc.Issue(context.Background(), "5550000000", "ip")

	assertKind(t, errUnknown, ErrNotAuthorized)
	assertKind(t, errDisabled, ErrNotAuthorized)
	if errUnknown.Error() != errDisabled.Error() {
		t.Errorf("responses differ: %q vs %q", errUnknown, errDisabled)
	}
	assertMessage(t, errUnknown, "Volunteer not found or not authorized")
	if f.store.TokenCount() != 0 {
		t.Error("no token should be stored")
	}
}

func TestIssue_InvalidPhone(t *testing.T) {
	f := newAccessFixture(AccessConfig{}, AccessLimits{})
	for _, phone := range []string{"", "123", "55512345678"} {
		_, err := f.svc.Issue(context.Background(), phone, "ip")
		assertKind(t, err, ErrInvalidInput)
	}
}

func TestIssue_NotifyFailure(t *testing.T) {
	t.Run("token kept, upstream error", func(t *testing.T) {
		f := newAccessFixture(AccessConfig{}, AccessLimits{})
		f.store.AddVolunteer("Jane", "5551234567", "jane@example.com", models.VolunteerEnabled)
		f.notifier.Err = errors.New("smtp down")

		_, err := f.svc.Issue(context.Background(), "5551234567", "ip")
		assertKind(t, err, ErrUpstream)
		assertMessage(t, err, "Could not deliver access link")

		msg, _ := f.notifier.Last()
		if _, ok := f.store.Token(msg.Token); !ok {
			t.Error("token should still be stored")
		}
	})

	t.Run("exposed when enabled", func(t *testing.T) {
		f := newAccessFixture(AccessConfig{ExposeTokenOnNotifyFailure: true}, AccessLimits{})
		f.store.AddVolunteer("Jane", "5551234567", "", models.VolunteerEnabled)
		f.notifier.Err = errors.New("no destination")

		res, err := f.svc.Issue(context.Background(), "5551234567", "ip")
		if err != nil {
			t.Fatalf("Issue failed: %v", err)
		}
		if !res.Success || res.Token == "" || res.Message != "Access granted" {
			t.Errorf("unexpected result %+v", res)
		}

		verified, err := f.svc.Verify(context.Background(), res.Token)
		if err != nil || !verified.Valid {
			t.Fatalf("exposed token should verify: %v", err)
		}
	})
}

func TestIssue_RateLimited(t *testing.T) {
	f := newAccessFixture(AccessConfig{}, AccessLimits{Phone: ratelimit.NewMemory(2, time.Minute)})
	f.store.AddVolunteer("Jane", "5551234567", "jane@example.com", models.VolunteerEnabled)

	for i := 0; i < 2; i++ {
		if _, err := f.svc.Issue(context.Background(), "5551234567", "ip"); err != nil {
			t.Fatalf("request %d failed: %v", i+1, err)
		}
	}
	_, err := f.svc.Issue(context.Background(), "5551234567", "other-ip")
	assertKind(t, err, ErrRateLimited)
}

func TestIssue_SharedAddressDefaults(t *testing.T) {
	f := newAccessFixture(AccessConfig{}, AccessLimits{
		Phone: ratelimit.NewMemory(config.DefaultRateLimitRequests, config.DefaultRateLimitWindow),
		IP:    ratelimit.NewMemory(config.DefaultRateLimitIPRequests, config.DefaultRateLimitWindow),
	})

	for i := 0; i < 12; i++ {
		phone := fmt.Sprintf("555000%04d", i)
		f.store.AddVolunteer(fmt.Sprintf("Volunteer %d", i), phone, "v@example.com", models.VolunteerEnabled)
		if _, err := f.svc.Issue(context.Background(), phone, "203.0.113.7"); err != nil {
			t.Fatalf("volunteer %d behind the shared address was refused: %v", i, err)
		}
	}
}

func TestIssue_AddressLimit(t *testing.T) {
	f := newAccessFixture(AccessConfig{}, AccessLimits{IP: ratelimit.NewMemory(2, time.Minute)})
	for i := 0; i < 3; i++ {
		f.store.AddVolunteer("V", fmt.Sprintf("555111%04d", i), "v@example.com", models.VolunteerEnabled)
	}

	for i := 0; i < 2; i++ {
		if _, err := f.svc.Issue(context.Background(), fmt.Sprintf("555111%04d", i), "ip"); err != nil {
			t.Fatalf("request %d failed: %v", i+1, err)
		}
	}
	_, err := f.svc.Issue(context.Background(), "5551110002", "ip")
	assertKind(t, err, ErrRateLimited)

	if _, err := f.svc.Issue(context.Background(), "5551110002", "other-ip"); err != nil {
		t.Errorf("other address should not be limited: %v", err)
	}
}

func TestIssue_LogNotifierWithoutEmail(t *testing.T) {
	store := testutil.NewStore()
	store.AddVolunteer("Jane", "5551234567", "", models.VolunteerEnabled)
	svc := NewAccessService(store.Volunteers(), store.Tokens(), notify.LogNotifier{}, nil, AccessLimits{}, nil, AccessConfig{})

	res, err := svc.Issue(context.Background(), "5551234567", "ip")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if !res.Success || res.Token != "" {
		t.Errorf("unexpected result %+v", res)
	}
	if store.TokenCount() != 1 {
		t.Errorf("expected 1 token, got %d", store.TokenCount())
	}
}

// disabledLookup returns the volunteer even when disabled, like a row changed after the query
type disabledLookup struct {
	*testutil.VolunteerStore
	v *models.Volunteer
}

func (d disabledLookup) GetEnabledByPhone(context.Context, string) (*models.Volunteer, error) {
	return d.v, nil
}

func TestIssue_RejectsDisabledRecord(t *testing.T) {
	store := testutil.NewStore()
	v := store.AddVolunteer("Off", "5550000000", "off@example.com", models.VolunteerDisabled)
	notifier := &testutil.Notifier{}
	svc := NewAccessService(disabledLookup{store.Volunteers(), v}, store.Tokens(), notifier, nil, AccessLimits{}, nil, AccessConfig{})

	_, err := svc.Issue(context.Background(), "5550000000", "ip")
	assertKind(t, err, ErrNotAuthorized)
	if store.TokenCount() != 0 || len(notifier.Messages) != 0 {
		t.Error("disabled volunteer must not get a token")
	}
}

func TestIssue_StoreFailure(t *testing.T) {
	f := newAccessFixture(AccessConfig{}, AccessLimits{})
	f.store.Err = errors.New("db down")

	_, err := f.svc.Issue(context.Background(), "5551234567", "ip")
	assertKind(t, err, ErrUpstream)
}

func issueToken(t *testing.T, f *accessFixture) string {
	t.Helper()
	if _, err := f.svc.Issue(context.Background(), "5551234567", "ip"); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	msg, _ := f.notifier.Last()
	return msg.Token
}

func TestVerify_ConsumesOnce(t *testing.T) {
	f := newAccessFixture(AccessConfig{}, AccessLimits{})
	v := f.store.AddVolunteer("Jane", "5551234567", "jane@example.com", models.VolunteerEnabled)
	token := issueToken(t, f)

	res, err := f.svc.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !res.Valid || res.Volunteer.ID != v.ID || res.Volunteer.Name != "Jane" || res.Volunteer.Phone != "5551234567" {
		t.Errorf("unexpected result %+v", res)
	}
	if res.SessionToken == "" || res.ExpiresAt == nil || !res.ExpiresAt.Equal(testNow.Add(24*time.Hour)) {
		t.Errorf("expected session credential, got %+v", res)
	}

	id, err := f.sessions.ValidateVolunteer(res.SessionToken)
	if err != nil || id != v.ID {
		t.Errorf("session token does not carry volunteer: %d, %v", id, err)
	}

	stored, _ := f.store.Token(token)
	if !stored.Used || stored.UsedAt == nil {
		t.Errorf("token should be marked used: %+v", stored)
	}

	_, err = f.svc.Verify(context.Background(), token)
	assertKind(t, err, ErrInvalidOrExpiredToken)
}

func TestVerify_Expiry(t *testing.T) {
	f := newAccessFixture(AccessConfig{}, AccessLimits{})
	f.store.AddVolunteer("Jane", "5551234567", "jane@example.com", models.VolunteerEnabled)
	token := issueToken(t, f)

	f.svc.now = func() time.Time { return testNow.Add(24 * time.Hour) }
	_, err := f.svc.Verify(context.Background(), token)
	assertKind(t, err, ErrInvalidOrExpiredToken)

	f.svc.now = func() time.Time { return testNow.Add(24*time.Hour - time.Second) }
	if _, err := f.svc.Verify(context.Background(), token); err != nil {
		t.Errorf("token should be valid one second before expiry: %v", err)
	}
}

func TestVerify_FailuresLookTheSame(t *testing.T) {
	f := newAccessFixture(AccessConfig{}, AccessLimits{})
	f.store.AddVolunteer("Jane", "5551234567", "jane@example.com", models.VolunteerEnabled)
	used := issueToken(t, f)
	if _, err := f.svc.Verify(context.Background(), used); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	expired := issueToken(t, f)
	f.svc.now = func() time.Time { return testNow.Add(48 * time.Hour) }

	var messages []string
	for _, token := range []string{"never-issued", used, expired, ""} {
		_, err := f.svc.Verify(context.Background(), token)
		assertKind(t, err, ErrInvalidOrExpiredToken)
		messages = append(messages, err.Error())
	}
	for _, m := range messages[1:] {
		if m != messages[0] {
			t.Errorf("messages differ: %q", strings.Join(messages, " | "))
		}
	}
}

func TestVerify_Concurrent(t *testing.T) {
	f := newAccessFixture(AccessConfig{}, AccessLimits{})
	f.store.AddVolunteer("Jane", "5551234567", "jane@example.com", models.VolunteerEnabled)
	token := issueToken(t, f)

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Verify(context.Background(), token); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("expected exactly one winner, got %d", wins)
	}
}

func TestVerify_WithoutSessions(t *testing.T) {
	store := testutil.NewStore()
	notifier := &testutil.Notifier{}
	svc := NewAccessService(store.Volunteers(), store.Tokens(), notifier, nil, AccessLimits{}, nil, AccessConfig{})
	store.AddVolunteer("Jane", "5551234567", "jane@example.com", models.VolunteerEnabled)

	if _, err := svc.Issue(context.Background(), "5551234567", "ip"); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	msg, _ := notifier.Last()

	res, err := svc.Verify(context.Background(), msg.Token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if res.SessionToken != "" || res.ExpiresAt != nil {
		t.Errorf("expected no session credential, got %+v", res)
	}
}

func TestAccessEvents(t *testing.T) {
	f := newAccessFixture(AccessConfig{}, AccessLimits{})
	f.store.AddVolunteer("Jane", "5551234567", "jane@example.com", models.VolunteerEnabled)
	token := issueToken(t, f)
	if _, err := f.svc.Verify(context.Background(), token); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	got := strings.Join(f.events.types(), ",")
	if got != EventAccessRequested+","+EventAccessVerified {
		t.Errorf("unexpected events %s", got)
	}
}
