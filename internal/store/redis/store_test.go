package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/readbot/internal/domain"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client), mr
}

func TestReadUser_Absent(t *testing.T) {
	s, _ := newTestStore(t)

	rec, err := s.ReadUser(context.Background(), "U404")
	if err != nil {
		t.Fatalf("ReadUser() error = %v", err)
	}
	if rec.UserID != "U404" {
		t.Errorf("UserID = %q, want U404", rec.UserID)
	}
	if len(rec.Services) != 0 {
		t.Errorf("Services = %v, want empty", rec.Services)
	}
}

func TestMergeUser_SiblingServicesSurvive(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := s.MergeUser(ctx, "U1", domain.UserPatch{
		domain.CatalogService: {AccessToken: domain.Value("gr"), AccessTokenSecret: domain.Value("gr-secret")},
	}); err != nil {
		t.Fatalf("first merge: %v", err)
	}

	merged, err := s.MergeUser(ctx, "U1", domain.UserPatch{
		domain.ReadLaterService: {AccessToken: domain.Value("pk"), Username: domain.Value("ursula")},
	})
	if err != nil {
		t.Fatalf("second merge: %v", err)
	}

	for _, rec := range []domain.UserRecord{merged, mustRead(t, s, "U1")} {
		if got := rec.For(domain.CatalogService).AccessTokenSecret; got != "gr-secret" {
			t.Errorf("goodreads secret = %q, want gr-secret", got)
		}
		if got := rec.For(domain.ReadLaterService).Username; got != "ursula" {
			t.Errorf("pocket username = %q, want ursula", got)
		}
		if rec.UpdatedAt.IsZero() {
			t.Error("UpdatedAt not set")
		}
	}
}

func TestMergeUser_FieldLevel(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, _ = s.MergeUser(ctx, "U1", domain.UserPatch{
		domain.CatalogService: {RequestToken: domain.Value("req"), RequestTokenSecret: domain.Value("rs")},
	})
	_, err := s.MergeUser(ctx, "U1", domain.UserPatch{
		domain.CatalogService: {
			RequestToken:       domain.Value(""),
			RequestTokenSecret: domain.Value(""),
			AccessToken:        domain.Value("acc"),
		},
	})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	c := mustRead(t, s, "U1").For(domain.CatalogService)
	if c.RequestToken != "" || c.RequestTokenSecret != "" {
		t.Errorf("request fields not cleared: %+v", c)
	}
	if c.AccessToken != "acc" {
		t.Errorf("AccessToken = %q, want acc", c.AccessToken)
	}
}

func TestMergeUser_EmptiedServiceIsRemoved(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	_, _ = s.MergeUser(ctx, "U1", domain.UserPatch{domain.ReadLaterService: {RequestToken: domain.Value("code")}})
	_, _ = s.MergeUser(ctx, "U1", domain.UserPatch{domain.ReadLaterService: {RequestToken: domain.Value("")}})

	if mr.HGet(UserKey("U1"), string(domain.ReadLaterService)) != "" {
		t.Error("emptied service field should be deleted from the hash")
	}
}

func TestReadUser_CorruptField(t *testing.T) {
	s, mr := newTestStore(t)
	mr.HSet(UserKey("U1"), string(domain.CatalogService), "{not json")

	if _, err := s.ReadUser(context.Background(), "U1"); err == nil {
		t.Fatal("expected error for corrupt credentials")
	}
}

func TestMessages_RoundTripAndOverwrite(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	urls, err := s.GetMessageURLs(ctx, "C1", "1700000000.000100")
	if err != nil {
		t.Fatalf("GetMessageURLs() error = %v", err)
	}
	if urls == nil || len(urls) != 0 {
		t.Errorf("unknown message urls = %#v, want empty slice", urls)
	}

	msg := domain.BookmarkedMessage{
		Channel:   "C1",
		Timestamp: "1700000000.000100",
		User:      "U1",
		URLs:      []string{"https://b.example", "https://a.example"},
	}
	if err := s.SaveMessage(ctx, msg); err != nil {
		t.Fatalf("SaveMessage() error = %v", err)
	}
	msg.URLs = []string{"https://c.example"}
	if err := s.SaveMessage(ctx, msg); err != nil {
		t.Fatalf("SaveMessage() error = %v", err)
	}

	urls, err = s.GetMessageURLs(ctx, "C1", "1700000000.000100")
	if err != nil {
		t.Fatalf("GetMessageURLs() error = %v", err)
	}
	if len(urls) != 1 || urls[0] != "https://c.example" {
		t.Errorf("urls = %v, want last write", urls)
	}

	if ttl := mr.TTL(MessageKey("C1", "1700000000.000100")); ttl != 0 {
		t.Errorf("message TTL = %v, want none", ttl)
	}
}

func TestMarkEvent(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	first, err := s.MarkEvent(ctx, "Ev1", time.Minute)
	if err != nil || !first {
		t.Fatalf("first MarkEvent() = %v, %v; want true, nil", first, err)
	}
	again, err := s.MarkEvent(ctx, "Ev1", time.Minute)
	if err != nil || again {
		t.Fatalf("second MarkEvent() = %v, %v; want false, nil", again, err)
	}

	mr.FastForward(2 * time.Minute)
	afterTTL, _ := s.MarkEvent(ctx, "Ev1", time.Minute)
	if !afterTTL {
		t.Error("event should be accepted again after TTL")
	}
}

func mustRead(t *testing.T, s *Store, userID string) domain.UserRecord {
	t.Helper()
	rec, err := s.ReadUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("ReadUser() error = %v", err)
	}
	return rec
}
