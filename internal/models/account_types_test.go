package models

import (
	"testing"
	"time"
)

func TestPasswordSetAndMatches(t *testing.T) {
	var p Password
	if err := p.Set("correct-horse-battery"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if p.Hash == "" || p.Hash == "correct-horse-battery" {
		t.Fatal("expected a bcrypt hash, got plaintext or empty")
	}

	match, err := p.Matches("correct-horse-battery")
	if err != nil {
		t.Fatalf("Matches: %v", err)
	}
	if !match {
		t.Error("expected password to match")
	}

	match, err = p.Matches("wrong-password")
	if err != nil {
		t.Fatalf("Matches: %v", err)
	}
	if match {
		t.Error("expected wrong password not to match")
	}
}

func TestBanWindowSevenDays(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 30, 0, 0, time.FixedZone("UTC+8", 8*3600))

	banDate, unbanDate, err := BanWindow(BanDurationSevenDays, now)
	if err != nil {
		t.Fatalf("BanWindow: %v", err)
	}
	if banDate.Location() != time.UTC {
		t.Errorf("expected ban date in UTC, got %v", banDate.Location())
	}
	if unbanDate == nil {
		t.Fatal("expected an unban date for a timed ban")
	}
	if got := unbanDate.Sub(banDate); got != 7*24*time.Hour {
		t.Errorf("expected unban date 7 days after ban date, got %v", got)
	}
}

func TestBanWindowPermanent(t *testing.T) {
	_, unbanDate, err := BanWindow(BanDurationPermanent, time.Now())
	if err != nil {
		t.Fatalf("BanWindow: %v", err)
	}
	if unbanDate != nil {
		t.Errorf("expected nil unban date for a permanent ban, got %v", unbanDate)
	}
}

func TestBanWindowInvalidDuration(t *testing.T) {
	if _, _, err := BanWindow("14", time.Now()); err == nil {
		t.Error("expected error for unsupported duration")
	}
}

func TestBanExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	timedExpired := Account{IsBanned: true, UnbanDate: &past}
	if !timedExpired.BanExpired(now) {
		t.Error("expected ban with past unban date to be expired")
	}

	timedActive := Account{IsBanned: true, UnbanDate: &future}
	if timedActive.BanExpired(now) {
		t.Error("expected ban with future unban date not to be expired")
	}

	permanent := Account{IsBanned: true}
	if permanent.BanExpired(now) {
		t.Error("expected permanent ban never to expire")
	}
}
