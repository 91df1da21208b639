package models

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Position values stored on an account. The login response exposes
// this as "position" because the dashboard branches its navigation on it.
const (
	PositionSuperadmin = "SUPERADMIN"
	PositionSalesAgent = "SALES_AGENT"
)

// Ban duration selector values. Everything except PERMANENT is a
// whole number of days.
const (
	BanDurationOneDay    = "1"
	BanDurationSevenDays = "7"
	BanDurationThirtyDay = "30"
	BanDurationPermanent = "PERMANENT"
)

// Account is the model for the 'users' table. Ban metadata uses
// pointers so unbanned accounts serialize without the fields.
type Account struct {
	ID           int64  `json:"id" db:"id"`
	Username     string `json:"username" db:"username"`
	FullName     string `json:"full_name" db:"full_name"`
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-" db:"password_hash"`
	Position     string `json:"position" db:"position"`
	IsActivated  bool   `json:"is_activated" db:"is_activated"`

	// --- Ban Metadata ---
	IsBanned    bool       `json:"is_banned" db:"is_banned"`
	BanReason   *string    `json:"ban_reason,omitempty" db:"ban_reason"`
	BanMessage  *string    `json:"ban_message,omitempty" db:"ban_message"`
	BanDuration *string    `json:"ban_duration,omitempty" db:"ban_duration"`
	BanDate     *time.Time `json:"ban_date,omitempty" db:"ban_date"`
	UnbanDate   *time.Time `json:"unban_date,omitempty" db:"unban_date"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// BanExpired reports whether a timed ban has run out as of 'now'.
// Permanent bans (no unban date) never expire.
func (a *Account) BanExpired(now time.Time) bool {
	return a.IsBanned && a.UnbanDate != nil && !now.Before(*a.UnbanDate)
}

// BanWindow computes the ban start and end for a duration selector
// value. Dates are in UTC; PERMANENT yields a nil unban date.
func BanWindow(duration string, now time.Time) (time.Time, *time.Time, error) {
	banDate := now.UTC()

	switch duration {
	case BanDurationPermanent:
		return banDate, nil, nil
	case BanDurationOneDay, BanDurationSevenDays, BanDurationThirtyDay:
		var days int
		fmt.Sscanf(duration, "%d", &days)
		unbanDate := banDate.Add(time.Duration(days) * 24 * time.Hour)
		return banDate, &unbanDate, nil
	default:
		return time.Time{}, nil, fmt.Errorf("invalid ban duration %q", duration)
	}
}

// Password Helper (Standard)
type Password struct {
	Plaintext *string
	Hash      string
}

func (p *Password) Set(plaintextPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintextPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.Hash = string(hash)
	p.Plaintext = &plaintextPassword
	return nil
}

func (p *Password) Matches(plaintextPassword string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(p.Hash), []byte(plaintextPassword))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
