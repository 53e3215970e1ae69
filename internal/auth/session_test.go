package auth

import (
	"errors"
	"testing"
	"time"
)

func TestIssueAndParse(t *testing.T) {
	s := NewSessions("secret", time.Hour)
	tok, err := s.Issue(42, "ana@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	id, claims, err := s.Parse(tok)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if id != 42 || claims.Email != "ana@example.com" || claims.ID == "" {
		t.Errorf("id=%d claims=%+v", id, claims)
	}

	other, _ := s.Issue(42, "ana@example.com")
	if other == tok {
		t.Error("tokens should carry distinct ids")
	}
}

func TestParseRejects(t *testing.T) {
	s := NewSessions("secret", time.Hour)
	tok, _ := s.Issue(1, "a@example.com")

	if _, _, err := NewSessions("other", time.Hour).Parse(tok); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("wrong secret err = %v", err)
	}
	if _, _, err := s.Parse("not-a-token"); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("garbage err = %v", err)
	}

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, _, err := s.Parse(tok); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("expired err = %v", err)
	}
}
