package repositories

import (
	"context"
	"errors"
	"testing"

	"marketBack/internal/models"
)

// Malformed ids never reach the database, so a nil DB is enough here.
func TestMalformedIDsAreNotFound(t *testing.T) {
	ctx := context.Background()
	ads := &AdRepository{}
	comments := &CommentRepository{}

	for _, id := range []string{"foo", "", "123", "road-bike-1a2b"} {
		if _, err := ads.GetAdByID(ctx, id); !errors.Is(err, models.ErrAdNotFound) {
			t.Errorf("GetAdByID(%q): expected ErrAdNotFound, got %v", id, err)
		}
		if _, err := ads.GetOwnerID(ctx, id); !errors.Is(err, models.ErrAdNotFound) {
			t.Errorf("GetOwnerID(%q): expected ErrAdNotFound, got %v", id, err)
		}
		if _, err := comments.Get(ctx, id); !errors.Is(err, models.ErrCommentNotFound) {
			t.Errorf("Get(%q): expected ErrCommentNotFound, got %v", id, err)
		}
	}
}

func TestIsUUID(t *testing.T) {
	if !isUUID("3f2c1d9e-8b7a-4c5d-9e0f-1a2b3c4d5e6f") {
		t.Fatal("expected a well-formed uuid to pass")
	}
	if isUUID("3f2c1d9e") {
		t.Fatal("expected a truncated uuid to fail")
	}
}
