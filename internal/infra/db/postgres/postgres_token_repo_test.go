//go:build integration

package postgres

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"commerce-payload-bridge/internal/domain/model"
	"commerce-payload-bridge/internal/infra/security"
)

func newTestEncryption(t *testing.T) *security.EncryptionService {
	t.Helper()
	enc, err := security.NewEncryptionService(strings.Repeat("k", 32))
	if err != nil {
		t.Fatalf("failed to build encryption service: %v", err)
	}
	return enc
}

func TestTokenRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	enc := newTestEncryption(t)
	repo := NewTokenRepo(testPool, enc)

	newToken := func(userID int64, methodID string) *model.PaymentToken {
		return &model.PaymentToken{
			ID:          ulid.Make().String(),
			UserID:      userID,
			GatewayID:   model.GatewayID,
			MethodID:    methodID,
			CardBrand:   "Visa",
			Last4:       "4242",
			ExpiryMonth: "12",
			ExpiryYear:  "2026",
			CreatedAt:   time.Now(),
		}
	}

	t.Run("should encrypt the method id at rest", func(t *testing.T) {
		cleanup(t)

		token := newToken(7, "pm-secret-1")
		if err := repo.Save(ctx, nil, token); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		var raw string
		err := testPool.QueryRow(ctx, `SELECT method_id FROM payment_tokens WHERE id=$1`, token.ID).Scan(&raw)
		if err != nil {
			t.Fatalf("raw read failed: %v", err)
		}
		if strings.Contains(raw, "pm-secret-1") {
			t.Fatal("method id stored in plaintext")
		}

		found, err := repo.FindByID(ctx, nil, token.ID)
		if err != nil {
			t.Fatalf("FindByID failed: %v", err)
		}
		if found.MethodID != "pm-secret-1" {
			t.Errorf("expected decrypted method id, got %q", found.MethodID)
		}
	})

	t.Run("should list a user's tokens oldest first", func(t *testing.T) {
		cleanup(t)

		first := newToken(7, "pm-1")
		first.CreatedAt = time.Now().Add(-time.Hour)
		second := newToken(7, "pm-2")
		other := newToken(8, "pm-3")
		for _, tok := range []*model.PaymentToken{second, first, other} {
			if err := repo.Save(ctx, nil, tok); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
		}

		got, err := repo.FindByUserAndGateway(ctx, nil, 7, model.GatewayID)
		if err != nil {
			t.Fatalf("FindByUserAndGateway failed: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 tokens for user 7, got %d", len(got))
		}
		if got[0].MethodID != "pm-1" || got[1].MethodID != "pm-2" {
			t.Errorf("expected oldest first, got %q then %q", got[0].MethodID, got[1].MethodID)
		}
	})

	t.Run("should attach tokens to an order in attachment order", func(t *testing.T) {
		cleanup(t)

		first := newToken(7, "pm-1")
		second := newToken(7, "pm-2")
		for _, tok := range []*model.PaymentToken{first, second} {
			if err := repo.Save(ctx, nil, tok); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
		}
		if err := repo.AttachToOrder(ctx, nil, 42, first.ID); err != nil {
			t.Fatalf("AttachToOrder failed: %v", err)
		}
		if err := repo.AttachToOrder(ctx, nil, 42, second.ID); err != nil {
			t.Fatalf("AttachToOrder failed: %v", err)
		}
		// Re-attaching is a no-op.
		if err := repo.AttachToOrder(ctx, nil, 42, first.ID); err != nil {
			t.Fatalf("repeat AttachToOrder failed: %v", err)
		}

		got, err := repo.FindByOrder(ctx, nil, 42)
		if err != nil {
			t.Fatalf("FindByOrder failed: %v", err)
		}
		if len(got) != 2 || got[0].ID != first.ID || got[1].ID != second.ID {
			t.Errorf("unexpected order token list: %+v", got)
		}
	})
}
