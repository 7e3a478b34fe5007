package workers

import (
	"context"
	"testing"
	"time"

	"rmas/contexts/membership/document-service/adapters/memory"
	"rmas/contexts/membership/document-service/domain/entities"
)

func TestOtpSweeperRemovesOnlyDeadRows(t *testing.T) {
	store := memory.NewStore(nil)
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	store.SetNow(base)

	tokenExpiry := base.Add(30 * time.Minute)
	rows := []entities.DownloadOtp{
		{OtpID: "otp-dead", Email: "a@example.com", Code: "111111", ExpiresAt: base.Add(-time.Minute), CreatedAt: base.Add(-11 * time.Minute)},
		{OtpID: "otp-live", Email: "b@example.com", Code: "222222", ExpiresAt: base.Add(5 * time.Minute), CreatedAt: base},
		{OtpID: "otp-tokened", Email: "c@example.com", Code: "333333", Verified: true, Token: "tok-1", TokenExpiresAt: &tokenExpiry, ExpiresAt: base.Add(-time.Minute), CreatedAt: base.Add(-20 * time.Minute)},
	}
	for _, row := range rows {
		if err := store.CreateOtp(context.Background(), row); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	sweeper := OtpSweeper{Otps: store, Clock: store}
	if err := sweeper.RunOnce(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	// The expired unverified row is gone; the live code and the row with a
	// still-valid token survive.
	if _, found, _ := store.GetByToken(context.Background(), "tok-1"); !found {
		t.Fatalf("tokened row must survive while its token is valid")
	}
	if _, found, _ := store.LatestLiveOtp(context.Background(), "b@example.com", "222222", store.Now().UTC()); !found {
		t.Fatalf("live code must survive the sweep")
	}
	if _, found, _ := store.LatestLiveOtp(context.Background(), "a@example.com", "111111", base.Add(-2*time.Minute)); found {
		t.Fatalf("expired row should have been removed")
	}

	// Once the token window closes, a second sweep reclaims the row.
	store.SetNow(tokenExpiry.Add(time.Minute))
	if err := sweeper.RunOnce(context.Background()); err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if _, found, _ := store.GetByToken(context.Background(), "tok-1"); found {
		t.Fatalf("tokened row should be reclaimed after token expiry")
	}
}
