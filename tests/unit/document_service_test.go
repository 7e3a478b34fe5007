package unit

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	documentservice "rmas/contexts/membership/document-service"
	"rmas/contexts/membership/document-service/domain/entities"
	documenterrors "rmas/contexts/membership/document-service/domain/errors"
	"rmas/contexts/membership/document-service/ports"
	httptransport "rmas/contexts/membership/document-service/transport/http"
)

type codeMailer struct {
	mu       sync.Mutex
	Messages []ports.MailMessage
}

func (m *codeMailer) Send(_ context.Context, message ports.MailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, message)
	return nil
}

func (m *codeMailer) lastCode(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Messages) == 0 {
		t.Fatalf("expected a code email")
	}
	body := m.Messages[len(m.Messages)-1].Body
	marker := "code is "
	start := strings.Index(body, marker)
	if start < 0 {
		t.Fatalf("code marker missing in body %q", body)
	}
	return body[start+len(marker) : start+len(marker)+6]
}

type pdfRenderer struct{}

func (pdfRenderer) Render(_ context.Context, kind entities.DocumentKind, member entities.MemberProfile) ([]byte, error) {
	return []byte("%PDF-" + string(kind) + "-" + member.MembershipID), nil
}

func acceptedMember() entities.MemberProfile {
	accepted := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	return entities.MemberProfile{
		ApplicationID: "app-ramesh",
		MembershipID:  "RMAS/BIH/MUZ/2025/001",
		FullName:      "Ramesh Kumar",
		FatherName:    "Mahesh Kumar",
		Email:         "ramesh@example.com",
		Phone:         "9876543210",
		TeamType:      "core",
		RoleName:      "District President",
		Level:         "district",
		State:         "Bihar",
		Division:      "Tirhut",
		District:      "Muzaffarpur",
		AcceptedAt:    accepted,
	}
}

func newDocumentModule(mailer *codeMailer) documentservice.Module {
	module := documentservice.NewInMemoryModule(
		[]entities.MemberProfile{acceptedMember()},
		pdfRenderer{},
		mailer,
		nil,
	)
	module.Store.SetNow(time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC))
	return module
}

func TestDownloadFlowEndToEnd(t *testing.T) {
	mailer := &codeMailer{}
	module := newDocumentModule(mailer)

	resp, err := module.Handler.RequestDownloadHandler(context.Background(), httptransport.RequestDownloadRequest{
		Email: "ramesh@example.com",
		Name:  "Ramesh Kumar",
	})
	if err != nil {
		t.Fatalf("request download failed: %v", err)
	}
	if resp.Message == "" {
		t.Fatalf("expected generic acknowledgement")
	}

	code := mailer.lastCode(t)
	verified, err := module.Handler.VerifyOtpHandler(context.Background(), httptransport.VerifyOtpRequest{
		Email: "ramesh@example.com",
		Otp:   code,
	})
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if verified.Token == "" {
		t.Fatalf("expected download token")
	}

	profile, err := module.Handler.ViewProfileHandler(context.Background(), verified.Token)
	if err != nil {
		t.Fatalf("view profile failed: %v", err)
	}
	if profile.Profile.MembershipID != "RMAS/BIH/MUZ/2025/001" {
		t.Fatalf("unexpected membership id %s", profile.Profile.MembershipID)
	}

	document, err := module.Handler.GenerateDocumentHandler(context.Background(), httptransport.GenerateDocumentRequest{
		Token: verified.Token,
		Type:  "joining",
	})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if document.FileName != "RMAS_BIH_MUZ_2025_001_joining.pdf" {
		t.Fatalf("unexpected file name %s", document.FileName)
	}
	if len(document.Content) == 0 {
		t.Fatalf("expected document bytes")
	}

	// Same token is good for the second document kind within its window.
	idcard, err := module.Handler.GenerateDocumentHandler(context.Background(), httptransport.GenerateDocumentRequest{
		Token: verified.Token,
		Type:  "idcard",
	})
	if err != nil {
		t.Fatalf("idcard generate failed: %v", err)
	}
	if idcard.FileName != "RMAS_BIH_MUZ_2025_001_idcard.pdf" {
		t.Fatalf("unexpected file name %s", idcard.FileName)
	}
}

func TestUnknownEmailGetsGenericRejection(t *testing.T) {
	module := newDocumentModule(&codeMailer{})

	_, err := module.Handler.RequestDownloadHandler(context.Background(), httptransport.RequestDownloadRequest{
		Email: "stranger@example.com",
	})
	if !errors.Is(err, documenterrors.ErrRequestRejected) {
		t.Fatalf("expected generic rejection, got %v", err)
	}
}

func TestOtpExpiresAfterTenMinutes(t *testing.T) {
	mailer := &codeMailer{}
	module := newDocumentModule(mailer)

	if _, err := module.Handler.RequestDownloadHandler(context.Background(), httptransport.RequestDownloadRequest{
		Email: "ramesh@example.com",
	}); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	code := mailer.lastCode(t)

	module.Store.SetNow(time.Date(2025, 5, 1, 10, 11, 0, 0, time.UTC))
	_, err := module.Handler.VerifyOtpHandler(context.Background(), httptransport.VerifyOtpRequest{
		Email: "ramesh@example.com",
		Otp:   code,
	})
	if !errors.Is(err, documenterrors.ErrOtpInvalid) {
		t.Fatalf("expected expired code rejection, got %v", err)
	}
}

func TestOtpIsSingleUse(t *testing.T) {
	mailer := &codeMailer{}
	module := newDocumentModule(mailer)

	if _, err := module.Handler.RequestDownloadHandler(context.Background(), httptransport.RequestDownloadRequest{
		Email: "ramesh@example.com",
	}); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	code := mailer.lastCode(t)

	if _, err := module.Handler.VerifyOtpHandler(context.Background(), httptransport.VerifyOtpRequest{
		Email: "ramesh@example.com",
		Otp:   code,
	}); err != nil {
		t.Fatalf("first verify failed: %v", err)
	}

	_, err := module.Handler.VerifyOtpHandler(context.Background(), httptransport.VerifyOtpRequest{
		Email: "ramesh@example.com",
		Otp:   code,
	})
	if !errors.Is(err, documenterrors.ErrOtpInvalid) {
		t.Fatalf("expected single-use code, got %v", err)
	}
}

func TestRequestThrottleFiveHourly(t *testing.T) {
	mailer := &codeMailer{}
	module := newDocumentModule(mailer)

	for i := 0; i < 5; i++ {
		if _, err := module.Handler.RequestDownloadHandler(context.Background(), httptransport.RequestDownloadRequest{
			Email: "ramesh@example.com",
		}); err != nil {
			t.Fatalf("request %d failed: %v", i+1, err)
		}
	}

	_, err := module.Handler.RequestDownloadHandler(context.Background(), httptransport.RequestDownloadRequest{
		Email: "ramesh@example.com",
	})
	if !errors.Is(err, documenterrors.ErrRequestRejected) {
		t.Fatalf("expected throttle rejection, got %v", err)
	}
}

func TestTokenExpiresAfterFifteenMinutes(t *testing.T) {
	mailer := &codeMailer{}
	module := newDocumentModule(mailer)

	if _, err := module.Handler.RequestDownloadHandler(context.Background(), httptransport.RequestDownloadRequest{
		Email: "ramesh@example.com",
	}); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	code := mailer.lastCode(t)
	verified, err := module.Handler.VerifyOtpHandler(context.Background(), httptransport.VerifyOtpRequest{
		Email: "ramesh@example.com",
		Otp:   code,
	})
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	module.Store.SetNow(time.Date(2025, 5, 1, 10, 16, 0, 0, time.UTC))
	_, err = module.Handler.GenerateDocumentHandler(context.Background(), httptransport.GenerateDocumentRequest{
		Token: verified.Token,
		Type:  "joining",
	})
	if !errors.Is(err, documenterrors.ErrTokenInvalid) {
		t.Fatalf("expected expired token, got %v", err)
	}
}
