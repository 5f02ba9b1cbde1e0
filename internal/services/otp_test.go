package services

import (
	"context"
	"net/http"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestOTP() OTPService {
	return OTPService{Store: NewMemoryOTPStore(), TTL: time.Minute, MaxAttempts: 3}
}

func TestGenerateOTPFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^\d{6}$`)
	for i := 0; i < 100; i++ {
		code, err := GenerateOTP()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if !pattern.MatchString(code) {
			t.Fatalf("bad code %q", code)
		}
	}
}

func TestOTPVerifyConsumesCode(t *testing.T) {
	ctx := context.Background()
	otp := newTestOTP()
	code, err := otp.Issue(ctx, OTPPurposeRegistration, "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := otp.Verify(ctx, OTPPurposeRegistration, "user-1", code); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := otp.Verify(ctx, OTPPurposeRegistration, "user-1", code); err == nil {
		t.Fatalf("code should not verify twice")
	}
}

func TestOTPPurposesAreSeparate(t *testing.T) {
	ctx := context.Background()
	otp := newTestOTP()
	code, _ := otp.Issue(ctx, OTPPurposeEmail, "a@b.c")
	if err := otp.Verify(ctx, OTPPurposePasswordReset, "a@b.c", code); err == nil {
		t.Fatalf("code leaked across purposes")
	}
	if err := otp.Verify(ctx, OTPPurposeEmail, "A@B.C", code); err != nil {
		t.Fatalf("subject should be case-insensitive: %v", err)
	}
}

func TestOTPBurnsAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	otp := newTestOTP()
	code, _ := otp.Issue(ctx, OTPPurposeRegistration, "user-2")
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	for i := 0; i < 2; i++ {
		err := otp.Verify(ctx, OTPPurposeRegistration, "user-2", wrong)
		serr, ok := AsServiceError(err)
		if !ok || serr.Status != http.StatusBadRequest {
			t.Fatalf("attempt %d: expected 400, got %v", i, err)
		}
	}
	err := otp.Verify(ctx, OTPPurposeRegistration, "user-2", wrong)
	if serr, ok := AsServiceError(err); !ok || serr.Status != http.StatusForbidden {
		t.Fatalf("expected 403 after max attempts, got %v", err)
	}
	if err := otp.Verify(ctx, OTPPurposeRegistration, "user-2", code); err == nil {
		t.Fatalf("burned code still verified")
	}
}

func TestOTPExpired(t *testing.T) {
	ctx := context.Background()
	otp := OTPService{Store: NewMemoryOTPStore(), TTL: -time.Second, MaxAttempts: 3}
	code, _ := otp.Issue(ctx, OTPPurposeRegistration, "user-3")
	if err := otp.Verify(ctx, OTPPurposeRegistration, "user-3", code); err == nil {
		t.Fatalf("expired code verified")
	}
}

// slowOTPStore delays each guess like a network round trip and counts the
// guesses that were compared against a live code.
type slowOTPStore struct {
	*MemoryOTPStore
	compared int32
}

func (s *slowOTPStore) Attempt(ctx context.Context, key, digest string, maxAttempts int) (OTPOutcome, error) {
	time.Sleep(2 * time.Millisecond)
	outcome, err := s.MemoryOTPStore.Attempt(ctx, key, digest, maxAttempts)
	if outcome != OTPMissing {
		atomic.AddInt32(&s.compared, 1)
	}
	return outcome, err
}

func TestOTPConcurrentGuessesRespectMaxAttempts(t *testing.T) {
	ctx := context.Background()
	store := &slowOTPStore{MemoryOTPStore: NewMemoryOTPStore()}
	otp := OTPService{Store: store, TTL: time.Minute, MaxAttempts: 5}
	code, err := otp.Issue(ctx, OTPPurposePasswordReset, "a@b.c")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	var burned int32
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := otp.Verify(ctx, OTPPurposePasswordReset, "a@b.c", wrong)
			if serr, ok := AsServiceError(err); ok && serr.Status == http.StatusForbidden {
				atomic.AddInt32(&burned, 1)
			}
		}()
	}
	wg.Wait()

	if n := atomic.LoadInt32(&store.compared); n != 5 {
		t.Fatalf("expected 5 guesses compared against the code, got %d", n)
	}
	if n := atomic.LoadInt32(&burned); n != 1 {
		t.Fatalf("expected exactly one guess to burn the code, got %d", n)
	}
	if err := otp.Verify(ctx, OTPPurposePasswordReset, "a@b.c", code); err == nil {
		t.Fatalf("correct code verified after the attempts ran out")
	}
}

func TestOTPReissueResetsAttempts(t *testing.T) {
	ctx := context.Background()
	otp := newTestOTP()
	first, _ := otp.Issue(ctx, OTPPurposeRegistration, "user-4")
	wrong := "000000"
	if first == wrong {
		wrong = "111111"
	}
	for i := 0; i < 3; i++ {
		_ = otp.Verify(ctx, OTPPurposeRegistration, "user-4", wrong)
	}
	second, err := otp.Issue(ctx, OTPPurposeRegistration, "user-4")
	if err != nil {
		t.Fatalf("reissue: %v", err)
	}
	if err := otp.Verify(ctx, OTPPurposeRegistration, "user-4", second); err != nil {
		t.Fatalf("reissued code rejected: %v", err)
	}
}
