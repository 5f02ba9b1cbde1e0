package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	OTPPurposeRegistration  = "registration"
	OTPPurposeEmail         = "email"
	OTPPurposePasswordReset = "password-reset"
	otpDigits               = 6
)

var errOTPMissing = errors.New("otp not found")

type OTPEntry struct {
	Digest    string    `json:"digest"`
	Attempts  int       `json:"attempts"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// OTPOutcome is the result of one guess against a pending code.
type OTPOutcome int

const (
	OTPMissing OTPOutcome = iota
	OTPMatched
	OTPWrong
	OTPBurned
)

// OTPStore persists pending one-time codes. Attempt counts the guess and
// compares it in one step, so concurrent guesses each use up an attempt
// before they see the code. A match or the last allowed miss removes it.
type OTPStore interface {
	Set(ctx context.Context, key string, entry OTPEntry, ttl time.Duration) error
	Attempt(ctx context.Context, key, digest string, maxAttempts int) (OTPOutcome, error)
	Delete(ctx context.Context, key string) error
}

type OTPService struct {
	Store       OTPStore
	TTL         time.Duration
	MaxAttempts int
}

func otpKey(purpose, subject string) string {
	return "otp:" + purpose + ":" + strings.ToLower(strings.TrimSpace(subject))
}

func digestOTP(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func sameDigest(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func GenerateOTP() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < otpDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}

// Issue replaces any pending code for (purpose, subject) and returns the new
// plain code for delivery. The attempt count starts over.
func (s OTPService) Issue(ctx context.Context, purpose, subject string) (string, error) {
	code, err := GenerateOTP()
	if err != nil {
		return "", err
	}
	entry := OTPEntry{Digest: digestOTP(code), ExpiresAt: time.Now().UTC().Add(s.TTL)}
	if err := s.Store.Set(ctx, otpKey(purpose, subject), entry, s.TTL); err != nil {
		return "", WrapError(err, "store otp")
	}
	return code, nil
}

// Verify consumes the code on success. Every guess counts towards
// MaxAttempts; the guess that reaches it without matching discards the code.
func (s OTPService) Verify(ctx context.Context, purpose, subject, code string) error {
	outcome, err := s.Store.Attempt(ctx, otpKey(purpose, subject), digestOTP(strings.TrimSpace(code)), s.MaxAttempts)
	if err != nil {
		return WrapError(err, "check otp")
	}
	switch outcome {
	case OTPMatched:
		return nil
	case OTPBurned:
		return ErrForbidden("Too many incorrect attempts, request a new OTP")
	default:
		return ErrBadRequest("Invalid or expired OTP")
	}
}

type MemoryOTPStore struct {
	mu      sync.Mutex
	entries map[string]OTPEntry
}

func NewMemoryOTPStore() *MemoryOTPStore {
	return &MemoryOTPStore{entries: map[string]OTPEntry{}}
}

func (m *MemoryOTPStore) Set(_ context.Context, key string, entry OTPEntry, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry
	return nil
}

func (m *MemoryOTPStore) Attempt(_ context.Context, key, digest string, maxAttempts int) (OTPOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok {
		return OTPMissing, nil
	}
	if time.Now().UTC().After(entry.ExpiresAt) {
		delete(m.entries, key)
		return OTPMissing, nil
	}
	entry.Attempts++
	if sameDigest(digest, entry.Digest) {
		delete(m.entries, key)
		return OTPMatched, nil
	}
	if entry.Attempts >= maxAttempts {
		delete(m.entries, key)
		return OTPBurned, nil
	}
	m.entries[key] = entry
	return OTPWrong, nil
}

func (m *MemoryOTPStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// RedisOTPStore keeps codes in Redis so they survive restarts and are shared
// between replicas; expiry is left to Redis TTLs. Attempts live in a sibling
// counter that is incremented before the code is read.
type RedisOTPStore struct {
	client *redis.Client
}

func NewRedisOTPStore(ctx context.Context, redisURL string) (*RedisOTPStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &RedisOTPStore{client: client}, nil
}

func attemptsKey(key string) string {
	return key + ":attempts"
}

func (r *RedisOTPStore) Set(ctx context.Context, key string, entry OTPEntry, ttl time.Duration) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, payload, ttl)
		pipe.Del(ctx, attemptsKey(key))
		return nil
	})
	return err
}

func (r *RedisOTPStore) Attempt(ctx context.Context, key, digest string, maxAttempts int) (OTPOutcome, error) {
	n, err := r.client.Incr(ctx, attemptsKey(key)).Result()
	if err != nil {
		return OTPMissing, err
	}
	if n == 1 {
		ttl, err := r.client.PTTL(ctx, key).Result()
		if err != nil {
			return OTPMissing, err
		}
		if ttl <= 0 {
			r.client.Del(ctx, attemptsKey(key))
			return OTPMissing, nil
		}
		r.client.PExpire(ctx, attemptsKey(key), ttl)
	}
	if int(n) > maxAttempts {
		r.client.Del(ctx, key)
		return OTPBurned, nil
	}
	entry, err := r.get(ctx, key)
	if errors.Is(err, errOTPMissing) {
		return OTPMissing, nil
	}
	if err != nil {
		return OTPMissing, err
	}
	if !sameDigest(digest, entry.Digest) {
		if int(n) >= maxAttempts {
			r.client.Del(ctx, key, attemptsKey(key))
			return OTPBurned, nil
		}
		return OTPWrong, nil
	}
	deleted, err := r.client.Del(ctx, key).Result()
	if err != nil {
		return OTPMissing, err
	}
	if deleted == 0 {
		return OTPMissing, nil
	}
	r.client.Del(ctx, attemptsKey(key))
	return OTPMatched, nil
}

func (r *RedisOTPStore) get(ctx context.Context, key string) (OTPEntry, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return OTPEntry{}, errOTPMissing
	}
	if err != nil {
		return OTPEntry{}, err
	}
	var entry OTPEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return OTPEntry{}, err
	}
	return entry, nil
}

func (r *RedisOTPStore) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key, attemptsKey(key)).Err()
}

func (r *RedisOTPStore) Close() error {
	return r.client.Close()
}
