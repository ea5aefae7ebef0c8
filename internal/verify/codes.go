// Package verify implements email-code registration: a short numeric code
// is emailed to the patient, held in redis with a TTL, and exchanged for a
// session token.
package verify

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrCodeMismatch is returned when the supplied code does not match.
	ErrCodeMismatch = errors.New("verify: code mismatch")
	// ErrCodeExpired is returned when no code is pending for the email.
	ErrCodeExpired = errors.New("verify: code expired or never requested")
	// ErrTooManyAttempts is returned after repeated wrong codes.
	ErrTooManyAttempts = errors.New("verify: too many attempts")
)

const (
	codeLength  = 6
	maxAttempts = 5
)

// CodeStore keeps pending verification codes in redis with a TTL.
type CodeStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

// NewCodeStore creates a redis-backed code store.
func NewCodeStore(client *redis.Client, ttl time.Duration) *CodeStore {
	if client == nil {
		panic("verify: redis client required")
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CodeStore{
		redis:  client,
		ttl:    ttl,
		tracer: otel.Tracer("clinic.internal.verify"),
	}
}

// Issue generates a fresh numeric code for the email and stores it with the
// configured TTL, replacing any pending code.
func (s *CodeStore) Issue(ctx context.Context, email string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "verify.issue_code")
	defer span.End()

	code, err := randomCode(codeLength)
	if err != nil {
		return "", fmt.Errorf("verify: generate code: %w", err)
	}

	key := codeKey(email)
	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, key, code, s.ttl)
	pipe.Set(ctx, attemptsKey(email), 0, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("verify: store code: %w", err)
	}
	return code, nil
}

// Check verifies a code and consumes it on success. Wrong codes count
// against a per-email attempt budget; exhausting it invalidates the code.
func (s *CodeStore) Check(ctx context.Context, email, code string) error {
	ctx, span := s.tracer.Start(ctx, "verify.check_code")
	defer span.End()

	stored, err := s.redis.Get(ctx, codeKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrCodeExpired
	}
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("verify: load code: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		attempts, incErr := s.redis.Incr(ctx, attemptsKey(email)).Result()
		if incErr != nil {
			span.RecordError(incErr)
			return fmt.Errorf("verify: count attempt: %w", incErr)
		}
		if attempts >= maxAttempts {
			s.redis.Del(ctx, codeKey(email), attemptsKey(email))
			return ErrTooManyAttempts
		}
		return ErrCodeMismatch
	}

	if err := s.redis.Del(ctx, codeKey(email), attemptsKey(email)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("verify: consume code: %w", err)
	}
	return nil
}

func randomCode(n int) (string, error) {
	var b strings.Builder
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String(), nil
}

func codeKey(email string) string {
	return "verify:code:" + strings.ToLower(email)
}

func attemptsKey(email string) string {
	return "verify:attempts:" + strings.ToLower(email)
}
