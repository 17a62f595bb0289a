package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"math/big"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
	"github.com/tokenworks/backend/internal/config"
)

// RequestCode is a short-lived request-to-pay: the recipient publishes a code
// (or its QR rendering) and the payer consumes it to pre-fill a transfer.
// Codes live only in Redis with a TTL and are single-use.
type RequestCode struct {
	Code      string          `json:"code"`
	Recipient string          `json:"recipient"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

var (
	ErrCodeNotFound  = errors.New("invalid or expired request code")
	ErrRateLimited   = errors.New("too many codes generated, try again later")
	errRedisDisabled = errors.New("request codes require redis")
)

// RequestCodeService stores transfer request codes in a process-external
// key-value store with explicit TTLs. The clock is injected so expiry is
// testable.
type RequestCodeService struct {
	redis  *redis.Client
	config *config.TokenConfig
	now    func() time.Time
}

func NewRequestCodeService(redisClient *redis.Client) *RequestCodeService {
	return &RequestCodeService{
		redis:  redisClient,
		config: config.LoadTokenConfig(),
		now:    time.Now,
	}
}

// WithClock overrides the service clock. Test hook.
func (s *RequestCodeService) WithClock(now func() time.Time) *RequestCodeService {
	s.now = now
	return s
}

// Generate creates and stores a new single-use request code for the given
// recipient.
func (s *RequestCodeService) Generate(ctx context.Context, recipientID string, amount decimal.Decimal, reason string) (*RequestCode, error) {
	if s.redis == nil {
		return nil, errRedisDisabled
	}
	if !amount.IsPositive() {
		return nil, &ValidationError{Reason: "amount must be positive"}
	}

	if err := s.checkRateLimit(ctx, recipientID); err != nil {
		return nil, err
	}

	now := s.now()
	code := s.generateSecureCode()
	requestCode := &RequestCode{
		Code:      code,
		Recipient: recipientID,
		Amount:    amount,
		Reason:    reason,
		CreatedAt: now,
		ExpiresAt: now.Add(s.config.RequestCodeTimeout),
	}

	data, err := json.Marshal(requestCode)
	if err != nil {
		return nil, err
	}

	if err := s.redis.Set(ctx, codeKey(code), data, s.config.RequestCodeTimeout).Err(); err != nil {
		return nil, fmt.Errorf("failed to store request code: %w", err)
	}

	s.incrementRateLimit(ctx, recipientID)
	return requestCode, nil
}

// Get returns a stored code without consuming it.
func (s *RequestCodeService) Get(ctx context.Context, code string) (*RequestCode, error) {
	if s.redis == nil {
		return nil, errRedisDisabled
	}

	data, err := s.redis.Get(ctx, codeKey(code)).Bytes()
	if err == redis.Nil {
		return nil, ErrCodeNotFound
	}
	if err != nil {
		return nil, err
	}

	var requestCode RequestCode
	if err := json.Unmarshal(data, &requestCode); err != nil {
		return nil, err
	}

	// The store TTL is authoritative, but the injected clock guards against
	// a store that does not expire keys (test doubles).
	if s.now().After(requestCode.ExpiresAt) {
		return nil, ErrCodeNotFound
	}

	return &requestCode, nil
}

// Consume returns the code's payload and removes it so it cannot be used
// twice.
func (s *RequestCodeService) Consume(ctx context.Context, code string) (*RequestCode, error) {
	requestCode, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}

	if err := s.redis.Del(ctx, codeKey(code)).Err(); err != nil {
		return nil, err
	}
	return requestCode, nil
}

// QRImage renders a stored code as a PNG.
func (s *RequestCodeService) QRImage(ctx context.Context, code string) ([]byte, error) {
	requestCode, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}

	qr, err := qrcode.New(requestCode.Code, qrcode.Medium)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *RequestCodeService) checkRateLimit(ctx context.Context, userID string) error {
	count, err := s.redis.Get(ctx, rateKey(userID)).Int()
	if err != nil && err != redis.Nil {
		return err
	}
	if count >= s.config.MaxCodesPerUser {
		return ErrRateLimited
	}
	return nil
}

func (s *RequestCodeService) incrementRateLimit(ctx context.Context, userID string) {
	key := rateKey(userID)
	if s.redis.Incr(ctx, key).Val() == 1 {
		s.redis.Expire(ctx, key, s.config.RateLimitWindow)
	}
}

func (s *RequestCodeService) generateSecureCode() string {
	const charset = "0123456789"
	code := make([]byte, s.config.RequestCodeLength)
	charsetLen := big.NewInt(int64(len(charset)))

	for i := range code {
		n, _ := rand.Int(rand.Reader, charsetLen)
		code[i] = charset[n.Int64()]
	}
	return string(code)
}

func codeKey(code string) string {
	return fmt.Sprintf("token:reqcode:%s", code)
}

func rateKey(userID string) string {
	return fmt.Sprintf("token:reqcode:rate:%s", userID)
}
