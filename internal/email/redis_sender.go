package email

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Kinds used in mock email keys.
const (
	KindReceipt  = "receipt"
	KindInquiry  = "inquiry"
	KindUnknown  = "unknown"
	mockEmailTTL = 5 * time.Minute
)

// ErrTestEmailNotFound is returned by LookupTestEmail when no mock email is stored.
var ErrTestEmailNotFound = errors.New("test email not found")

// StoredEmail is the JSON document RedisSender writes.
type StoredEmail struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	SentAt  string `json:"sent_at"`
	Kind    string `json:"kind"`
}

// RedisSender stores emails in Redis instead of sending them, so end-to-end
// runs can read them back through the service API.
type RedisSender struct {
	client *redis.Client
	from   string
	logger *zap.Logger
}

// NewRedisSender creates a new RedisSender.
func NewRedisSender(client *redis.Client, from string, logger *zap.Logger) *RedisSender {
	return &RedisSender{client: client, from: from, logger: logger}
}

// KindForSubject classifies a message by its subject line.
func KindForSubject(subject string) string {
	switch {
	case strings.HasPrefix(subject, receiptSubjectPrefix):
		return KindReceipt
	case strings.HasPrefix(subject, inquirySubjectPrefix):
		return KindInquiry
	default:
		return KindUnknown
	}
}

// MockEmailKey is the Redis key a mock email for recipient and kind lives under.
func MockEmailKey(recipient, kind string) string {
	return fmt.Sprintf("mockemail:%s:%s", recipient, kind)
}

// Send stores a JSON representation of the email under the first recipient.
func (s *RedisSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	primaryTo := ""
	if len(to) > 0 {
		primaryTo = to[0]
	}
	kind := KindForSubject(subject)

	data, err := json.Marshal(StoredEmail{
		To:      strings.Join(to, ", "),
		From:    s.from,
		Subject: subject,
		Body:    string(rawMessage),
		SentAt:  time.Now().UTC().Format(time.RFC3339Nano),
		Kind:    kind,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email data: %w", err)
	}

	key := MockEmailKey(primaryTo, kind)
	if err := s.client.Set(ctx, key, data, mockEmailTTL).Err(); err != nil {
		return fmt.Errorf("failed to store email in Redis key '%s': %w", key, err)
	}

	s.logger.Info("mock email stored", zap.String("key", key), zap.Duration("ttl", mockEmailTTL), zap.String("subject", subject))
	return nil
}

// LookupTestEmail polls for a mock email and deletes it once read.
func LookupTestEmail(ctx context.Context, rdb *redis.Client, kind, recipient string, attempts int, interval time.Duration) (*StoredEmail, error) {
	key := MockEmailKey(recipient, kind)
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		raw, err := rdb.Get(ctx, key).Result()
		if err == nil {
			rdb.Del(ctx, key)
			var stored StoredEmail
			if err := json.Unmarshal([]byte(raw), &stored); err != nil {
				return nil, fmt.Errorf("failed to parse stored email data: %w", err)
			}
			return &stored, nil
		}
		if !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("redis get %s: %w", key, err)
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
	return nil, fmt.Errorf("%w for key %s", ErrTestEmailNotFound, key)
}
