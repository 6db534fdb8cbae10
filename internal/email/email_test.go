package email

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dreamhome/web/internal/models"
)

type recordingSender struct {
	subjects []string
	err      error
}

func (r *recordingSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	r.subjects = append(r.subjects, subject)
	return r.err
}

func samplePurchase() models.Purchase {
	return models.Purchase{
		OrderID:       "order_9",
		PaymentID:     "pay_1",
		PropertyID:    7,
		PropertyTitle: "Modern Downtown Condo",
		BuyerName:     "Jane Doe",
		BuyerEmail:    "jane@example.com",
		Amount:        450000,
		Currency:      "USD",
		PurchaseDate:  time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC),
	}
}

func TestReceiptMessage(t *testing.T) {
	msg, err := ReceiptMessage(samplePurchase())
	require.NoError(t, err)

	assert.Equal(t, []string{"jane@example.com"}, msg.To)
	assert.Equal(t, "Your DreamHome purchase: Modern Downtown Condo", msg.Subject)
	assert.Contains(t, msg.Body, "Hello Jane Doe")
	assert.Contains(t, msg.Body, "$450,000 USD")
	assert.Contains(t, msg.Body, "March 5, 2024")
	assert.Equal(t, KindReceipt, KindForSubject(msg.Subject))

	p := samplePurchase()
	p.BuyerEmail = ""
	_, err = ReceiptMessage(p)
	assert.Error(t, err)
}

func TestInquiryResponseMessage(t *testing.T) {
	inq := models.Inquiry{
		ID:            3,
		Message:       "Is parking included?",
		AdminResponse: "Yes, two spaces.",
		User:          &models.User{Username: "jdoe", Email: "jdoe@example.com"},
		Property:      &models.Property{Title: "Beach House"},
	}
	msg, err := InquiryResponseMessage(inq)
	require.NoError(t, err)

	assert.Equal(t, []string{"jdoe@example.com"}, msg.To)
	assert.Equal(t, "Re: your inquiry about Beach House", msg.Subject)
	assert.Contains(t, msg.Body, "Hello jdoe")
	assert.Contains(t, msg.Body, "Yes, two spaces.")
	assert.Equal(t, KindInquiry, KindForSubject(msg.Subject))

	inq.User = nil
	_, err = InquiryResponseMessage(inq)
	assert.Error(t, err)
}

func TestBuildRaw(t *testing.T) {
	raw := string(BuildRaw("noreply@dreamhome.example.com", &Message{To: []string{"a@x.com", "b@x.com"}, Subject: "Hi", Body: "body"}, time.Unix(0, 0).UTC()))

	assert.True(t, strings.HasPrefix(raw, "To: a@x.com, b@x.com\r\nFrom: noreply@dreamhome.example.com\r\nSubject: Hi\r\n"))
	assert.Contains(t, raw, "Content-Type: text/plain")
	assert.True(t, strings.HasSuffix(raw, "\r\n\r\nbody"))
}

func TestCompositeSender(t *testing.T) {
	_, err := ReceiptMessage(samplePurchase())
	require.NoError(t, err)

	empty := NewCompositeEmailSender()
	assert.Error(t, empty.Send(context.Background(), []string{"a@x.com"}, "s", nil))

	first := &recordingSender{err: errors.New("smtp down")}
	second := &recordingSender{}
	cs := NewCompositeEmailSender(first)
	cs.AddSender(second)
	cs.AddSender(nil)
	assert.Equal(t, 2, cs.Len())

	err = cs.Send(context.Background(), []string{"a@x.com"}, "subject", []byte("raw"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")
	assert.Equal(t, []string{"subject"}, second.subjects, "later senders still run after a failure")
}

func TestFileEmailSender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "emails.log")
	s, err := NewFileEmailSender(path, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.Send(context.Background(), []string{"a@x.com"}, "First", []byte("one")))
	require.NoError(t, s.Send(context.Background(), []string{"a@x.com"}, "Second", []byte("two")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "--- End Logged Email ---"))
	assert.Contains(t, string(data), "Subject: Second")

	_, err = NewFileEmailSender("  ", zap.NewNop())
	assert.Error(t, err)
}

func TestLoggingSender(t *testing.T) {
	assert.NoError(t, NewLoggingSender("x@y.com", zap.NewNop()).Send(context.Background(), []string{"a@x.com"}, "s", []byte("raw")))
}

func TestRedisSender_RoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	ctx := context.Background()
	require.NoError(t, rdb.Ping(ctx).Err())

	msg, err := ReceiptMessage(samplePurchase())
	require.NoError(t, err)
	sender := NewRedisSender(rdb, "noreply@dreamhome.example.com", zap.NewNop())
	require.NoError(t, sender.Send(ctx, msg.To, msg.Subject, []byte(msg.Body)))

	stored, err := LookupTestEmail(ctx, rdb, KindReceipt, "jane@example.com", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, msg.Subject, stored.Subject)
	assert.Equal(t, KindReceipt, stored.Kind)

	_, err = LookupTestEmail(ctx, rdb, KindReceipt, "jane@example.com", 2, 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrTestEmailNotFound)
}
