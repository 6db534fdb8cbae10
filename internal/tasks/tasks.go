package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hibiken/asynq"
	"github.com/nfnt/resize"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"dreamhome/web/internal/config"
	"dreamhome/web/internal/email"
	"dreamhome/web/internal/models"
)

// Task types.
const (
	TypePurchaseReceipt = "purchase:receipt"
	TypeInquiryNotify   = "inquiry:notify"
	TypeImageProcess    = "image:process"
)

// Queues.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueImages   = "images"
)

// --- Task Client (Enqueuing tasks) ---

func redisOpt(rdb *redis.Client) asynq.RedisClientOpt {
	opts := rdb.Options()
	return asynq.RedisClientOpt{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}
}

// NewClient builds an asynq client sharing rdb's connection settings.
func NewClient(rdb *redis.Client) *asynq.Client {
	return asynq.NewClient(redisOpt(rdb))
}

// IAsynqClient is the part of *asynq.Client the Enqueuer needs.
type IAsynqClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ImageTaskPayload names an uploaded property image to normalize.
type ImageTaskPayload struct {
	S3Key      string `json:"s3_key"`
	PropertyID int64  `json:"property_id,omitempty"`
}

// Enqueuer schedules background work. It satisfies the receipt queue used by
// checkout and the response notifier used by the inquiries screen.
type Enqueuer struct {
	client IAsynqClient
	logger *zap.Logger
}

// NewEnqueuer wraps an asynq client.
func NewEnqueuer(client IAsynqClient, logger *zap.Logger) *Enqueuer {
	return &Enqueuer{client: client, logger: logger}
}

func (e *Enqueuer) enqueue(ctx context.Context, taskType string, payload interface{}, opts ...asynq.Option) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", taskType, err)
	}
	info, err := e.client.EnqueueContext(ctx, asynq.NewTask(taskType, data), opts...)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	e.logger.Debug("task enqueued", zap.String("type", taskType), zap.String("id", info.ID), zap.String("queue", info.Queue))
	return nil
}

// EnqueueReceipt schedules the purchase receipt email.
func (e *Enqueuer) EnqueueReceipt(ctx context.Context, p models.Purchase) error {
	return e.enqueue(ctx, TypePurchaseReceipt, p, asynq.Queue(QueueCritical), asynq.MaxRetry(10))
}

// NotifyInquiryResponse schedules the email telling a buyer their inquiry was answered.
func (e *Enqueuer) NotifyInquiryResponse(ctx context.Context, inquiry models.Inquiry) error {
	return e.enqueue(ctx, TypeInquiryNotify, inquiry, asynq.Queue(QueueDefault))
}

// EnqueueImageProcess schedules resizing of an uploaded image. The delay gives
// the browser time to finish the presigned upload.
func (e *Enqueuer) EnqueueImageProcess(ctx context.Context, key string, propertyID int64) error {
	return e.enqueue(ctx, TypeImageProcess, ImageTaskPayload{S3Key: key, PropertyID: propertyID},
		asynq.Queue(QueueImages), asynq.ProcessIn(30*time.Second))
}

// --- Task Server (Processing tasks) ---

// ObjectStore is the part of *s3.Client the image task needs.
type ObjectStore interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// TaskProcessor holds dependencies needed by task handlers.
type TaskProcessor struct {
	fromAddress  string
	bucket       string
	maxDimension uint
	maxSizeBytes int64
	emailSender  email.Sender
	objects      ObjectStore
	logger       *zap.Logger
	now          func() time.Time
}

// NewTaskProcessor creates a TaskProcessor. objects may be nil when only the
// email handlers are registered.
func NewTaskProcessor(cfg *config.Config, emailSender email.Sender, objects ObjectStore, logger *zap.Logger) *TaskProcessor {
	from := cfg.SmtpFromAddress
	if from == "" {
		from = "noreply@dreamhome.example.com"
	}
	return &TaskProcessor{
		fromAddress:  from,
		bucket:       cfg.AwsS3Bucket,
		maxDimension: uint(cfg.ImageMaxDimension),
		maxSizeBytes: int64(cfg.ImageMaxSizeMB) * 1024 * 1024,
		emailSender:  emailSender,
		objects:      objects,
		logger:       logger,
		now:          time.Now,
	}
}

// SetupServer builds an asynq server and the mux holding the handlers for the
// requested worker roles. It returns nil values when neither role is requested.
func SetupServer(rdb *redis.Client, processor *TaskProcessor, isImageWorker, isBgWorker bool, logger *zap.Logger) (*asynq.Server, *asynq.ServeMux) {
	if !isBgWorker && !isImageWorker {
		return nil, nil
	}

	queues := map[string]int{}
	mux := asynq.NewServeMux()
	if isBgWorker {
		queues[QueueCritical] = 6
		queues[QueueDefault] = 3
		mux.HandleFunc(TypePurchaseReceipt, processor.HandlePurchaseReceiptTask)
		mux.HandleFunc(TypeInquiryNotify, processor.HandleInquiryNotifyTask)
		logger.Info("registered background task handlers")
	}
	if isImageWorker {
		queues[QueueImages] = 5
		mux.HandleFunc(TypeImageProcess, processor.HandleImageProcessTask)
		logger.Info("registered image processing task handlers")
	}

	srv := asynq.NewServer(redisOpt(rdb), asynq.Config{
		Queues: queues,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error("task failed", zap.String("type", task.Type()), zap.ByteString("payload", task.Payload()), zap.Error(err))
		}),
	})
	return srv, mux
}

// --- Task Handlers ---

func (p *TaskProcessor) deliver(ctx context.Context, msg *email.Message) error {
	raw := email.BuildRaw(p.fromAddress, msg, p.now())
	if err := p.emailSender.Send(ctx, msg.To, msg.Subject, raw); err != nil {
		return fmt.Errorf("send %q: %w", msg.Subject, err)
	}
	return nil
}

// HandlePurchaseReceiptTask emails the buyer a receipt for a settled purchase.
func (p *TaskProcessor) HandlePurchaseReceiptTask(ctx context.Context, t *asynq.Task) error {
	var purchase models.Purchase
	if err := json.Unmarshal(t.Payload(), &purchase); err != nil {
		return fmt.Errorf("failed to unmarshal receipt payload: %v: %w", err, asynq.SkipRetry)
	}

	msg, err := email.ReceiptMessage(purchase)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if err := p.deliver(ctx, msg); err != nil {
		return err
	}

	p.logger.Info("receipt sent", zap.String("order_id", purchase.OrderID), zap.String("to", purchase.BuyerEmail))
	return nil
}

// HandleInquiryNotifyTask emails the inquirer once an admin has responded.
func (p *TaskProcessor) HandleInquiryNotifyTask(ctx context.Context, t *asynq.Task) error {
	var inquiry models.Inquiry
	if err := json.Unmarshal(t.Payload(), &inquiry); err != nil {
		return fmt.Errorf("failed to unmarshal inquiry payload: %v: %w", err, asynq.SkipRetry)
	}

	msg, err := email.InquiryResponseMessage(inquiry)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if err := p.deliver(ctx, msg); err != nil {
		return err
	}

	p.logger.Info("inquiry response notice sent", zap.Int64("inquiry_id", inquiry.ID))
	return nil
}

// HandleImageProcessTask shrinks an uploaded property image to the configured
// maximum dimension and writes it back under the same key.
func (p *TaskProcessor) HandleImageProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ImageTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal image task payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.S3Key == "" {
		return fmt.Errorf("image task without key: %w", asynq.SkipRetry)
	}
	if p.objects == nil {
		return fmt.Errorf("image storage is not configured: %w", asynq.SkipRetry)
	}
	log := p.logger.With(zap.String("key", payload.S3Key), zap.Int64("property_id", payload.PropertyID))

	obj, err := p.objects.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(payload.S3Key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			log.Warn("uploaded image not found")
			return fmt.Errorf("s3 object not found: %w", asynq.SkipRetry)
		}
		return fmt.Errorf("failed to download image from S3: %w", err)
	}
	defer obj.Body.Close()

	imgData, err := io.ReadAll(io.LimitReader(obj.Body, p.maxSizeBytes+1))
	if err != nil {
		return fmt.Errorf("failed to read image data: %w", err)
	}
	if int64(len(imgData)) > p.maxSizeBytes {
		log.Warn("image exceeds max size", zap.Int64("max_bytes", p.maxSizeBytes))
		return fmt.Errorf("image exceeds max size: %w", asynq.SkipRetry)
	}

	img, format, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		return fmt.Errorf("unsupported image format or corrupt image: %w", asynq.SkipRetry)
	}
	bounds := img.Bounds()
	if uint(bounds.Dx()) <= p.maxDimension && uint(bounds.Dy()) <= p.maxDimension {
		log.Debug("image within limits", zap.String("format", format), zap.Int("width", bounds.Dx()), zap.Int("height", bounds.Dy()))
		return nil
	}

	resized := resize.Thumbnail(p.maxDimension, p.maxDimension, img, resize.Lanczos3)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
		return fmt.Errorf("failed to re-encode resized image: %w", err)
	}

	_, err = p.objects.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(payload.S3Key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload processed image: %w", err)
	}

	log.Info("image resized",
		zap.Int("from_width", bounds.Dx()), zap.Int("from_height", bounds.Dy()),
		zap.Int("to_width", resized.Bounds().Dx()), zap.Int("to_height", resized.Bounds().Dy()))
	return nil
}
