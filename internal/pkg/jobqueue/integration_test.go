package jobqueue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velorahq/velora/app/models"
	"github.com/velorahq/velora/internal/pkg/billing"
)

func TestEnqueueJob_Redis(t *testing.T) {
	client := resolveTestRedis(t)
	resetJobQueueRedis(t, client)

	queue := NewQueue(client, 1)
	ctx := context.Background()

	payload := WebhookJobPayload{EventID: 7, EventType: "payment.succeeded", Payload: "{}"}
	job, err := queue.EnqueueJob(JobTypeWebhookProcess, payload.ToMap())
	require.NoError(t, err)
	require.NotEmpty(t, job.ID)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, DefaultMaxRetries, job.MaxRetries)

	size, err := queue.GetQueueSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), size)

	stored, err := queue.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, stored.ID)

	restored, err := WebhookJobPayloadFromMap(stored.Payload)
	require.NoError(t, err)
	assert.Equal(t, payload, *restored)

	resetJobQueueRedis(t, client)
}

func TestWorkerProcessesJob_Redis(t *testing.T) {
	client := resolveTestRedis(t)
	resetJobQueueRedis(t, client)

	queue := NewQueue(client, 1)
	processed := make(chan *Job, 1)
	queue.Register(JobTypeWebhookProcess, func(ctx context.Context, job *Job) error {
		processed <- job
		return nil
	})

	queue.Start()
	defer queue.Stop()

	payload := WebhookJobPayload{EventID: 7, EventType: "payment.succeeded", Payload: "{}"}
	job, err := queue.EnqueueJob(JobTypeWebhookProcess, payload.ToMap())
	require.NoError(t, err)

	select {
	case got := <-processed:
		assert.Equal(t, job.ID, got.ID)
	case <-time.After(10 * time.Second):
		t.Fatal("job was not processed in time")
	}

	// Completed jobs are removed from Redis and from the processing list.
	assert.Eventually(t, func() bool {
		processing, err := queue.GetProcessingSize(context.Background())
		return err == nil && processing == 0
	}, 5*time.Second, 100*time.Millisecond)

	resetJobQueueRedis(t, client)
}

func TestRetryThenSucceed_Redis(t *testing.T) {
	client := resolveTestRedis(t)
	resetJobQueueRedis(t, client)

	repo := newStubBillingRepo()
	svc := billing.NewService(repo)
	processor := NewWebhookProcessor(svc, billing.NewDispatcher(svc, nil), nil)

	ctx := context.Background()
	_, event, err := svc.RecordEventIfNew(ctx, "evt_retry", "refund.created", "{}")
	require.NoError(t, err)

	queue := NewQueue(client, 1)
	var attempts atomic.Int32
	queue.Register(JobTypeWebhookProcess, func(ctx context.Context, job *Job) error {
		if attempts.Add(1) < 3 {
			return errors.New("transient failure")
		}
		return processor.Process(ctx, job)
	})

	queue.Start()
	payload := WebhookJobPayload{EventID: event.ID, EventType: "refund.created", Payload: "{}"}
	job, err := queue.EnqueueJob(JobTypeWebhookProcess, payload.ToMap())
	require.NoError(t, err)

	// Two failed deliveries back off 2s then 4s; the third succeeds, after
	// which the completed job is removed from Redis.
	require.Eventually(t, func() bool {
		_, err := queue.GetJob(context.Background(), job.ID)
		return errors.Is(err, redis.Nil)
	}, 30*time.Second, 200*time.Millisecond, "job was not completed and removed in time")

	queue.Stop()

	assert.Equal(t, int32(3), attempts.Load(), "expected exactly three deliveries")
	assert.Equal(t, models.WebhookStatusCompleted, repo.events[event.ID].Status)
	assert.NotNil(t, repo.events[event.ID].ProcessedAt)

	stats, err := queue.GetJobStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats[JobStatusCompleted])

	resetJobQueueRedis(t, client)
}

func TestRetryExhaustion_Redis(t *testing.T) {
	client := resolveTestRedis(t)
	resetJobQueueRedis(t, client)

	queue := NewQueue(client, 1)
	var attempts atomic.Int32
	queue.Register(JobTypeWebhookProcess, func(ctx context.Context, job *Job) error {
		attempts.Add(1)
		return errors.New("permanent failure")
	})

	queue.Start()
	payload := WebhookJobPayload{EventID: 7, EventType: "payment.succeeded", Payload: "{}"}
	job, err := queue.EnqueueJob(JobTypeWebhookProcess, payload.ToMap())
	require.NoError(t, err)

	// Only the terminal state is ever written as failed: retryable attempts
	// are stored as retrying, so seeing failed means attempts are exhausted.
	var final *Job
	require.Eventually(t, func() bool {
		stored, err := queue.GetJob(context.Background(), job.ID)
		if err != nil || stored.Status != JobStatusFailed {
			return false
		}
		final = stored
		return true
	}, 30*time.Second, 200*time.Millisecond, "job did not exhaust its attempts in time")

	queue.Stop()

	assert.Equal(t, int32(DefaultMaxRetries), attempts.Load(), "expected exactly three deliveries")
	assert.Equal(t, DefaultMaxRetries, final.RetryCount)
	assert.Equal(t, "permanent failure", final.ErrorMsg)
	assert.False(t, final.IsRetryable())

	stats, err := queue.GetJobStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats[JobStatusFailed])

	resetJobQueueRedis(t, client)
}

func TestSweeperRecoversLostRetryJob_Redis(t *testing.T) {
	client := resolveTestRedis(t)
	resetJobQueueRedis(t, client)

	queue := NewQueue(client, 1)
	ctx := context.Background()

	newRetryingJob := func(updatedAt time.Time) *Job {
		return &Job{
			ID:         uuid.New().String(),
			Type:       JobTypeWebhookProcess,
			Status:     JobStatusRetrying,
			Payload:    WebhookJobPayload{EventID: 7, EventType: "payment.succeeded", Payload: "{}"}.ToMap(),
			CreatedAt:  updatedAt,
			UpdatedAt:  updatedAt,
			RetryCount: 1,
			MaxRetries: DefaultMaxRetries,
		}
	}

	// A backoff timer lost to a restart: long past due, in neither list.
	stale := newRetryingJob(time.Now().Add(-time.Hour))
	queue.updateJob(ctx, stale)

	// Still within its backoff window; its timer may be live elsewhere.
	fresh := newRetryingJob(time.Now())
	queue.updateJob(ctx, fresh)

	// Already requeued by a live timer but not yet picked up.
	queued := newRetryingJob(time.Now().Add(-time.Hour))
	queue.updateJob(ctx, queued)
	require.NoError(t, client.LPush(ctx, JobQueueKey, queued.ID).Err())

	queue.sweepRetrying(ctx, time.Minute)

	size, err := queue.GetQueueSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), size, "only the lost job is requeued, the queued one is not duplicated")

	recovered, err := queue.GetJob(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusPending, recovered.Status)

	untouched, err := queue.GetJob(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusRetrying, untouched.Status)

	ids, err := client.LRange(ctx, JobQueueKey, 0, -1).Result()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{stale.ID, queued.ID}, ids)

	resetJobQueueRedis(t, client)
}

func TestPendingStatTracksQueueDepth_Redis(t *testing.T) {
	client := resolveTestRedis(t)
	resetJobQueueRedis(t, client)

	queue := NewQueue(client, 1)
	ctx := context.Background()

	for i := uint(1); i <= 2; i++ {
		_, err := queue.EnqueueJob(JobTypeWebhookProcess,
			WebhookJobPayload{EventID: i, EventType: "payment.succeeded", Payload: "{}"}.ToMap())
		require.NoError(t, err)
	}

	stats, err := queue.GetJobStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats[JobStatusPending])

	_, err = queue.dequeueJob(ctx)
	require.NoError(t, err)

	stats, err = queue.GetJobStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats[JobStatusPending], "pending stat mirrors current depth, not cumulative enqueues")

	resetJobQueueRedis(t, client)
}
