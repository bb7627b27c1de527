package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/hasbegun/argus/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryJobRepo struct {
	jobs map[uuid.UUID]*entity.AnalysisJob
}

func newMemoryJobRepo() *memoryJobRepo {
	return &memoryJobRepo{jobs: make(map[uuid.UUID]*entity.AnalysisJob)}
}

func (r *memoryJobRepo) Create(ctx context.Context, job *entity.AnalysisJob) error {
	r.jobs[job.ID] = job
	return nil
}

func (r *memoryJobRepo) Update(ctx context.Context, job *entity.AnalysisJob) error {
	r.jobs[job.ID] = job
	return nil
}

func (r *memoryJobRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.AnalysisJob, error) {
	job, ok := r.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s not found", id)
	}
	return job, nil
}

type capturingPublisher struct {
	results  [][]byte
	statuses [][]byte
	dlq      [][]byte
	reasons  []string
}

func (p *capturingPublisher) PublishResult(ctx context.Context, msg []byte) error {
	p.results = append(p.results, msg)
	return nil
}

func (p *capturingPublisher) PublishStatus(ctx context.Context, msg []byte) error {
	p.statuses = append(p.statuses, msg)
	return nil
}

func (p *capturingPublisher) PublishToDLQ(ctx context.Context, msg []byte, reason string) error {
	p.dlq = append(p.dlq, msg)
	p.reasons = append(p.reasons, reason)
	return nil
}

type capturingNotifier struct {
	emails []string
}

func (n *capturingNotifier) NotifyFailure(ctx context.Context, userEmail, jobID, videoKey, errorMsg string) error {
	n.emails = append(n.emails, userEmail)
	return nil
}

type failingBlobStore struct{}

func (failingBlobStore) Put(ctx context.Context, key, srcPath string) error { return nil }

func (failingBlobStore) SourcePath(ctx context.Context, key string) (string, func(), error) {
	return "", nil, &entity.StorageError{Op: "fetch blob", Err: fmt.Errorf("gone")}
}

func newJobFixture(t *testing.T, blobs *memoryBlobStore, seconds []int, failSeconds map[int]bool) (*ProcessJobUseCase, *memoryJobRepo, *capturingPublisher, *capturingNotifier) {
	t.Helper()
	opener := &fakeOpener{src: &fakeSource{seconds: seconds}}
	vision := &fakeVision{failSeconds: failSeconds}
	analyzer := newAnalyzer(t, opener, &fakePreprocessor{}, vision)

	repo := newMemoryJobRepo()
	pub := &capturingPublisher{}
	notifier := &capturingNotifier{}
	uc := NewProcessJobUseCase(repo, blobs, analyzer, pub, pub, pub, notifier, zap.NewNop(), ProcessJobConfig{
		FramesDir:  t.TempDir(),
		MaxRetries: 3,
	})
	return uc, repo, pub, notifier
}

func requestBody(t *testing.T, msg entity.AnalysisRequestMessage) []byte {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	return data
}

func TestExecuteCompletesJobAndPublishesResults(t *testing.T) {
	blobs := &memoryBlobStore{dir: t.TempDir()}
	uc, repo, pub, _ := newJobFixture(t, blobs, []int{0, 1, 2}, nil)

	msg := entity.AnalysisRequestMessage{
		JobID:    uuid.New(),
		VideoKey: "abc123.mp4",
		Object:   "a red car",
	}
	require.NoError(t, uc.Execute(context.Background(), requestBody(t, msg)))

	job := repo.jobs[msg.JobID]
	require.NotNil(t, job)
	assert.Equal(t, entity.JobStatusCompleted, job.Status)
	assert.Equal(t, 3, job.FrameCount)
	assert.Equal(t, 3, job.MatchCount)
	assert.NotNil(t, job.CompletedAt)

	require.Len(t, pub.results, 3)
	var result entity.AnalysisResultMessage
	require.NoError(t, json.Unmarshal(pub.results[0], &result))
	assert.Equal(t, msg.JobID, result.JobID)
	assert.Equal(t, entity.StreamStatusSuccess, result.Status)
	require.NotNil(t, result.Frame)
	assert.Equal(t, 0, result.Frame.Second)

	require.Len(t, pub.statuses, 1)
	var status entity.AnalysisStatusMessage
	require.NoError(t, json.Unmarshal(pub.statuses[0], &status))
	assert.Equal(t, entity.JobStatusCompleted, status.Status)
	assert.Equal(t, 3, status.FrameCount)
}

func TestExecuteSendsMalformedMessageToDLQ(t *testing.T) {
	blobs := &memoryBlobStore{dir: t.TempDir()}
	uc, repo, pub, _ := newJobFixture(t, blobs, nil, nil)

	require.NoError(t, uc.Execute(context.Background(), []byte("{not json")))

	assert.Empty(t, repo.jobs)
	require.Len(t, pub.dlq, 1)
	assert.Contains(t, pub.reasons[0], "unmarshal_error")
}

func TestExecuteRetryableFailureReturnsError(t *testing.T) {
	opener := &fakeOpener{src: &fakeSource{}}
	analyzer := newAnalyzer(t, opener, &fakePreprocessor{}, &fakeVision{})
	repo := newMemoryJobRepo()
	pub := &capturingPublisher{}
	uc := NewProcessJobUseCase(repo, failingBlobStore{}, analyzer, pub, pub, pub, &capturingNotifier{}, zap.NewNop(), ProcessJobConfig{
		FramesDir:  t.TempDir(),
		MaxRetries: 3,
	})

	msg := entity.AnalysisRequestMessage{JobID: uuid.New(), VideoKey: "abc123.mp4", Object: "a dog"}
	err := uc.Execute(context.Background(), requestBody(t, msg))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retryable failure")

	job := repo.jobs[msg.JobID]
	require.NotNil(t, job)
	assert.Equal(t, entity.JobStatusFailed, job.Status)
	assert.Equal(t, 1, job.Attempt)
	require.Len(t, pub.statuses, 1)
	assert.Empty(t, pub.dlq)
}

func TestExecuteExhaustedJobGoesToDLQAndNotifies(t *testing.T) {
	blobs := &memoryBlobStore{dir: t.TempDir()}
	uc, repo, pub, notifier := newJobFixture(t, blobs, []int{0}, nil)

	job := entity.NewAnalysisJob("abc123.mp4", "a cat", 3)
	job.Attempt = 3
	require.NoError(t, repo.Create(context.Background(), job))

	msg := entity.AnalysisRequestMessage{
		JobID:     job.ID,
		VideoKey:  "abc123.mp4",
		Object:    "a cat",
		UserEmail: "user@example.com",
	}
	require.NoError(t, uc.Execute(context.Background(), requestBody(t, msg)))

	assert.Equal(t, entity.JobStatusFailed, repo.jobs[job.ID].Status)
	require.Len(t, pub.dlq, 1)
	assert.Contains(t, pub.reasons[0], "max retries exceeded")
	assert.Equal(t, []string{"user@example.com"}, notifier.emails)
}
