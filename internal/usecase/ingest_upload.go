package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/hasbegun/argus/internal/domain/entity"
	"github.com/hasbegun/argus/internal/domain/port"
	"github.com/hasbegun/argus/internal/infra/metrics"
	"go.uber.org/zap"
)

// uploadChunkSize is the spool buffer: payloads stream through it, they are
// never held in memory whole.
const uploadChunkSize = 1 << 20

// IngestUploadUseCase is the content-addressed ingest path: validate,
// spool to a temp file while hashing, dedup against the upload log, then
// either discard the temp file (duplicate) or move it into the blob store
// under a fresh random name.
type IngestUploadUseCase struct {
	log    port.UploadLog
	blobs  port.BlobStore
	thumbs port.Thumbnailer
	logger *zap.Logger

	tempDir   string
	thumbsDir string

	// mu serializes the log read-modify-write so racing uploads cannot
	// lose records.
	mu sync.Mutex
}

type IngestUploadConfig struct {
	TempDir   string
	ThumbsDir string
}

func NewIngestUploadUseCase(
	log port.UploadLog,
	blobs port.BlobStore,
	thumbs port.Thumbnailer,
	logger *zap.Logger,
	cfg IngestUploadConfig,
) *IngestUploadUseCase {
	return &IngestUploadUseCase{
		log:       log,
		blobs:     blobs,
		thumbs:    thumbs,
		logger:    logger,
		tempDir:   cfg.TempDir,
		thumbsDir: cfg.ThumbsDir,
	}
}

// Ingest stores the payload once per unique content hash. The second return
// reports whether the payload was already known; duplicates are an ordinary
// outcome, not an error.
func (uc *IngestUploadUseCase) Ingest(ctx context.Context, payload io.Reader, contentType string, originalName string) (entity.UploadRecord, bool, error) {
	if !entity.SupportedFileType(contentType) {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return entity.UploadRecord{}, false, &entity.ValidationError{
			Reason: fmt.Sprintf("unsupported file type %q: JPEG, PNG, BMP, GIF, HEIC, WEBP, MP4 and AVI files are allowed", contentType),
		}
	}

	ext := filepath.Ext(originalName)
	if ext == "" {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return entity.UploadRecord{}, false, &entity.ValidationError{
			Reason: "uploaded file does not have a valid extension",
		}
	}

	tempPath := filepath.Join(uc.tempDir, "temp_"+uuid.NewString()+ext)
	hash, err := uc.spool(payload, tempPath)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("failed").Inc()
		return entity.UploadRecord{}, false, &entity.StorageError{Op: "spool upload", Err: err}
	}

	record, isDuplicate, err := uc.commit(ctx, tempPath, hash, contentType, originalName, ext)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("failed").Inc()
		return entity.UploadRecord{}, false, err
	}

	if isDuplicate {
		metrics.UploadsTotal.WithLabelValues("duplicate").Inc()
		uc.logger.Info("duplicate upload",
			zap.String("content_hash", record.ContentHash),
			zap.String("stored_filename", record.StoredFilename),
		)
		return record, true, nil
	}

	metrics.UploadsTotal.WithLabelValues("stored").Inc()
	uc.logger.Info("upload stored",
		zap.String("content_hash", record.ContentHash),
		zap.String("stored_filename", record.StoredFilename),
		zap.String("file_type", record.FileType),
	)

	uc.generateThumbnail(ctx, record)
	return record, false, nil
}

// SourcePath materializes a stored blob as a local file for processing.
func (uc *IngestUploadUseCase) SourcePath(ctx context.Context, record entity.UploadRecord) (string, func(), error) {
	return uc.blobs.SourcePath(ctx, record.StoredFilename)
}

// Records lists every upload record in insertion order.
func (uc *IngestUploadUseCase) Records(ctx context.Context) ([]entity.UploadRecord, error) {
	return uc.log.All(ctx)
}

// spool streams the payload into tempPath in fixed-size chunks while
// feeding the content hash.
func (uc *IngestUploadUseCase) spool(payload io.Reader, tempPath string) (string, error) {
	f, err := os.Create(tempPath)
	if err != nil {
		return "", err
	}

	digest := sha256.New()
	buf := make([]byte, uploadChunkSize)
	if _, err := io.CopyBuffer(io.MultiWriter(f, digest), payload, buf); err != nil {
		f.Close()
		os.Remove(tempPath)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(tempPath)
		return "", err
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}

// commit is the critical section: the log lookup and append must not
// interleave with another ingest's, or a racing rewrite drops a record.
func (uc *IngestUploadUseCase) commit(ctx context.Context, tempPath, hash, contentType, originalName, ext string) (entity.UploadRecord, bool, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	existing, found, err := uc.log.FindByHash(ctx, hash)
	if err != nil {
		os.Remove(tempPath)
		return entity.UploadRecord{}, false, err
	}
	if found {
		os.Remove(tempPath)
		return existing, true, nil
	}

	storedName := strings.ReplaceAll(uuid.NewString(), "-", "") + ext
	if err := uc.blobs.Put(ctx, storedName, tempPath); err != nil {
		os.Remove(tempPath)
		return entity.UploadRecord{}, false, err
	}

	record := entity.UploadRecord{
		OriginalFilename: originalName,
		FileType:         contentType,
		ContentHash:      hash,
		StoredFilename:   storedName,
	}
	if err := uc.log.Append(ctx, record); err != nil {
		return entity.UploadRecord{}, false, err
	}
	return record, false, nil
}

func (uc *IngestUploadUseCase) generateThumbnail(ctx context.Context, record entity.UploadRecord) {
	if uc.thumbs == nil || entity.VideoFileType(record.FileType) {
		return
	}

	srcPath, cleanup, err := uc.blobs.SourcePath(ctx, record.StoredFilename)
	if err != nil {
		uc.logger.Warn("thumbnail source unavailable", zap.Error(err))
		return
	}
	defer cleanup()

	base := strings.TrimSuffix(record.StoredFilename, filepath.Ext(record.StoredFilename))
	destPath := filepath.Join(uc.thumbsDir, base+".jpg")
	if err := uc.thumbs.Generate(ctx, srcPath, destPath); err != nil {
		uc.logger.Warn("thumbnail generation failed",
			zap.String("stored_filename", record.StoredFilename),
			zap.Error(err),
		)
	}
}
