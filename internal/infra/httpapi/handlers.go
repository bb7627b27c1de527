package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/hasbegun/argus/internal/domain/entity"
	"github.com/hasbegun/argus/internal/domain/port"
	"github.com/hasbegun/argus/internal/usecase"
	"go.uber.org/zap"
)

// maxUploadMemory bounds how much of a multipart body is held in memory;
// the rest spills to disk.
const maxUploadMemory = 32 << 20

type Handler struct {
	ingest   *usecase.IngestUploadUseCase
	analyzer *usecase.AnalyzeVideoUseCase
	vision   port.VisionClient
	logger   *zap.Logger

	framesDir string
}

func NewHandler(
	ingest *usecase.IngestUploadUseCase,
	analyzer *usecase.AnalyzeVideoUseCase,
	vision port.VisionClient,
	logger *zap.Logger,
	framesDir string,
) *Handler {
	return &Handler{
		ingest:    ingest,
		analyzer:  analyzer,
		vision:    vision,
		logger:    logger,
		framesDir: framesDir,
	}
}

type uploadResponse struct {
	Message  string              `json:"message"`
	Filename entity.UploadRecord `json:"filename"`
}

// Upload handles POST /api/v1/upload.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	record, isDuplicate, err := h.ingest.Ingest(r.Context(), file, header.Header.Get("Content-Type"), header.Filename)
	if err != nil {
		h.writeIngestError(w, err)
		return
	}

	msg := "File uploaded successfully"
	if isDuplicate {
		msg = "Duplicate file detected. Pointing to existing file."
	}
	writeJSON(w, http.StatusOK, uploadResponse{Message: msg, Filename: record})
}

// Analyze handles POST /api/v1/analyze: ingest the video through the same
// dedup path as upload, then stream one NDJSON line per completed frame.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	object := r.FormValue("object")
	if object == "" {
		writeJSONError(w, http.StatusBadRequest, "form field 'object' is required")
		return
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "multipart field 'video' is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !entity.VideoFileType(contentType) {
		writeJSONError(w, http.StatusBadRequest, "analysis accepts MP4 and AVI videos only")
		return
	}

	record, _, err := h.ingest.Ingest(r.Context(), file, contentType, header.Filename)
	if err != nil {
		h.writeIngestError(w, err)
		return
	}

	sourcePath, cleanup, err := h.ingest.SourcePath(r.Context(), record)
	if err != nil {
		h.logger.Error("failed to materialize video", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "stored video unavailable")
		return
	}
	defer cleanup()

	videoID := strings.TrimSuffix(record.StoredFilename, filepath.Ext(record.StoredFilename))
	task := entity.VideoTask{
		VideoID:        videoID,
		SourcePath:     sourcePath,
		FrameOutputDir: filepath.Join(h.framesDir, videoID),
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	for ev := range h.analyzer.Stream(r.Context(), task, object) {
		if err := enc.Encode(ev); err != nil {
			// Client went away; the stream drains itself via the context.
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

type chatRequest struct {
	Prompt string `json:"prompt"`
}

type chatResponse struct {
	Success bool   `json:"success"`
	Data    string `json:"data"`
}

// Chat handles POST /api/v1/chat, a plain passthrough to the vision backend.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Prompt == "" {
		writeJSONError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	answer, err := h.vision.Chat(r.Context(), req.Prompt)
	if err != nil {
		h.logger.Error("chat call failed", zap.Error(err))
		writeJSONError(w, http.StatusBadGateway, "vision backend unavailable")
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Success: true, Data: answer})
}

func (h *Handler) writeIngestError(w http.ResponseWriter, err error) {
	var verr *entity.ValidationError
	if errors.As(err, &verr) {
		writeJSONError(w, http.StatusBadRequest, verr.Reason)
		return
	}
	h.logger.Error("upload failed", zap.Error(err))
	writeJSONError(w, http.StatusInternalServerError, "upload failed")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
