package entity

// VideoTask identifies one analysis run over a stored video. It lives for
// the duration of a single request and is discarded once the stream ends;
// frame artifacts may outlive it on disk.
type VideoTask struct {
	// VideoID is the stored filename without its extension. It keys the
	// frame output directory, never the client-supplied name.
	VideoID        string
	SourcePath     string
	FrameOutputDir string
}

// FrameResult is the structured verdict for one sampled second.
type FrameResult struct {
	Second      int     `json:"second"`
	IsMatch     bool    `json:"is_match"`
	Description *string `json:"description"`
	Confidence  int     `json:"confidence"`
	FramePath   string  `json:"frame_path"`
}

// StreamEvent is one NDJSON line of the analysis stream: either a completed
// frame or a terminal failure.
type StreamEvent struct {
	Status  string       `json:"status"`
	Frame   *FrameResult `json:"frame,omitempty"`
	Message string       `json:"message,omitempty"`
}

const (
	StreamStatusSuccess = "success"
	StreamStatusError   = "error"
)

// SuccessEvent wraps a frame result.
func SuccessEvent(frame FrameResult) StreamEvent {
	return StreamEvent{Status: StreamStatusSuccess, Frame: &frame}
}

// ErrorEvent terminates a stream with a message.
func ErrorEvent(message string) StreamEvent {
	return StreamEvent{Status: StreamStatusError, Message: message}
}
