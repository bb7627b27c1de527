package entity

import "github.com/google/uuid"

// AnalysisRequestMessage is the inbound message from the analysis.request queue.
type AnalysisRequestMessage struct {
	JobID     uuid.UUID `json:"job_id"`
	VideoKey  string    `json:"video_key"`
	Object    string    `json:"object"`
	UserEmail string    `json:"user_email,omitempty"`
}

// AnalysisResultMessage is published to the analysis.result queue, one per
// stream event, mirroring the NDJSON stream of the HTTP path.
type AnalysisResultMessage struct {
	JobID   uuid.UUID    `json:"job_id"`
	Status  string       `json:"status"`
	Frame   *FrameResult `json:"frame,omitempty"`
	Message string       `json:"message,omitempty"`
}

// AnalysisStatusMessage is the terminal job status published after a run.
type AnalysisStatusMessage struct {
	JobID        uuid.UUID `json:"job_id"`
	VideoKey     string    `json:"video_key"`
	Status       JobStatus `json:"status"`
	FrameCount   int       `json:"frame_count,omitempty"`
	MatchCount   int       `json:"match_count,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Attempt      int       `json:"attempt"`
	MaxAttempts  int       `json:"max_attempts"`
}
