package port

import "context"

// VisionClient calls the external vision-language backend.
type VisionClient interface {
	// AnalyzeFrame sends the image at framePath together with the fixed
	// detection prompt for objectDescription and returns the backend's raw
	// free-text answer. Failures are InferenceErrors.
	AnalyzeFrame(ctx context.Context, framePath string, objectDescription string) (string, error)

	// Chat sends a plain text prompt and returns the raw answer.
	Chat(ctx context.Context, prompt string) (string, error)
}
