package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampleStride(t *testing.T) {
	tests := []struct {
		name string
		fps  float64
		want int
	}{
		{"integer rate", 30, 30},
		{"ntsc rate rounds up", 29.97, 30},
		{"pal rate", 25, 25},
		{"rounds half up", 23.5, 24},
		{"zero rate unusable", 0, 0},
		{"negative rate unusable", -1, 0},
		{"sub-half rate unusable", 0.4, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SampleStride(tt.fps))
		})
	}
}

func TestSampledSecond(t *testing.T) {
	// At 30 fps every 30th decoded frame is one elapsed second.
	assert.Equal(t, 0, SampledSecond(0, 30))
	assert.Equal(t, -1, SampledSecond(1, 30))
	assert.Equal(t, -1, SampledSecond(29, 30))
	assert.Equal(t, 1, SampledSecond(30, 30))
	assert.Equal(t, 4, SampledSecond(120, 30))
}

func TestSamplingAttemptsPerDuration(t *testing.T) {
	// A D-second video at stride F yields exactly floor(D) sampling
	// attempts: frames 0, F, 2F, ... below D*F.
	const stride = 24
	const durationSeconds = 7

	attempts := 0
	for idx := 0; idx < durationSeconds*stride; idx++ {
		if SampledSecond(idx, stride) >= 0 {
			attempts++
		}
	}
	assert.Equal(t, durationSeconds, attempts)
}
