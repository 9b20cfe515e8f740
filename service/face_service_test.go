package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Aashish23092/loan-intake-verification/dto"
)

// stubDetector returns the boxes registered for an image's content.
type stubDetector struct {
	faces map[string][]dto.BoundingBox
	err   error
}

func (s *stubDetector) DetectFaces(ctx context.Context, image []byte) ([]dto.BoundingBox, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.faces[string(image)], nil
}

type stubSampler struct {
	frame      []byte
	err        error
	lastOffset time.Duration
}

func (s *stubSampler) SampleFrame(ctx context.Context, videoPath string, offset time.Duration) ([]byte, error) {
	s.lastOffset = offset
	return s.frame, s.err
}

var fullFrame = dto.BoundingBox{X: 0, Y: 0, Width: 1, Height: 1}

func newTestFaceService(t *testing.T, detector FaceDetector, sampler FrameSampler) *FaceService {
	t.Helper()
	return NewFaceService(detector, sampler, 0, 0, zaptest.NewLogger(t))
}

func TestMatchFaceInVideo(t *testing.T) {
	tests := []struct {
		name    string
		sampled []dto.BoundingBox
		want    bool
	}{
		{name: "identical boxes", sampled: []dto.BoundingBox{fullFrame}, want: true},
		{name: "disjoint boxes", sampled: []dto.BoundingBox{{X: 2, Y: 2, Width: 1, Height: 1}}, want: false},
		{name: "iou exactly threshold", sampled: []dto.BoundingBox{{X: 0, Y: 0, Width: 0.7, Height: 1}}, want: false},
		{name: "iou above threshold", sampled: []dto.BoundingBox{{X: 0, Y: 0, Width: 0.8, Height: 1}}, want: true},
		{name: "first face wins", sampled: []dto.BoundingBox{{X: 0.9, Y: 0.9, Width: 0.1, Height: 0.1}, fullFrame}, want: false},
		{name: "no face in frame", sampled: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detector := &stubDetector{faces: map[string][]dto.BoundingBox{
				"profile": {fullFrame},
				"frame":   tt.sampled,
			}}
			sampler := &stubSampler{frame: []byte("frame")}
			svc := newTestFaceService(t, detector, sampler)

			require.True(t, svc.SetProfileFace(context.Background(), "app-1", []byte("profile")))
			assert.Equal(t, tt.want, svc.MatchFaceInVideo(context.Background(), "app-1", "video.mov"))
			assert.Equal(t, 500*time.Millisecond, sampler.lastOffset)
		})
	}
}

func TestMatchFaceInVideoWithoutReference(t *testing.T) {
	detector := &stubDetector{faces: map[string][]dto.BoundingBox{"frame": {fullFrame}}}
	svc := newTestFaceService(t, detector, &stubSampler{frame: []byte("frame")})

	assert.False(t, svc.MatchFaceInVideo(context.Background(), "app-1", "video.mov"))
}

func TestMatchFaceInVideoSamplerFailure(t *testing.T) {
	detector := &stubDetector{faces: map[string][]dto.BoundingBox{"profile": {fullFrame}}}
	svc := newTestFaceService(t, detector, &stubSampler{err: errors.New("video too short")})

	require.True(t, svc.SetProfileFace(context.Background(), "app-1", []byte("profile")))
	assert.False(t, svc.MatchFaceInVideo(context.Background(), "app-1", "video.mov"))
}

func TestSetProfileFaceLastWriteWins(t *testing.T) {
	second := dto.BoundingBox{X: 0.2, Y: 0.2, Width: 0.5, Height: 0.5}
	detector := &stubDetector{faces: map[string][]dto.BoundingBox{
		"first":  {fullFrame},
		"second": {second},
	}}
	svc := newTestFaceService(t, detector, &stubSampler{})
	ctx := context.Background()

	require.True(t, svc.SetProfileFace(ctx, "app-1", []byte("first")))
	require.True(t, svc.SetProfileFace(ctx, "app-1", []byte("second")))
	ref, ok := svc.Reference("app-1")
	require.True(t, ok)
	assert.Equal(t, second, ref.BoundingBox)

	// a photo without a face keeps the previous reference
	assert.False(t, svc.SetProfileFace(ctx, "app-1", []byte("no face")))
	ref, _ = svc.Reference("app-1")
	assert.Equal(t, second, ref.BoundingBox)

	svc.ClearReference("app-1")
	_, ok = svc.Reference("app-1")
	assert.False(t, ok)
}

func TestSetProfileFaceDetectorFailure(t *testing.T) {
	svc := newTestFaceService(t, &stubDetector{err: errors.New("quota")}, &stubSampler{})

	assert.False(t, svc.SetProfileFace(context.Background(), "app-1", []byte("profile")))
	_, ok := svc.Reference("app-1")
	assert.False(t, ok)
}

func TestMatchFaceInVideoData(t *testing.T) {
	detector := &stubDetector{faces: map[string][]dto.BoundingBox{
		"profile": {fullFrame},
		"frame":   {fullFrame},
	}}
	svc := newTestFaceService(t, detector, &stubSampler{frame: []byte("frame")})

	require.True(t, svc.SetProfileFace(context.Background(), "app-1", []byte("profile")))
	matched, err := svc.MatchFaceInVideoData(context.Background(), "app-1", []byte("mp4 bytes"))
	require.NoError(t, err)
	assert.True(t, matched)
}
