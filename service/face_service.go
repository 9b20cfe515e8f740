package service

import (
	"context"
	"os"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Aashish23092/loan-intake-verification/dto"
	"github.com/Aashish23092/loan-intake-verification/metrics"
	"github.com/Aashish23092/loan-intake-verification/utils"
)

const (
	DefaultFrameOffset    = 500 * time.Millisecond
	DefaultMatchThreshold = 0.7
)

type FaceDetector interface {
	DetectFaces(ctx context.Context, image []byte) ([]dto.BoundingBox, error)
}

type FrameSampler interface {
	SampleFrame(ctx context.Context, videoPath string, offset time.Duration) ([]byte, error)
}

// FaceService compares the face in a video response against the profile photo.
// The comparison is bounding-box overlap only; it says nothing about identity.
type FaceService struct {
	detector    FaceDetector
	sampler     FrameSampler
	frameOffset time.Duration
	threshold   float64
	logger      *zap.Logger

	mu        sync.RWMutex
	reference map[string]dto.FaceDescriptor
}

func NewFaceService(detector FaceDetector, sampler FrameSampler, frameOffset time.Duration, threshold float64, logger *zap.Logger) *FaceService {
	if frameOffset <= 0 {
		frameOffset = DefaultFrameOffset
	}
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}
	return &FaceService{
		detector:    detector,
		sampler:     sampler,
		frameOffset: frameOffset,
		threshold:   threshold,
		logger:      logger,
		reference:   make(map[string]dto.FaceDescriptor),
	}
}

// SetProfileFace caches the first face in image as the applicant's reference,
// replacing any earlier one. It reports whether a face was found; without one the
// previous reference is kept.
func (s *FaceService) SetProfileFace(ctx context.Context, applicantID string, image []byte) bool {
	box, ok := s.firstFace(ctx, applicantID, image)
	if !ok {
		return false
	}

	s.mu.Lock()
	s.reference[applicantID] = dto.FaceDescriptor{BoundingBox: box}
	s.mu.Unlock()
	return true
}

func (s *FaceService) Reference(applicantID string) (dto.FaceDescriptor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ref, ok := s.reference[applicantID]
	return ref, ok
}

func (s *FaceService) ClearReference(applicantID string) {
	s.mu.Lock()
	delete(s.reference, applicantID)
	s.mu.Unlock()
}

// MatchFaceInVideo samples one frame from the video and matches its first face against
// the reference. Missing reference, frame or face all give false.
func (s *FaceService) MatchFaceInVideo(ctx context.Context, applicantID, videoPath string) bool {
	log := s.logger.With(zap.String("applicant_id", applicantID))

	ref, ok := s.Reference(applicantID)
	if !ok {
		log.Info("no reference face for applicant")
		return s.record(false)
	}

	frame, err := s.sampler.SampleFrame(ctx, videoPath, s.frameOffset)
	if err != nil {
		log.Warn("failed to sample video frame", zap.Error(err))
		return s.record(false)
	}

	box, ok := s.firstFace(ctx, applicantID, frame)
	if !ok {
		return s.record(false)
	}

	iou := utils.IoU(ref.BoundingBox, box)
	matched := iou > s.threshold
	log.Info("face match evaluated", zap.Float64("iou", iou), zap.Bool("matched", matched))
	return s.record(matched)
}

// MatchFaceInVideoData writes an uploaded video to a temp file and matches it.
func (s *FaceService) MatchFaceInVideoData(ctx context.Context, applicantID string, video []byte) (bool, error) {
	f, err := os.CreateTemp("", "face-video-*")
	if err != nil {
		return false, err
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(video); err != nil {
		f.Close()
		return false, err
	}
	if err := f.Close(); err != nil {
		return false, err
	}
	return s.MatchFaceInVideo(ctx, applicantID, f.Name()), nil
}

func (s *FaceService) firstFace(ctx context.Context, applicantID string, image []byte) (dto.BoundingBox, bool) {
	start := time.Now()
	boxes, err := s.detector.DetectFaces(ctx, image)
	metrics.ProviderDuration.WithLabelValues("face").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProviderFailures.WithLabelValues("face").Inc()
		s.logger.Warn("face detection failed", zap.String("applicant_id", applicantID), zap.Error(err))
		return dto.BoundingBox{}, false
	}

	box, ok := utils.FirstOrNone(boxes)
	if !ok {
		s.logger.Info("no face detected", zap.String("applicant_id", applicantID))
	}
	return box, ok
}

func (s *FaceService) record(matched bool) bool {
	metrics.FaceMatches.WithLabelValues(strconv.FormatBool(matched)).Inc()
	return matched
}
