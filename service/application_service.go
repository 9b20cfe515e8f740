package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/Aashish23092/loan-intake-verification/dto"
	"github.com/Aashish23092/loan-intake-verification/session"
)

// ApplicationService drives the application lifecycle around the verification and
// eligibility steps.
type ApplicationService struct {
	sessions    *session.Manager
	eligibility *EligibilityService
	faces       *FaceService
	logger      *zap.Logger
}

func NewApplicationService(sessions *session.Manager, eligibility *EligibilityService, faces *FaceService, logger *zap.Logger) *ApplicationService {
	return &ApplicationService{
		sessions:    sessions,
		eligibility: eligibility,
		faces:       faces,
		logger:      logger,
	}
}

func (s *ApplicationService) Get(ctx context.Context, applicantID string) (dto.UserProfile, error) {
	sess, err := s.sessions.Get(ctx, applicantID)
	if err != nil {
		return dto.UserProfile{}, err
	}
	return sess.Snapshot(), nil
}

// Start opens a fresh application in the InProgress state. The profile photo is
// discarded, so the cached reference face goes with it.
func (s *ApplicationService) Start(ctx context.Context, applicantID string) (dto.UserProfile, error) {
	sess, err := s.sessions.Get(ctx, applicantID)
	if err != nil {
		return dto.UserProfile{}, err
	}
	profile := sess.Start()
	s.faces.ClearReference(applicantID)
	s.logger.Info("application started", zap.String("applicant_id", applicantID))
	_ = s.sessions.Persist(ctx, profile)
	return profile, nil
}

// Reset discards the application, including the cached reference face.
func (s *ApplicationService) Reset(ctx context.Context, applicantID string) (dto.UserProfile, error) {
	sess, err := s.sessions.Get(ctx, applicantID)
	if err != nil {
		return dto.UserProfile{}, err
	}
	profile := sess.Reset()
	s.faces.ClearReference(applicantID)
	s.logger.Info("application reset", zap.String("applicant_id", applicantID))
	_ = s.sessions.Persist(ctx, profile)
	return profile, nil
}

func (s *ApplicationService) UpdateProfile(ctx context.Context, applicantID string, req dto.ProfileUpdateRequest) (dto.UserProfile, error) {
	if err := req.Validate(); err != nil {
		return dto.UserProfile{}, err
	}
	sess, err := s.sessions.Get(ctx, applicantID)
	if err != nil {
		return dto.UserProfile{}, err
	}
	profile := sess.UpdateProfile(req.Name, req.Email, req.Language)
	_ = s.sessions.Persist(ctx, profile)
	return profile, nil
}

// SetProfileImage stores the profile photo and uses it as the reference face.
// The photo is kept even when no face is found in it.
func (s *ApplicationService) SetProfileImage(ctx context.Context, applicantID string, image []byte) (dto.UserProfile, bool, error) {
	sess, err := s.sessions.Get(ctx, applicantID)
	if err != nil {
		return dto.UserProfile{}, false, err
	}
	profile := sess.SetProfileImage(image)
	faceDetected := s.faces.SetProfileFace(ctx, applicantID, image)
	_ = s.sessions.Persist(ctx, profile)
	return profile, faceDetected, nil
}

// MatchVideo matches the face in an uploaded video against the profile photo. A profile
// photo restored from the store is re-detected on first use.
func (s *ApplicationService) MatchVideo(ctx context.Context, applicantID string, video []byte) (bool, error) {
	if _, ok := s.faces.Reference(applicantID); !ok {
		sess, err := s.sessions.Get(ctx, applicantID)
		if err != nil {
			return false, err
		}
		if image := sess.Snapshot().ProfileImage; len(image) > 0 {
			s.faces.SetProfileFace(ctx, applicantID, image)
		}
	}
	return s.faces.MatchFaceInVideoData(ctx, applicantID, video)
}

// SubmitLoanTerms records the requested terms and evaluates the application once every
// required document is verified. Before that only an Info activity is logged.
func (s *ApplicationService) SubmitLoanTerms(ctx context.Context, applicantID string, req dto.LoanTermsRequest) (dto.LoanDecisionResponse, error) {
	if err := req.Validate(); err != nil {
		return dto.LoanDecisionResponse{}, err
	}

	sess, err := s.sessions.Get(ctx, applicantID)
	if err != nil {
		return dto.LoanDecisionResponse{}, err
	}

	profile := sess.SetLoanTerms(req.Amount, req.PeriodMonths)
	if profile.VerifiedDocumentCount() < len(dto.RequiredDocumentTypes) {
		profile = sess.AppendActivity(dto.NewRecentActivity(
			"Documents Required",
			"Please upload and verify all required documents before applying for loan",
			dto.ActivityInfo,
		))
		s.logger.Info("loan terms submitted before documents were verified",
			zap.String("applicant_id", applicantID),
			zap.Int("verified_documents", profile.VerifiedDocumentCount()))
		_ = s.sessions.Persist(ctx, profile)
		return dto.LoanDecisionResponse{Evaluated: false, Profile: profile}, nil
	}

	result, profile, err := s.eligibility.EvaluateApplication(ctx, applicantID)
	if err != nil {
		return dto.LoanDecisionResponse{}, err
	}
	return dto.LoanDecisionResponse{Evaluated: true, Result: &result, Profile: profile}, nil
}
