package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Aashish23092/loan-intake-verification/dto"
	"github.com/Aashish23092/loan-intake-verification/session"
)

func newTestApplicationService(t *testing.T, store session.ProfileStore, detector FaceDetector) (*ApplicationService, *FaceService) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	sessions := session.NewManager(store, logger)
	faces := NewFaceService(detector, &stubSampler{frame: []byte("frame")}, 0, 0, logger)
	eligibility := NewEligibilityService(sessions, nil, nil, logger)
	return NewApplicationService(sessions, eligibility, faces, logger), faces
}

func TestStartAndReset(t *testing.T) {
	store := &seededStore{profiles: map[string]dto.UserProfile{"app-1": verifiedProfile("50000", 100000, 12)}}
	svc, _ := newTestApplicationService(t, store, &stubDetector{})
	ctx := context.Background()

	profile, err := svc.Start(ctx, "app-1")
	require.NoError(t, err)
	assert.Equal(t, dto.StatusInProgress, profile.ApplicationStatus)
	assert.Empty(t, profile.Documents)

	profile, err = svc.Reset(ctx, "app-1")
	require.NoError(t, err)
	assert.Equal(t, dto.StatusNotStarted, profile.ApplicationStatus)
	assert.Equal(t, "app-1", profile.ApplicantID)
	assert.Equal(t, dto.StatusNotStarted, store.profiles["app-1"].ApplicationStatus)
}

func TestSubmitLoanTermsBeforeDocumentsVerified(t *testing.T) {
	svc, _ := newTestApplicationService(t, nil, &stubDetector{})
	ctx := context.Background()

	_, err := svc.Start(ctx, "app-1")
	require.NoError(t, err)

	resp, err := svc.SubmitLoanTerms(ctx, "app-1", dto.LoanTermsRequest{Amount: 100000, PeriodMonths: 12})
	require.NoError(t, err)
	assert.False(t, resp.Evaluated)
	assert.Nil(t, resp.Result)
	assert.Equal(t, dto.StatusInProgress, resp.Profile.ApplicationStatus)
	assert.Equal(t, 100000.0, resp.Profile.LoanAmount)
	require.Len(t, resp.Profile.RecentActivities, 1)
	assert.Equal(t, "Documents Required", resp.Profile.RecentActivities[0].Title)
	assert.Equal(t, dto.ActivityInfo, resp.Profile.RecentActivities[0].Type)
}

func TestSubmitLoanTermsEvaluates(t *testing.T) {
	store := &seededStore{profiles: map[string]dto.UserProfile{"app-1": verifiedProfile("20000", 0, 0)}}
	svc, _ := newTestApplicationService(t, store, &stubDetector{})

	resp, err := svc.SubmitLoanTerms(context.Background(), "app-1", dto.LoanTermsRequest{Amount: 600000, PeriodMonths: 36})
	require.NoError(t, err)
	assert.True(t, resp.Evaluated)
	require.NotNil(t, resp.Result)
	assert.Equal(t, dto.StatusRejected, resp.Result.Status)
	assert.Equal(t, ReasonEMIExceeds, resp.Result.Activity.Description)
	assert.Equal(t, dto.StatusRejected, resp.Profile.ApplicationStatus)
	assert.Equal(t, 36, resp.Profile.LoanPeriodMonths)
}

func TestSubmitLoanTermsValidation(t *testing.T) {
	svc, _ := newTestApplicationService(t, nil, &stubDetector{})
	ctx := context.Background()

	_, err := svc.SubmitLoanTerms(ctx, "app-1", dto.LoanTermsRequest{Amount: 0, PeriodMonths: 12})
	assert.ErrorIs(t, err, dto.ErrInvalidLoanAmount)

	_, err = svc.SubmitLoanTerms(ctx, "app-1", dto.LoanTermsRequest{Amount: 1000001, PeriodMonths: 12})
	assert.ErrorIs(t, err, dto.ErrInvalidLoanAmount)

	_, err = svc.SubmitLoanTerms(ctx, "app-1", dto.LoanTermsRequest{Amount: 1000000, PeriodMonths: 61})
	assert.ErrorIs(t, err, dto.ErrInvalidLoanPeriod)
}

func TestActivityLogKeepsFiveNewest(t *testing.T) {
	svc, _ := newTestApplicationService(t, nil, &stubDetector{})
	ctx := context.Background()

	var resp dto.LoanDecisionResponse
	var err error
	for i := 1; i <= 6; i++ {
		resp, err = svc.SubmitLoanTerms(ctx, "app-1", dto.LoanTermsRequest{Amount: float64(i * 1000), PeriodMonths: 12})
		require.NoError(t, err)
	}
	assert.Len(t, resp.Profile.RecentActivities, 5)
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newTestApplicationService(t, nil, &stubDetector{})
	ctx := context.Background()

	profile, err := svc.UpdateProfile(ctx, "app-1", dto.ProfileUpdateRequest{Name: "Ravi Kumar", Email: "ravi@example.com", Language: dto.LanguageTamil})
	require.NoError(t, err)
	assert.Equal(t, "Ravi Kumar", profile.Name)
	assert.Equal(t, dto.LanguageTamil, profile.SelectedLanguage)

	_, err = svc.UpdateProfile(ctx, "app-1", dto.ProfileUpdateRequest{Language: "Klingon"})
	assert.Error(t, err)
}

func TestProfileImageSeedsFaceReference(t *testing.T) {
	detector := &stubDetector{faces: map[string][]dto.BoundingBox{
		"photo": {fullFrame},
		"frame": {fullFrame},
	}}
	svc, faces := newTestApplicationService(t, nil, detector)
	ctx := context.Background()

	profile, detected, err := svc.SetProfileImage(ctx, "app-1", []byte("photo"))
	require.NoError(t, err)
	assert.True(t, detected)
	assert.Equal(t, []byte("photo"), profile.ProfileImage)

	matched, err := svc.MatchVideo(ctx, "app-1", []byte("video"))
	require.NoError(t, err)
	assert.True(t, matched)

	_, err = svc.Reset(ctx, "app-1")
	require.NoError(t, err)
	_, ok := faces.Reference("app-1")
	assert.False(t, ok)
}

func TestStartDiscardsFaceReference(t *testing.T) {
	detector := &stubDetector{faces: map[string][]dto.BoundingBox{
		"photo": {fullFrame},
		"frame": {fullFrame},
	}}
	svc, faces := newTestApplicationService(t, nil, detector)
	ctx := context.Background()

	_, detected, err := svc.SetProfileImage(ctx, "app-1", []byte("photo"))
	require.NoError(t, err)
	require.True(t, detected)

	profile, err := svc.Start(ctx, "app-1")
	require.NoError(t, err)
	assert.Empty(t, profile.ProfileImage)
	_, ok := faces.Reference("app-1")
	assert.False(t, ok)

	matched, err := svc.MatchVideo(ctx, "app-1", []byte("video"))
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestMatchVideoReseedsFromStoredProfileImage(t *testing.T) {
	stored := dto.NewUserProfile("app-1")
	stored.ProfileImage = []byte("photo")
	store := &seededStore{profiles: map[string]dto.UserProfile{"app-1": stored}}
	detector := &stubDetector{faces: map[string][]dto.BoundingBox{
		"photo": {fullFrame},
		"frame": {fullFrame},
	}}
	svc, _ := newTestApplicationService(t, store, detector)

	matched, err := svc.MatchVideo(context.Background(), "app-1", []byte("video"))
	require.NoError(t, err)
	assert.True(t, matched)
}
