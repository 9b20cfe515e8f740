// Package session holds the per-applicant application state. All writes to a profile go
// through the single-writer functions on Session; readers only ever see copies.
package session

import (
	"errors"
	"sync"

	"github.com/Aashish23092/loan-intake-verification/dto"
)

// MaxRecentActivities bounds the activity log.
const MaxRecentActivities = 5

var ErrVerificationInProgress = errors.New("a verification for this document type is already in progress")

type Session struct {
	mu       sync.Mutex
	profile  dto.UserProfile
	inFlight map[dto.DocumentType]bool
}

// New wraps an existing profile (e.g. one loaded from the profile store).
func New(profile dto.UserProfile) *Session {
	if profile.Documents == nil {
		profile.Documents = make(map[dto.DocumentType]dto.Document)
	}
	if profile.RecentActivities == nil {
		profile.RecentActivities = []dto.RecentActivity{}
	}
	return &Session{
		profile:  profile,
		inFlight: make(map[dto.DocumentType]bool),
	}
}

// Snapshot returns a deep copy of the profile.
func (s *Session) Snapshot() dto.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyProfile(s.profile)
}

// BeginVerification marks a document type as being verified. The returned release func
// must be called once the verification has been applied (or abandoned).
func (s *Session) BeginVerification(docType dto.DocumentType) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[docType] {
		return nil, ErrVerificationInProgress
	}
	s.inFlight[docType] = true
	return func() {
		s.mu.Lock()
		delete(s.inFlight, docType)
		s.mu.Unlock()
	}, nil
}

// Busy reports whether any document verification is still running.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inFlight) > 0
}

// ApplyVerification stores doc as the live document for its type, replacing any previous one.
func (s *Session) ApplyVerification(doc dto.Document) dto.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile.Documents[doc.Type] = doc
	return copyProfile(s.profile)
}

// ApplyEligibilityResult sets the status and appends the result's activity in one step.
func (s *Session) ApplyEligibilityResult(result dto.EligibilityResult) dto.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyEligibilityResultLocked(result)
	return copyProfile(s.profile)
}

func (s *Session) applyEligibilityResultLocked(result dto.EligibilityResult) {
	s.profile.ApplicationStatus = result.Status
	if result.MonthlyIncome > 0 {
		s.profile.Income = result.MonthlyIncome
	}
	s.appendActivityLocked(result.Activity)
}

// Evaluate runs evaluate on a copy of the profile and applies its result, all under the
// session lock so no other write can land in between.
func (s *Session) Evaluate(evaluate func(dto.UserProfile) dto.EligibilityResult) (dto.EligibilityResult, dto.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := evaluate(copyProfile(s.profile))
	s.applyEligibilityResultLocked(result)
	return result, copyProfile(s.profile)
}

// AppendActivity records an activity at the head of the log, dropping the oldest beyond the bound.
func (s *Session) AppendActivity(activity dto.RecentActivity) dto.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendActivityLocked(activity)
	return copyProfile(s.profile)
}

func (s *Session) SetLoanTerms(amount float64, periodMonths int) dto.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile.LoanAmount = amount
	s.profile.LoanPeriodMonths = periodMonths
	return copyProfile(s.profile)
}

// UpdateProfile sets the non-empty personal details.
func (s *Session) UpdateProfile(name, email string, language dto.Language) dto.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name != "" {
		s.profile.Name = name
	}
	if email != "" {
		s.profile.Email = email
	}
	if language != "" {
		s.profile.SelectedLanguage = language
	}
	return copyProfile(s.profile)
}

func (s *Session) SetProfileImage(image []byte) dto.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile.ProfileImage = append([]byte(nil), image...)
	return copyProfile(s.profile)
}

// Start begins a new application: the profile is cleared and marked InProgress.
func (s *Session) Start() dto.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = dto.NewUserProfile(s.profile.ApplicantID)
	s.profile.ApplicationStatus = dto.StatusInProgress
	return copyProfile(s.profile)
}

// Reset discards all application data and returns to NotStarted.
func (s *Session) Reset() dto.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = dto.NewUserProfile(s.profile.ApplicantID)
	return copyProfile(s.profile)
}

func (s *Session) appendActivityLocked(activity dto.RecentActivity) {
	activities := make([]dto.RecentActivity, 0, MaxRecentActivities)
	activities = append(activities, activity)
	activities = append(activities, s.profile.RecentActivities...)
	if len(activities) > MaxRecentActivities {
		activities = activities[:MaxRecentActivities]
	}
	s.profile.RecentActivities = activities
}

func copyProfile(p dto.UserProfile) dto.UserProfile {
	out := p
	out.Documents = make(map[dto.DocumentType]dto.Document, len(p.Documents))
	for k, v := range p.Documents {
		if v.ExtractedDetails != nil {
			details := *v.ExtractedDetails
			v.ExtractedDetails = &details
		}
		v.ImageData = append([]byte(nil), v.ImageData...)
		out.Documents[k] = v
	}
	out.RecentActivities = append([]dto.RecentActivity{}, p.RecentActivities...)
	if p.ProfileImage != nil {
		out.ProfileImage = append([]byte(nil), p.ProfileImage...)
	}
	return out
}
