package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type DocumentType string

const (
	DocTypeAadhaar     DocumentType = "Aadhaar Card"
	DocTypePAN         DocumentType = "PAN Card"
	DocTypeIncomeProof DocumentType = "Income Proof"
)

// RequiredDocumentTypes lists every document an application needs before it can be evaluated.
var RequiredDocumentTypes = []DocumentType{DocTypeAadhaar, DocTypePAN, DocTypeIncomeProof}

var documentSlugs = map[DocumentType]string{
	DocTypeAadhaar:     "aadhaar",
	DocTypePAN:         "pan",
	DocTypeIncomeProof: "income_proof",
}

// Slug returns the URL/file-name friendly form of the document type.
func (t DocumentType) Slug() string {
	if s, ok := documentSlugs[t]; ok {
		return s
	}
	return strings.ToLower(strings.ReplaceAll(string(t), " ", "_"))
}

// ParseDocumentType accepts either the slug ("income_proof") or the display name ("Income Proof").
func ParseDocumentType(s string) (DocumentType, error) {
	for t, slug := range documentSlugs {
		if strings.EqualFold(s, slug) || strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown document type: %s", s)
}

type ApplicationStatus string

const (
	StatusNotStarted    ApplicationStatus = ""
	StatusInProgress    ApplicationStatus = "In Progress"
	StatusApproved      ApplicationStatus = "Approved"
	StatusRejected      ApplicationStatus = "Rejected"
	StatusNeedsMoreInfo ApplicationStatus = "Needs More Information"
)

type ActivityType string

const (
	ActivitySuccess ActivityType = "success"
	ActivityFailure ActivityType = "failure"
	ActivityInfo    ActivityType = "info"
)

type Language string

const (
	LanguageEnglish Language = "English"
	LanguageHindi   Language = "Hindi"
	LanguageTamil   Language = "Tamil"
	LanguageTelugu  Language = "Telugu"
)

// IsSupported reports whether the language is one the application is localized for.
func (l Language) IsSupported() bool {
	switch l {
	case LanguageEnglish, LanguageHindi, LanguageTamil, LanguageTelugu:
		return true
	}
	return false
}

// ExtractedDetails holds candidate fields pulled out of OCR text.
// A nil field means the pattern for it did not match.
type ExtractedDetails struct {
	Name           *string `json:"name,omitempty"`
	DOB            *string `json:"dob,omitempty"`
	Income         *string `json:"income,omitempty"`
	EmploymentType *string `json:"employment_type,omitempty"`
	AadhaarNumber  *string `json:"aadhaar_number,omitempty"`
	PANNumber      *string `json:"pan_number,omitempty"`
}

type Document struct {
	ID               string            `json:"id"`
	Type             DocumentType      `json:"type"`
	ImageData        []byte            `json:"-"`
	IsVerified       bool              `json:"is_verified"`
	ExtractedDetails *ExtractedDetails `json:"extracted_details,omitempty"`
	UploadedAt       time.Time         `json:"uploaded_at"`
}

type RecentActivity struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Timestamp   time.Time    `json:"timestamp"`
	Type        ActivityType `json:"type"`
}

type UserProfile struct {
	ApplicantID       string                    `json:"applicant_id"`
	Name              string                    `json:"name"`
	Email             string                    `json:"email"`
	SelectedLanguage  Language                  `json:"selected_language"`
	Income            float64                   `json:"income"`
	LoanAmount        float64                   `json:"loan_amount"`
	LoanPeriodMonths  int                       `json:"loan_period_months"`
	Documents         map[DocumentType]Document `json:"documents"`
	ApplicationStatus ApplicationStatus         `json:"application_status"`
	RecentActivities  []RecentActivity          `json:"recent_activities"`
	ProfileImage      []byte                    `json:"profile_image,omitempty"`
}

// NewUserProfile returns an empty profile in the NotStarted state.
func NewUserProfile(applicantID string) UserProfile {
	return UserProfile{
		ApplicantID:       applicantID,
		SelectedLanguage:  LanguageEnglish,
		Documents:         make(map[DocumentType]Document),
		ApplicationStatus: StatusNotStarted,
		RecentActivities:  []RecentActivity{},
	}
}

// VerifiedDocumentCount counts documents whose IsVerified flag is set.
func (p UserProfile) VerifiedDocumentCount() int {
	n := 0
	for _, doc := range p.Documents {
		if doc.IsVerified {
			n++
		}
	}
	return n
}

// BoundingBox is a face rectangle in normalized [0,1] image coordinates.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Area returns Width*Height, or zero for degenerate boxes.
func (b BoundingBox) Area() float64 {
	if b.Width <= 0 || b.Height <= 0 {
		return 0
	}
	return b.Width * b.Height
}

type FaceDescriptor struct {
	BoundingBox BoundingBox `json:"bounding_box"`
}

// EligibilityResult is the outcome of one evaluation: the status to set and the single
// activity to record alongside it.
type EligibilityResult struct {
	Status        ApplicationStatus `json:"status"`
	Activity      RecentActivity    `json:"activity"`
	MonthlyIncome float64           `json:"monthly_income,omitempty"`
	MaxLoanAmount float64           `json:"max_loan_amount,omitempty"`
	EMI           float64           `json:"emi,omitempty"`
}

// NewRecentActivity stamps a new immutable activity entry with an id and the current time.
func NewRecentActivity(title, description string, activityType ActivityType) RecentActivity {
	return RecentActivity{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Timestamp:   time.Now().UTC(),
		Type:        activityType,
	}
}
