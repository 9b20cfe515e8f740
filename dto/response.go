package dto

type ErrorCode string

const (
	ErrCodeInvalidRequest       ErrorCode = "INVALID_REQUEST"
	ErrCodeUnknownDocumentType  ErrorCode = "UNKNOWN_DOCUMENT_TYPE"
	ErrCodeVerificationFailed   ErrorCode = "VERIFICATION_FAILED"
	ErrCodeVerificationInFlight ErrorCode = "VERIFICATION_IN_PROGRESS"
	ErrCodeInvalidLoanTerms     ErrorCode = "INVALID_LOAN_TERMS"
	ErrCodeFaceMatchFailed      ErrorCode = "FACE_MATCH_FAILED"
	ErrCodeApplicationNotFound  ErrorCode = "APPLICATION_NOT_FOUND"
	ErrCodeInternal             ErrorCode = "INTERNAL_ERROR"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   ErrorCode `json:"error"`
	Message string    `json:"message"`
	Code    int       `json:"code"`
}

// ApplicationResponse is the view of a profile returned by the API
type ApplicationResponse struct {
	Profile           UserProfile `json:"profile"`
	UploadedDocuments int         `json:"uploaded_documents"`
	VerifiedDocuments int         `json:"verified_documents"`
	RequiredDocuments int         `json:"required_documents"`
}

// NewApplicationResponse computes the upload progress counters for a profile
func NewApplicationResponse(p UserProfile) ApplicationResponse {
	return ApplicationResponse{
		Profile:           p,
		UploadedDocuments: len(p.Documents),
		VerifiedDocuments: p.VerifiedDocumentCount(),
		RequiredDocuments: len(RequiredDocumentTypes),
	}
}

type DocumentVerifyResponse struct {
	Document Document `json:"document"`
}

type FaceMatchResponse struct {
	Matched bool `json:"matched"`
}

type ProfileFaceResponse struct {
	FaceDetected bool `json:"face_detected"`
}

type LoanDecisionResponse struct {
	Evaluated bool               `json:"evaluated"`
	Result    *EligibilityResult `json:"result,omitempty"`
	Profile   UserProfile        `json:"profile"`
}
