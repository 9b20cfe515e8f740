package dto

import (
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
)

const (
	MaxLoanAmount       = 1000000.0
	MaxLoanPeriodMonths = 60
)

var (
	ErrInvalidLoanAmount = fmt.Errorf("loan amount must be greater than 0 and at most %.0f", MaxLoanAmount)
	ErrInvalidLoanPeriod = fmt.Errorf("loan period must be between 1 and %d months", MaxLoanPeriodMonths)
	ErrFileRequired      = errors.New("file is required")
)

// LoanTermsRequest is the body of POST /applications/:id/loan
type LoanTermsRequest struct {
	Amount       float64 `json:"amount" binding:"required"`
	PeriodMonths int     `json:"period_months" binding:"required"`
}

// Validate checks the requested terms against the product limits
func (r *LoanTermsRequest) Validate() error {
	if r.Amount <= 0 || r.Amount > MaxLoanAmount {
		return ErrInvalidLoanAmount
	}
	if r.PeriodMonths <= 0 || r.PeriodMonths > MaxLoanPeriodMonths {
		return ErrInvalidLoanPeriod
	}
	return nil
}

// ProfileUpdateRequest is the body of PUT /applications/:id/profile
type ProfileUpdateRequest struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Language Language `json:"language"`
}

func (r *ProfileUpdateRequest) Validate() error {
	if r.Language != "" && !r.Language.IsSupported() {
		return fmt.Errorf("unsupported language: %s", r.Language)
	}
	if r.Email != "" && !strings.Contains(r.Email, "@") {
		return fmt.Errorf("invalid email: %s", r.Email)
	}
	return nil
}

// DocumentUploadRequest carries one uploaded document image or PDF
type DocumentUploadRequest struct {
	File *multipart.FileHeader
	Type DocumentType
}

// Validate validates the upload, mirroring the accepted file extensions
func (r *DocumentUploadRequest) Validate() error {
	if r.File == nil {
		return ErrFileRequired
	}

	filename := strings.ToLower(r.File.Filename)
	validExtensions := []string{".png", ".jpg", ".jpeg"}
	if r.Type == DocTypeIncomeProof {
		validExtensions = append(validExtensions, ".pdf")
	}
	for _, ext := range validExtensions {
		if strings.HasSuffix(filename, ext) {
			return nil
		}
	}
	return fmt.Errorf("invalid file type for %s. Supported: %s", r.Type, strings.Join(validExtensions, ", "))
}
