package handler

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Aashish23092/loan-intake-verification/dto"
	"github.com/Aashish23092/loan-intake-verification/service"
)

type ApplicationHandler struct {
	applications    *service.ApplicationService
	documents       *service.DocumentService
	eligibility     *service.EligibilityService
	providerTimeout time.Duration
	maxFileSize     int64
	logger          *zap.Logger
}

func NewApplicationHandler(
	applications *service.ApplicationService,
	documents *service.DocumentService,
	eligibility *service.EligibilityService,
	providerTimeout time.Duration,
	maxFileSize int64,
	logger *zap.Logger,
) *ApplicationHandler {
	return &ApplicationHandler{
		applications:    applications,
		documents:       documents,
		eligibility:     eligibility,
		providerTimeout: providerTimeout,
		maxFileSize:     maxFileSize,
		logger:          logger,
	}
}

// providerContext bounds calls that reach OCR or face detection providers.
func (h *ApplicationHandler) providerContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.providerTimeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.providerTimeout)
}

// GetApplication handles GET /applications/:id
func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	profile, err := h.applications.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.sendServiceError(c, "Failed to load application", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewApplicationResponse(profile))
}

// StartApplication handles POST /applications/:id/start
func (h *ApplicationHandler) StartApplication(c *gin.Context) {
	profile, err := h.applications.Start(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.sendServiceError(c, "Failed to start application", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewApplicationResponse(profile))
}

// ResetApplication handles POST /applications/:id/reset
func (h *ApplicationHandler) ResetApplication(c *gin.Context) {
	profile, err := h.applications.Reset(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.sendServiceError(c, "Failed to reset application", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewApplicationResponse(profile))
}

// UpdateProfile handles PUT /applications/:id/profile
func (h *ApplicationHandler) UpdateProfile(c *gin.Context) {
	var req dto.ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, dto.ErrCodeInvalidRequest, "Invalid profile payload", err)
		return
	}
	if err := req.Validate(); err != nil {
		h.sendError(c, http.StatusBadRequest, dto.ErrCodeInvalidRequest, "Invalid profile payload", err)
		return
	}

	profile, err := h.applications.UpdateProfile(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.sendServiceError(c, "Failed to update profile", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewApplicationResponse(profile))
}

// UploadDocument handles POST /applications/:id/documents/:type
func (h *ApplicationHandler) UploadDocument(c *gin.Context) {
	docType, err := dto.ParseDocumentType(c.Param("type"))
	if err != nil {
		h.sendError(c, http.StatusBadRequest, dto.ErrCodeUnknownDocumentType, "Unknown document type", err)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		h.sendError(c, http.StatusBadRequest, dto.ErrCodeInvalidRequest, "File is required", dto.ErrFileRequired)
		return
	}

	req := &dto.DocumentUploadRequest{File: header, Type: docType}
	if err := req.Validate(); err != nil {
		h.sendError(c, http.StatusBadRequest, dto.ErrCodeInvalidRequest, "Invalid document upload", err)
		return
	}

	data, err := h.readUpload(header)
	if err != nil {
		h.sendError(c, http.StatusBadRequest, dto.ErrCodeInvalidRequest, "Failed to read upload", err)
		return
	}

	ctx, cancel := h.providerContext(c)
	defer cancel()

	doc, err := h.documents.VerifyDocument(ctx, c.Param("id"), docType, data)
	if err != nil {
		h.sendServiceError(c, "Failed to verify document", err)
		return
	}
	c.JSON(http.StatusOK, dto.DocumentVerifyResponse{Document: *doc})
}

// UploadProfileImage handles POST /applications/:id/profile-image
func (h *ApplicationHandler) UploadProfileImage(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		h.sendError(c, http.StatusBadRequest, dto.ErrCodeInvalidRequest, "File is required", dto.ErrFileRequired)
		return
	}
	data, err := h.readUpload(header)
	if err != nil {
		h.sendError(c, http.StatusBadRequest, dto.ErrCodeInvalidRequest, "Failed to read upload", err)
		return
	}

	ctx, cancel := h.providerContext(c)
	defer cancel()

	_, detected, err := h.applications.SetProfileImage(ctx, c.Param("id"), data)
	if err != nil {
		h.sendServiceError(c, "Failed to store profile image", err)
		return
	}
	c.JSON(http.StatusOK, dto.ProfileFaceResponse{FaceDetected: detected})
}

// UploadVideo handles POST /applications/:id/video
func (h *ApplicationHandler) UploadVideo(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		h.sendError(c, http.StatusBadRequest, dto.ErrCodeInvalidRequest, "File is required", dto.ErrFileRequired)
		return
	}
	data, err := h.readUpload(header)
	if err != nil {
		h.sendError(c, http.StatusBadRequest, dto.ErrCodeInvalidRequest, "Failed to read upload", err)
		return
	}

	ctx, cancel := h.providerContext(c)
	defer cancel()

	matched, err := h.applications.MatchVideo(ctx, c.Param("id"), data)
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, dto.ErrCodeFaceMatchFailed, "Failed to match face", err)
		return
	}
	c.JSON(http.StatusOK, dto.FaceMatchResponse{Matched: matched})
}

// SubmitLoanTerms handles POST /applications/:id/loan
func (h *ApplicationHandler) SubmitLoanTerms(c *gin.Context) {
	var req dto.LoanTermsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, dto.ErrCodeInvalidLoanTerms, "Invalid loan terms", err)
		return
	}

	resp, err := h.applications.SubmitLoanTerms(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.sendServiceError(c, "Failed to submit loan terms", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Evaluate handles POST /applications/:id/evaluate
func (h *ApplicationHandler) Evaluate(c *gin.Context) {
	result, profile, err := h.eligibility.EvaluateApplication(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.sendServiceError(c, "Failed to evaluate application", err)
		return
	}
	c.JSON(http.StatusOK, dto.LoanDecisionResponse{Evaluated: true, Result: &result, Profile: profile})
}

func (h *ApplicationHandler) readUpload(header *multipart.FileHeader) ([]byte, error) {
	if h.maxFileSize > 0 && header.Size > h.maxFileSize {
		return nil, fmt.Errorf("file %s exceeds maximum size of %d bytes", header.Filename, h.maxFileSize)
	}

	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", header.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", header.Filename, err)
	}
	return data, nil
}
