package service

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Aashish23092/loan-intake-verification/dto"
	"github.com/Aashish23092/loan-intake-verification/metrics"
	"github.com/Aashish23092/loan-intake-verification/session"
	"github.com/Aashish23092/loan-intake-verification/utils"
)

// maxPageWorkers bounds concurrent OCR calls for the pages of one scanned PDF.
const maxPageWorkers = 4

type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte) (string, error)
}

// ArchiveStore keeps a copy of every verified document image.
type ArchiveStore interface {
	Save(ctx context.Context, docType dto.DocumentType, data []byte, at time.Time) (string, error)
}

type DocumentService struct {
	sessions  *session.Manager
	extractor TextExtractor
	fields    *utils.FieldExtractor
	pdf       PDFProcessor
	archive   ArchiveStore
	logger    *zap.Logger
	now       func() time.Time
}

func NewDocumentService(
	sessions *session.Manager,
	extractor TextExtractor,
	fields *utils.FieldExtractor,
	pdf PDFProcessor,
	archive ArchiveStore,
	logger *zap.Logger,
) *DocumentService {
	return &DocumentService{
		sessions:  sessions,
		extractor: extractor,
		fields:    fields,
		pdf:       pdf,
		archive:   archive,
		logger:    logger,
		now:       time.Now,
	}
}

// Validate decides whether the recognized text verifies a document of the given type
// and which details to keep. Unknown types are never verified.
func (s *DocumentService) Validate(docType dto.DocumentType, text string) (bool, *dto.ExtractedDetails) {
	switch docType {
	case dto.DocTypeAadhaar:
		if number := s.fields.ExtractAadhaarNumber(text); number != nil {
			return true, &dto.ExtractedDetails{AadhaarNumber: number}
		}
	case dto.DocTypePAN:
		if pan := s.fields.ExtractPANNumber(text); pan != nil && s.fields.IsValidPAN(*pan) {
			return true, &dto.ExtractedDetails{PANNumber: pan}
		}
	case dto.DocTypeIncomeProof:
		if amount := s.fields.ExtractIncomeProofAmount(text); amount != nil {
			return true, &dto.ExtractedDetails{Income: amount}
		}
	default:
		s.logger.Warn("no verification rule for document type", zap.String("document_type", string(docType)))
	}
	return false, nil
}

// VerifyDocument runs OCR on an uploaded document, validates it and stores it as the live
// document of its type. Provider failures leave the document unverified; the only errors
// returned come from the session (profile load, or the same type already being verified).
func (s *DocumentService) VerifyDocument(ctx context.Context, applicantID string, docType dto.DocumentType, data []byte) (*dto.Document, error) {
	log := s.logger.With(zap.String("applicant_id", applicantID), zap.String("document_type", string(docType)))

	sess, err := s.sessions.Get(ctx, applicantID)
	if err != nil {
		return nil, err
	}

	release, err := sess.BeginVerification(docType)
	if err != nil {
		return nil, err
	}
	defer release()

	text := s.recognize(ctx, log, docType, data)
	verified, details := s.Validate(docType, text)
	uploadedAt := s.now().UTC()

	doc := dto.Document{
		ID:               uuid.NewString(),
		Type:             docType,
		ImageData:        data,
		IsVerified:       verified,
		ExtractedDetails: details,
		UploadedAt:       uploadedAt,
	}

	if verified && s.archive != nil {
		name, err := s.archive.Save(ctx, docType, data, uploadedAt)
		if err != nil {
			log.Error("failed to archive verified document", zap.Error(err))
		} else {
			log.Info("verified document archived", zap.String("object", name))
		}
	}

	profile := sess.ApplyVerification(doc)
	metrics.DocumentsProcessed.WithLabelValues(docType.Slug(), strconv.FormatBool(verified)).Inc()
	log.Info("document processed", zap.Bool("verified", verified), zap.Int("text_chars", len(text)))

	_ = s.sessions.Persist(ctx, profile)
	return &doc, nil
}

// recognize returns the document text, or "" when nothing could be read.
func (s *DocumentService) recognize(ctx context.Context, log *zap.Logger, docType dto.DocumentType, data []byte) string {
	if docType == dto.DocTypeIncomeProof && isPDF(data) {
		return s.recognizePDF(ctx, log, data)
	}

	text, err := s.extractor.ExtractText(ctx, data)
	if err != nil {
		log.Warn("text extraction failed", zap.Error(err))
		return ""
	}
	return text
}

// recognizePDF prefers the embedded text layer and falls back to OCR of the page images.
func (s *DocumentService) recognizePDF(ctx context.Context, log *zap.Logger, data []byte) string {
	text, err := s.pdf.ExtractText(data)
	if err != nil {
		log.Warn("pdf text extraction failed", zap.Error(err))
	}
	if len(strings.TrimSpace(text)) >= minTextLayerChars {
		return text
	}

	log.Info("pdf has no usable text layer, attempting image-based OCR")
	images, err := s.pdf.ExtractImages(data)
	if err != nil || len(images) == 0 {
		log.Warn("failed to extract images from pdf", zap.Error(err))
		return text
	}

	pages := make([]string, len(images))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxPageWorkers)
	for i, img := range images {
		g.Go(func() error {
			var buf bytes.Buffer
			if err := png.Encode(&buf, img); err != nil {
				return fmt.Errorf("failed to encode page %d: %w", i+1, err)
			}
			pageText, err := s.extractor.ExtractText(gctx, buf.Bytes())
			if err != nil {
				log.Warn("OCR failed for pdf page", zap.Int("page", i+1), zap.Error(err))
				return nil
			}
			pages[i] = pageText
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Warn("pdf page OCR aborted", zap.Error(err))
	}

	return strings.Join(pages, "\n")
}
