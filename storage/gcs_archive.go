package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"

	"github.com/Aashish23092/loan-intake-verification/dto"
)

// GCSArchive writes archived images to a Cloud Storage bucket.
type GCSArchive struct {
	bucket *storage.BucketHandle
	logger *zap.Logger
}

func NewGCSArchive(client *storage.Client, bucket string, logger *zap.Logger) *GCSArchive {
	return &GCSArchive{
		bucket: client.Bucket(bucket),
		logger: logger,
	}
}

// Save writes the object only if it does not exist yet.
func (a *GCSArchive) Save(ctx context.Context, docType dto.DocumentType, data []byte, at time.Time) (string, error) {
	name := ArchiveName(docType, at)
	writer := a.bucket.Object(name).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = http.DetectContentType(data)

	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		_ = writer.Close()
		if isPreconditionFailed(err) {
			a.logger.Info("archive object already exists", zap.String("object", name))
			return name, nil
		}
		return "", fmt.Errorf("failed to write to GCS: %w", err)
	}

	if err := writer.Close(); err != nil {
		if isPreconditionFailed(err) {
			a.logger.Info("archive object already exists", zap.String("object", name))
			return name, nil
		}
		return "", fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	return name, nil
}

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}
