package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"

	"github.com/Aashish23092/loan-intake-verification/dto"
)

const (
	featureTextDetection = "TEXT_DETECTION"
	featureFaceDetection = "FACE_DETECTION"
)

// VisionClient calls the Google Cloud Vision images:annotate API. It serves both as a
// text extraction provider and as the face detector.
type VisionClient struct {
	svc *vision.Service
}

// NewVisionClient creates a Cloud Vision client authenticated with an API key.
// endpoint overrides the default API base URL (used for regional endpoints and tests).
func NewVisionClient(ctx context.Context, apiKey, endpoint string, opts ...option.ClientOption) (*VisionClient, error) {
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}

	svc, err := vision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}
	return &VisionClient{svc: svc}, nil
}

// ExtractText runs TEXT_DETECTION and returns the full recognized text.
// An image with no text yields "" and no error.
func (c *VisionClient) ExtractText(ctx context.Context, imageData []byte) (string, error) {
	resp, err := c.annotate(ctx, imageData, featureTextDetection)
	if err != nil {
		return "", err
	}
	if resp == nil || resp.FullTextAnnotation == nil {
		return "", nil
	}
	return resp.FullTextAnnotation.Text, nil
}

// DetectFaces runs FACE_DETECTION and returns the detected faces in the order the API
// reported them, as boxes normalized to the image dimensions.
func (c *VisionClient) DetectFaces(ctx context.Context, imageData []byte) ([]dto.BoundingBox, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to read image dimensions: %w", err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, fmt.Errorf("image has zero size")
	}

	resp, err := c.annotate(ctx, imageData, featureFaceDetection)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}

	var boxes []dto.BoundingBox
	for _, face := range resp.FaceAnnotations {
		if face == nil || face.BoundingPoly == nil || len(face.BoundingPoly.Vertices) == 0 {
			continue
		}
		boxes = append(boxes, normalizePolygon(face.BoundingPoly.Vertices, float64(cfg.Width), float64(cfg.Height)))
	}
	return boxes, nil
}

func (c *VisionClient) annotate(ctx context.Context, imageData []byte, feature string) (*vision.AnnotateImageResponse, error) {
	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{
			{
				Image:    &vision.Image{Content: base64.StdEncoding.EncodeToString(imageData)},
				Features: []*vision.Feature{{Type: feature}},
			},
		},
	}

	batch, err := c.svc.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("vision %s request failed: %w", feature, err)
	}
	if len(batch.Responses) == 0 {
		return nil, nil
	}

	resp := batch.Responses[0]
	if resp.Error != nil && resp.Error.Message != "" {
		return nil, fmt.Errorf("vision %s failed: %s", feature, resp.Error.Message)
	}
	return resp, nil
}

// normalizePolygon converts the pixel polygon to its axis-aligned bounding rectangle in [0,1].
func normalizePolygon(vertices []*vision.Vertex, width, height float64) dto.BoundingBox {
	minX, minY := width, height
	maxX, maxY := 0.0, 0.0
	for _, v := range vertices {
		if v == nil {
			continue
		}
		x, y := float64(v.X), float64(v.Y)
		if x < minX {
			minX = x
		}
		if y < minY {
			minY = y
		}
		if x > maxX {
			maxX = x
		}
		if y > maxY {
			maxY = y
		}
	}
	if maxX < minX || maxY < minY {
		return dto.BoundingBox{}
	}
	return dto.BoundingBox{
		X:      clamp01(minX / width),
		Y:      clamp01(minY / height),
		Width:  clamp01((maxX - minX) / width),
		Height: clamp01((maxY - minY) / height),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
