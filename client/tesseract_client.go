package client

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

type TesseractClient struct {
	dataPath string
	language string
}

func NewTesseractClient(dataPath, language string) *TesseractClient {
	if language == "" {
		language = "eng"
	}
	return &TesseractClient{
		dataPath: dataPath,
		language: language,
	}
}

// ExtractText extracts text from in-memory image bytes using Tesseract OCR
func (tc *TesseractClient) ExtractText(ctx context.Context, imageData []byte) (string, error) {
	text, _, err := tc.ExtractTextAndQuality(ctx, imageData)
	return text, err
}

// ExtractTextAndQuality returns the recognized text plus the mean word confidence (0-100)
func (tc *TesseractClient) ExtractTextAndQuality(ctx context.Context, imageData []byte) (string, float64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if tc.dataPath != "" {
		client.SetTessdataPrefix(tc.dataPath)
	}
	if err := client.SetLanguage(tc.language); err != nil {
		return "", 0, fmt.Errorf("failed to set language: %w", err)
	}

	if err := client.SetImageFromBytes(imageData); err != nil {
		return "", 0, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", 0, fmt.Errorf("failed to extract text: %w", err)
	}

	// Get bounding boxes to calculate confidence
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return text, 0, nil
	}

	var totalConf float64
	for _, box := range boxes {
		totalConf += box.Confidence
	}

	avgConf := 0.0
	if len(boxes) > 0 {
		avgConf = totalConf / float64(len(boxes))
	}

	return text, avgConf, nil
}
