package client

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/Aashish23092/loan-intake-verification/dto"
)

// QRClient reads the printed QR code of an Aadhaar card. The decoded XML is rendered
// back as plain text so it flows through the same field extraction as OCR output.
type QRClient struct{}

func NewQRClient() *QRClient {
	return &QRClient{}
}

func (c *QRClient) ExtractText(ctx context.Context, imageData []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("failed to create binary bitmap: %w", err)
	}

	result, err := qrcode.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decode QR code: %w", err)
	}

	var qrData dto.AadhaarQRData
	if err := xml.Unmarshal([]byte(result.GetText()), &qrData); err != nil {
		// Not an Aadhaar print-letter payload; hand back whatever the code holds
		return result.GetText(), nil
	}
	return qrData.Text(), nil
}
