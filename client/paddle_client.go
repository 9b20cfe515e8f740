package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// PaddleClient talks to a PaddleOCR hub serving /predict/ocr_system
type PaddleClient struct {
	apiURL     string
	httpClient *http.Client
}

func NewPaddleClient(apiURL string, httpClient *http.Client) *PaddleClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &PaddleClient{
		apiURL:     apiURL,
		httpClient: httpClient,
	}
}

type paddleResponse struct {
	Results [][]struct {
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
	} `json:"results"`
}

// ExtractText sends the image to the PaddleOCR server and joins the recognized lines
func (p *PaddleClient) ExtractText(ctx context.Context, imageData []byte) (string, error) {
	payload := map[string]interface{}{
		"images": []string{base64.StdEncoding.EncodeToString(imageData)},
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(payloadBytes))
	if err != nil {
		return "", fmt.Errorf("failed to build PaddleOCR request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call PaddleOCR API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("PaddleOCR API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result paddleResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode PaddleOCR response: %w", err)
	}

	var lines []string
	if len(result.Results) > 0 {
		for _, line := range result.Results[0] {
			if t := strings.TrimSpace(line.Text); t != "" {
				lines = append(lines, t)
			}
		}
	}

	return strings.Join(lines, "\n"), nil
}
