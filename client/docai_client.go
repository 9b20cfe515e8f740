package client

import (
	"context"
	"fmt"
	"net/http"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"
)

// DocAIClient sends documents to a Google Document AI OCR processor.
type DocAIClient struct {
	client *documentai.DocumentProcessorClient
	name   string
}

func NewDocAIClient(ctx context.Context, projectID, location, processorID string, opts ...option.ClientOption) (*DocAIClient, error) {
	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", location)
	opts = append([]option.ClientOption{option.WithEndpoint(endpoint)}, opts...)

	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Document AI client: %w", err)
	}

	return &DocAIClient{
		client: client,
		name:   fmt.Sprintf("projects/%s/locations/%s/processors/%s", projectID, location, processorID),
	}, nil
}

// ExtractText processes an image or PDF and returns the document's full text.
func (c *DocAIClient) ExtractText(ctx context.Context, data []byte) (string, error) {
	req := &documentaipb.ProcessRequest{
		Name: c.name,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  data,
				MimeType: http.DetectContentType(data),
			},
		},
		SkipHumanReview: true,
	}

	resp, err := c.client.ProcessDocument(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to process document: %w", err)
	}
	return resp.GetDocument().GetText(), nil
}

func (c *DocAIClient) Close() error {
	return c.client.Close()
}
