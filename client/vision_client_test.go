package client

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func newTestVisionClient(t *testing.T, handler http.HandlerFunc) *VisionClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewVisionClient(context.Background(), "", srv.URL+"/", option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func TestVisionExtractText(t *testing.T) {
	var gotFeature string
	c := newTestVisionClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Requests []struct {
				Features []struct {
					Type string `json:"type"`
				} `json:"features"`
			} `json:"requests"`
		}
		_ = json.Unmarshal(body, &req)
		if len(req.Requests) > 0 && len(req.Requests[0].Features) > 0 {
			gotFeature = req.Requests[0].Features[0].Type
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"responses":[{"fullTextAnnotation":{"text":"INCOME TAX DEPARTMENT\nABCDE1234F"}}]}`))
	})

	text, err := c.ExtractText(context.Background(), testPNG(t, 10, 10))
	require.NoError(t, err)
	assert.Equal(t, "INCOME TAX DEPARTMENT\nABCDE1234F", text)
	assert.Equal(t, featureTextDetection, gotFeature)
}

func TestVisionExtractTextNoText(t *testing.T) {
	c := newTestVisionClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"responses":[{}]}`))
	})

	text, err := c.ExtractText(context.Background(), testPNG(t, 10, 10))
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestVisionAnnotateError(t *testing.T) {
	c := newTestVisionClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"responses":[{"error":{"code":3,"message":"Bad image data."}}]}`))
	})

	_, err := c.ExtractText(context.Background(), testPNG(t, 10, 10))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bad image data.")
}

func TestVisionDetectFacesNormalizesBoxes(t *testing.T) {
	c := newTestVisionClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"responses":[{"faceAnnotations":[
			{"boundingPoly":{"vertices":[{"x":50,"y":25},{"x":150,"y":25},{"x":150,"y":75},{"x":50,"y":75}]}},
			{"boundingPoly":{"vertices":[{"y":0},{"x":20},{"x":20,"y":10},{"y":10}]}}
		]}]}`))
	})

	boxes, err := c.DetectFaces(context.Background(), testPNG(t, 200, 100))
	require.NoError(t, err)
	require.Len(t, boxes, 2)

	assert.InDelta(t, 0.25, boxes[0].X, 1e-9)
	assert.InDelta(t, 0.25, boxes[0].Y, 1e-9)
	assert.InDelta(t, 0.5, boxes[0].Width, 1e-9)
	assert.InDelta(t, 0.5, boxes[0].Height, 1e-9)

	assert.InDelta(t, 0.0, boxes[1].X, 1e-9)
	assert.InDelta(t, 0.1, boxes[1].Width, 1e-9)
	assert.InDelta(t, 0.1, boxes[1].Height, 1e-9)
}

func TestVisionDetectFacesNone(t *testing.T) {
	c := newTestVisionClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"responses":[{}]}`))
	})

	boxes, err := c.DetectFaces(context.Background(), testPNG(t, 20, 20))
	require.NoError(t, err)
	assert.Empty(t, boxes)
}

func TestVisionDetectFacesRejectsNonImage(t *testing.T) {
	c := newTestVisionClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("API should not be called for undecodable input")
	})

	_, err := c.DetectFaces(context.Background(), []byte("not an image"))
	assert.Error(t, err)
}
