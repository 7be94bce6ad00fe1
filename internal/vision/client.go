package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

const (
	defaultVisionURL   = "http://localhost:8000"
	defaultVisionModel = "face-128" // model name for reference only
)

// Client detects faces using the face embedding server.
type Client struct {
	baseURL      string
	model        string
	dim          int
	maxFrameSize int
	client       *http.Client
}

// NewClient creates a new embedding server client. Faces whose embedding
// dimension differs from dim are rejected when dim > 0.
func NewClient(baseURL, model string, dim, maxFrameSize int) *Client {
	if baseURL == "" {
		baseURL = defaultVisionURL
	}
	if model == "" {
		model = defaultVisionModel
	}
	return &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		model:        model,
		dim:          dim,
		maxFrameSize: maxFrameSize,
		client:       &http.Client{},
	}
}

// faceDetection represents a single detected face in the server response
type faceDetection struct {
	FaceIndex int       `json:"face_index"`
	Dim       int       `json:"dim"`
	Embedding []float32 `json:"embedding"`
	BBox      []float64 `json:"bbox"` // [x1, y1, x2, y2] in pixels
	DetScore  float64   `json:"det_score"`
}

// faceResponse represents the response from the face embedding endpoint
type faceResponse struct {
	FacesCount int             `json:"faces_count"`
	Faces      []faceDetection `json:"faces"`
	Model      string          `json:"model"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// Model returns the model name being used
func (c *Client) Model() string {
	return c.model
}

// LoadModels checks that the embedding server is up and its models are loaded.
func (c *Client) LoadModels(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrModelsUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d: %s", ErrModelsUnavailable, resp.StatusCode, string(body))
	}

	var health healthResponse
	if err := json.Unmarshal(body, &health); err == nil && health.Status != "" && health.Status != "ok" {
		return fmt.Errorf("%w: server status %q", ErrModelsUnavailable, health.Status)
	}
	return nil
}

// DetectFaces prepares the frame and asks the server for face embeddings.
func (c *Client) DetectFaces(ctx context.Context, data []byte) ([]Face, error) {
	frame, err := PrepareFrame(data, c.maxFrameSize)
	if err != nil {
		return nil, err
	}

	body, err := c.postMultipartImage(ctx, "/embed/face", frame.JPEG)
	if err != nil {
		return nil, err
	}

	var faceResp faceResponse
	if err := json.Unmarshal(body, &faceResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	faces := make([]Face, 0, len(faceResp.Faces))
	for _, det := range faceResp.Faces {
		if len(det.Embedding) == 0 {
			continue
		}
		if c.dim > 0 && len(det.Embedding) != c.dim {
			return nil, fmt.Errorf("embedding dimension %d does not match configured %d", len(det.Embedding), c.dim)
		}
		faces = append(faces, Face{
			BBox:      ToRelative(det.BBox, frame.Width, frame.Height),
			Embedding: det.Embedding,
			Score:     det.DetScore,
		})
	}

	return SuppressOverlaps(faces, OverlapThreshold), nil
}

// postMultipartImage posts the image as a multipart form to the given endpoint.
func (c *Client) postMultipartImage(ctx context.Context, endpoint string, imageData []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="frame.jpg"`)
	h.Set("Content-Type", "image/jpeg")
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}
	return body, nil
}

var _ Detector = (*Client)(nil)
