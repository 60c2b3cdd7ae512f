// Package posedet talks to the external pose-detection service. The
// realtime path receives landmark frames pushed by the host; this client
// exists for offline tooling that replays video stills through the same
// detector.
package posedet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"court-motion/pose"
)

// Client communicates with the pose-detection HTTP service.
type Client struct {
	serviceURL string
	client     *http.Client
}

// detectionResponse is the wire shape returned by the /detect endpoint.
type detectionResponse struct {
	Landmarks []pose.Landmark `json:"landmarks"`
}

// NewClient creates a pose-detector client.
func NewClient(serviceURL string) *Client {
	if serviceURL == "" {
		serviceURL = "http://localhost:5003"
	}

	return &Client{
		serviceURL: serviceURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// HealthCheck verifies the detection service is running.
func (c *Client) HealthCheck() error {
	resp, err := c.client.Get(c.serviceURL + "/health")
	if err != nil {
		return fmt.Errorf("pose service not reachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pose service unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// DetectFile runs pose detection on a single image file. The timestamp is
// attached to the resulting frame; the detector itself has no clock.
func (c *Client) DetectFile(imagePath string, timestamp float64) (pose.Frame, error) {
	file, err := os.Open(filepath.Clean(imagePath))
	if err != nil {
		return pose.Frame{}, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return pose.Frame{}, fmt.Errorf("failed to read image file: %w", err)
	}
	return c.DetectBytes(data, filepath.Base(imagePath), timestamp)
}

// DetectBytes runs pose detection on raw image bytes.
func (c *Client) DetectBytes(imageData []byte, filename string, timestamp float64) (pose.Frame, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return pose.Frame{}, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return pose.Frame{}, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return pose.Frame{}, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequest("POST", c.serviceURL+"/detect", body)
	if err != nil {
		return pose.Frame{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return pose.Frame{}, fmt.Errorf("detection request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return pose.Frame{}, fmt.Errorf("pose service returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var detResp detectionResponse
	if err := json.NewDecoder(resp.Body).Decode(&detResp); err != nil {
		return pose.Frame{}, fmt.Errorf("failed to decode response: %w", err)
	}

	// The wire boundary validates landmark count; only code past this
	// point may assume well-formed frames.
	if len(detResp.Landmarks) != pose.LandmarkCount {
		return pose.Frame{}, fmt.Errorf("pose service returned %d landmarks, want %d",
			len(detResp.Landmarks), pose.LandmarkCount)
	}

	return pose.FromSlice(detResp.Landmarks, timestamp), nil
}
