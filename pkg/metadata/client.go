// Package metadata resolves off-chain content references (property photos,
// descriptions, dispute evidence) through content-addressed gateways.
package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/valyala/fastjson"
)

// HTTPDoer is the minimal HTTP client surface the metadata client needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// PropertyMetadata is the off-chain document a listing's metadata reference
// points at. Unknown fields are ignored; absent fields stay zero.
type PropertyMetadata struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Amenities   []string `json:"amenities"`
	Images      []string `json:"images"`
}

// Client fetches and uploads metadata documents. Resolution tries the
// primary gateway first and falls back to the secondary on any failure.
type Client struct {
	HTTP             HTTPDoer
	PrimaryGateway   string
	SecondaryGateway string
	UploadURL        string
	Log              *slog.Logger
}

// NewClient creates a metadata client. secondaryGateway and uploadURL may be
// empty to disable fallback and uploads respectively.
func NewClient(httpClient HTTPDoer, primaryGateway, secondaryGateway, uploadURL string, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		HTTP:             httpClient,
		PrimaryGateway:   primaryGateway,
		SecondaryGateway: secondaryGateway,
		UploadURL:        uploadURL,
		Log:              log,
	}
}

// Resolve fetches the document behind a content reference.
func (c *Client) Resolve(ctx context.Context, ref string) (*PropertyMetadata, error) {
	if ref == "" {
		return nil, fmt.Errorf("empty metadata reference")
	}

	body, err := c.fetch(ctx, c.PrimaryGateway, ref)
	if err != nil && c.SecondaryGateway != "" {
		c.Log.Warn("primary gateway failed, trying secondary", "ref", ref, "error", err)
		body, err = c.fetch(ctx, c.SecondaryGateway, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve metadata %s: %w", ref, err)
	}

	return parseDocument(body)
}

func (c *Client) fetch(ctx context.Context, gateway, ref string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s", gateway, ref)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build gateway request: %w", err)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}
	return body, nil
}

// parseDocument decodes a metadata document leniently: a malformed field is
// dropped rather than failing the whole document.
func parseDocument(body []byte) (*PropertyMetadata, error) {
	parsed, err := fastjson.ParseBytes(body)
	if err != nil {
		return nil, fmt.Errorf("metadata document is not valid JSON: %w", err)
	}

	meta := &PropertyMetadata{
		Name:        string(parsed.GetStringBytes("name")),
		Description: string(parsed.GetStringBytes("description")),
		Location:    string(parsed.GetStringBytes("location")),
	}
	for _, v := range parsed.GetArray("amenities") {
		if b, err := v.StringBytes(); err == nil {
			meta.Amenities = append(meta.Amenities, string(b))
		}
	}
	for _, v := range parsed.GetArray("images") {
		if b, err := v.StringBytes(); err == nil {
			meta.Images = append(meta.Images, string(b))
		}
	}
	return meta, nil
}

// Upload stores a document and returns its content reference.
func (c *Client) Upload(ctx context.Context, doc *PropertyMetadata) (string, error) {
	if c.UploadURL == "" {
		return "", fmt.Errorf("no upload endpoint configured")
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode metadata document: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.UploadURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("upload returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read upload response: %w", err)
	}

	parsed, err := fastjson.ParseBytes(body)
	if err != nil {
		return "", fmt.Errorf("upload response is not valid JSON: %w", err)
	}
	ref := string(parsed.GetStringBytes("ref"))
	if ref == "" {
		return "", fmt.Errorf("upload response missing content reference")
	}
	return ref, nil
}
