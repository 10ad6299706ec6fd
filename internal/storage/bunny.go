package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Client talks to the Bunny storage zone over its HTTP API. Uploads
// and listings need the zone name and access key; public URLs only
// need the CDN host.
type Client struct {
	endpoint  string
	zone      string
	accessKey string
	cdnHost   string
	client    *http.Client
}

func NewClient(endpoint, zone, accessKey, cdnHost string) *Client {
	return &Client{
		endpoint:  strings.TrimSuffix(endpoint, "/"),
		zone:      zone,
		accessKey: accessKey,
		cdnHost:   cdnHost,
		client:    &http.Client{},
	}
}

// Configured reports whether upload credentials are present. When they
// are not, callers fall back to inline manifests instead of failing.
func (c *Client) Configured() bool {
	return c.zone != "" && c.accessKey != ""
}

// Upload writes the object and returns its public CDN URL.
func (c *Client) Upload(ctx context.Context, path, contentType string, body []byte) (string, error) {
	url := fmt.Sprintf("%s/%s/%s", c.endpoint, c.zone, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("AccessKey", c.accessKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("storage upload returned status %d", resp.StatusCode)
	}
	return c.PublicURL(path), nil
}

type storageObject struct {
	ObjectName  string `json:"ObjectName"`
	IsDirectory bool   `json:"IsDirectory"`
}

// List returns the file names directly under dir in the storage zone.
func (c *Client) List(ctx context.Context, dir string) ([]string, error) {
	url := fmt.Sprintf("%s/%s/%s/", c.endpoint, c.zone, strings.TrimSuffix(dir, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("AccessKey", c.accessKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("storage listing returned status %d", resp.StatusCode)
	}

	var objects []storageObject
	if err := json.NewDecoder(resp.Body).Decode(&objects); err != nil {
		return nil, fmt.Errorf("failed to decode storage listing: %w", err)
	}

	var names []string
	for _, obj := range objects {
		if obj.IsDirectory {
			continue
		}
		names = append(names, obj.ObjectName)
	}
	return names, nil
}

// PublicURL maps a storage path to its CDN URL.
func (c *Client) PublicURL(path string) string {
	return "https://" + c.cdnHost + "/" + path
}

// DataURI encodes a document inline for the unconfigured-storage
// fallback.
func DataURI(contentType string, body []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(body)
}
