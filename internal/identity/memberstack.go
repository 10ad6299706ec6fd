package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Client is a thin wrapper over the identity provider's admin API,
// used only to read and write the member's lmid metadata string.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{},
	}
}

func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type memberResponse struct {
	Data struct {
		Metadata map[string]string `json:"metadata"`
	} `json:"data"`
}

// GetMemberLmids fetches the member's current comma-separated lmid
// list from provider metadata.
func (c *Client) GetMemberLmids(ctx context.Context, memberID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+memberID, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("member lookup returned status %d", resp.StatusCode)
	}

	var body memberResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode member response: %w", err)
	}
	return body.Data.Metadata["lmids"], nil
}

// SetMemberLmids writes the lmid list back onto the member's metadata.
func (c *Client) SetMemberLmids(ctx context.Context, memberID, lmids string) error {
	payload, err := json.Marshal(map[string]any{
		"metadata": map[string]string{"lmids": lmids},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+"/"+memberID, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("member metadata update returned status %d", resp.StatusCode)
	}
	return nil
}

// AppendLmid appends an id to a comma-separated list, skipping ids
// already present.
func AppendLmid(existing string, id int) string {
	token := strconv.Itoa(id)
	if existing == "" {
		return token
	}
	for _, part := range strings.Split(existing, ",") {
		if strings.TrimSpace(part) == token {
			return existing
		}
	}
	return existing + "," + token
}
