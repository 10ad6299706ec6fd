package contacts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
)

// ErrContactNotFound marks the one lookup failure that triggers
// contact creation; every other lookup error is treated as transient.
var ErrContactNotFound = errors.New("contact not found")

// Client wraps the marketing service's contact and transactional
// email APIs.
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

// GetContact checks whether a contact exists for the email.
func (c *Client) GetContact(ctx context.Context, email string) error {
	endpoint := c.baseURL + "/contacts/" + url.PathEscape(email)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return ErrContactNotFound
	default:
		return fmt.Errorf("contact lookup returned status %d", resp.StatusCode)
	}
}

// CreateContact registers a new contact, splitting the display name
// into first/last attributes. Creating a contact that already exists
// is not an error.
func (c *Client) CreateContact(ctx context.Context, email, name string) error {
	first, last := SplitName(name)
	payload, err := json.Marshal(map[string]any{
		"email": email,
		"attributes": map[string]string{
			"FIRSTNAME": first,
			"LASTNAME":  last,
		},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/contacts", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var apiErr struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Code == "duplicate_parameter" {
		return nil
	}
	return fmt.Errorf("contact creation returned status %d", resp.StatusCode)
}

// EnsureContact makes sure a contact exists for the email. Transient
// lookup failures are logged and swallowed so marketing-service
// outages never block the caller.
func (c *Client) EnsureContact(ctx context.Context, email, name string) error {
	err := c.GetContact(ctx, email)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrContactNotFound) {
		return c.CreateContact(ctx, email, name)
	}
	log.Printf("Contact lookup for %s failed, proceeding anyway: %v", email, err)
	return nil
}

// SendTemplateEmail sends one transactional email built from a stored
// template.
func (c *Client) SendTemplateEmail(ctx context.Context, templateID int64, email, name string, params map[string]any) error {
	payload, err := json.Marshal(map[string]any{
		"to":         []map[string]string{{"email": email, "name": name}},
		"templateId": templateID,
		"params":     params,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/smtp/email", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("transactional email returned status %d", resp.StatusCode)
	}
	return nil
}

// SplitName divides a display name into first and last at the first
// space.
func SplitName(name string) (string, string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ""
	}
	parts := strings.SplitN(name, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
