package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"time"

	"github.com/reportdash/internal/dispatch"
	"github.com/reportdash/internal/models"
	"github.com/reportdash/internal/recipient"
)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("REPORTDASH_API_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	if token == "" {
		token = os.Getenv("REPORTDASH_TOKEN")
	}

	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			// Dispatch runs block while the send loops complete, so the
			// trigger calls need a generous timeout.
			Timeout: 5 * time.Minute,
		},
	}
}

// SendReportResponse is the combined report + reminder outcome returned
// by the report trigger endpoint.
type SendReportResponse struct {
	Sent      int              `json:"sent"`
	Failed    int              `json:"failed"`
	Skipped   bool             `json:"skipped"`
	Reason    string           `json:"reason"`
	Reminders *dispatch.Result `json:"reminders"`
}

func (c *Client) Login(username, password string) (string, error) {
	data := map[string]string{
		"username": username,
		"password": password,
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.post("/api/v1/auth/login", data, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (c *Client) SendReport(testEmail string) (*SendReportResponse, error) {
	endpoint := "/api/v1/reports/send"
	if testEmail != "" {
		query := url.Values{}
		query.Set("testEmail", testEmail)
		endpoint += "?" + query.Encode()
	}

	var resp SendReportResponse
	if err := c.get(endpoint, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SendReminders() (*dispatch.Result, error) {
	var resp dispatch.Result
	if err := c.post("/api/v1/reminders/send", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetSchedule() (*models.ReportSchedule, error) {
	var cfg models.ReportSchedule
	if err := c.get("/api/v1/report-schedule", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Client) UpdateSchedule(cfg map[string]interface{}) (*models.ReportSchedule, error) {
	var updated models.ReportSchedule
	if err := c.put("/api/v1/report-schedule", cfg, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) ListRecipients() ([]models.Recipient, error) {
	var recipients []models.Recipient
	if err := c.get("/api/v1/recipients", &recipients); err != nil {
		return nil, err
	}
	return recipients, nil
}

func (c *Client) UpsertRecipient(in recipient.UpsertInput) (*models.Recipient, error) {
	var rec models.Recipient
	if err := c.post("/api/v1/recipients", in, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) ListHistory(limit int) ([]models.ReportHistory, error) {
	endpoint := "/api/v1/report-history"
	if limit > 0 {
		endpoint += fmt.Sprintf("?limit=%d", limit)
	}

	var history []models.ReportHistory
	if err := c.get(endpoint, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func (c *Client) get(endpoint string, v interface{}) error {
	resp, err := c.doRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return json.NewDecoder(resp.Body).Decode(v)
}

func (c *Client) post(endpoint string, data, v interface{}) error {
	return c.send(http.MethodPost, endpoint, data, v)
}

func (c *Client) put(endpoint string, data, v interface{}) error {
	return c.send(http.MethodPut, endpoint, data, v)
}

func (c *Client) send(method, endpoint string, data, v interface{}) error {
	var body io.Reader
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %v", err)
		}
		body = bytes.NewReader(jsonData)
	}

	resp, err := c.doRequest(method, endpoint, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if v != nil {
		return json.NewDecoder(resp.Body).Decode(v)
	}
	return nil
}

func (c *Client) doRequest(method, endpoint string, body io.Reader) (*http.Response, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %v", err)
	}
	ref, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %v", endpoint, err)
	}
	u.Path = path.Join(u.Path, ref.Path)
	u.RawQuery = ref.RawQuery

	req, err := http.NewRequest(method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %v", err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		var errResp struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
			return nil, fmt.Errorf("API error: %s", errResp.Error)
		}
		return nil, fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	return resp, nil
}
