// Package store is the thin REST client for the managed record store. The
// store exposes PostgREST-style tables ("users", "leads") keyed by an access
// URL plus credential pair; rows come back as loosely-typed JSON objects and
// callers coerce the fields they need.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"leadscope/internal/lead"
)

// externalIDPattern matches the dedup ids the sync worker embeds in notes.
var externalIDPattern = regexp.MustCompile(`external_id=([a-f0-9]{16})`)

// LeadInsert is one row of the leads table as the store accepts it. All
// structured lead data travels inside Notes; the remaining columns are the
// CRM-visible surface.
type LeadInsert struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// Client talks to one store instance. The zero credential case is allowed;
// callers check Configured before issuing requests.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient builds a client with its own request timeout. Readers use a
// short budget, the sync worker a longer one for batch inserts.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// Configured reports whether both the access URL and the credential are set.
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.apiKey != ""
}

// LookupUserID resolves an account email to its user id via the users table.
func (c *Client) LookupUserID(ctx context.Context, email string) (string, error) {
	params := url.Values{}
	params.Set("select", "id,email")
	params.Set("email", "eq."+strings.ToLower(strings.TrimSpace(email)))
	params.Set("limit", "1")

	rows, err := c.getJSON(ctx, "users", params)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("user not found: %s", email)
	}
	id := asString(rows[0]["id"])
	if id == "" {
		return "", fmt.Errorf("user row for %s has no id", email)
	}
	return id, nil
}

// FetchLeads reads the newest lead records for one user, bounded by limit.
func (c *Client) FetchLeads(ctx context.Context, userID string, limit int) ([]lead.RawRecord, error) {
	params := url.Values{}
	params.Set("select", "*")
	params.Set("user_id", "eq."+userID)
	params.Set("order", "created_at.desc")
	params.Set("limit", strconv.Itoa(limit))

	rows, err := c.getJSON(ctx, "leads", params)
	if err != nil {
		return nil, err
	}

	records := make([]lead.RawRecord, 0, len(rows))
	for _, m := range rows {
		records = append(records, lead.RawRecord{
			Name:      asString(m["name"]),
			Phone:     asString(m["phone"]),
			Notes:     asString(m["notes"]),
			CreatedAt: asString(m["created_at"]),
		})
	}
	return records, nil
}

// ExistingExternalIDs scans the user's stored notes for embedded dedup ids,
// so the sync worker can skip rows the store already holds.
func (c *Client) ExistingExternalIDs(ctx context.Context, userID string) (map[string]bool, error) {
	params := url.Values{}
	params.Set("select", "notes")
	params.Set("user_id", "eq."+userID)

	rows, err := c.getJSON(ctx, "leads", params)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]bool, len(rows))
	for _, m := range rows {
		if match := externalIDPattern.FindStringSubmatch(asString(m["notes"])); match != nil {
			ids[match[1]] = true
		}
	}
	return ids, nil
}

// InsertLeads pushes one batch of rows into the leads table.
func (c *Client) InsertLeads(ctx context.Context, batch []LeadInsert) error {
	if len(batch) == 0 {
		return nil
	}

	body, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("encode leads batch: %w", err)
	}

	reqURL := c.baseURL + "/rest/v1/leads"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http POST leads: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("store returned %d for leads insert: %s", resp.StatusCode, truncate(raw))
	}
	return nil
}

// getJSON performs one authenticated read against the store's /rest/v1
// surface and decodes the row array.
func (c *Client) getJSON(ctx context.Context, table string, params url.Values) ([]map[string]any, error) {
	reqURL := c.baseURL + "/rest/v1/" + table + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET %s: %w", table, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", table, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("store returned %d for %s: %s", resp.StatusCode, table, truncate(body))
	}

	var rows []map[string]any
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", table, err)
	}
	return rows, nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}

// asString coerces whatever JSON produced into a usable string. Numbers are
// rendered without an exponent so ids survive the trip.
func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}

func truncate(body []byte) string {
	const max = 300
	s := string(body)
	if len(s) > max {
		return s[:max]
	}
	return s
}
