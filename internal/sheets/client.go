package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const BaseURL = "https://sheets.googleapis.com/v4/spreadsheets"

// Client is a minimal Google Sheets API client covering the single
// operation the mirror needs: appending one row to a named sheet.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Sheets client.
func NewClient(token string) *Client {
	return &Client{
		token:   token,
		baseURL: BaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// IsConfigured returns true if the client has a token
func (c *Client) IsConfigured() bool {
	return c.token != ""
}

type appendRequest struct {
	Values [][]interface{} `json:"values"`
}

// AppendRow appends one row to the named sheet within the spreadsheet.
func (c *Client) AppendRow(ctx context.Context, spreadsheetID, sheetName string, row []interface{}) error {
	rng := url.PathEscape(fmt.Sprintf("%s!A:Z", sheetName))
	path := fmt.Sprintf("%s/%s/values/%s:append?valueInputOption=USER_ENTERED",
		c.baseURL, spreadsheetID, rng)

	body, err := json.Marshal(appendRequest{Values: [][]interface{}{row}})
	if err != nil {
		return fmt.Errorf("marshal append body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("append row: status %d: %s", resp.StatusCode, respBody)
	}
	return nil
}
