// Package pipedrive mirrors won subscriptions into the sales CRM as an
// organization plus a deal on the configured pipeline.
package pipedrive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultTimeout = time.Minute

type Client struct {
	log        *slog.Logger
	baseURL    string
	apiToken   string
	pipelineID int
	stageID    int
	httpClient *http.Client
}

func NewClient(log *slog.Logger, baseURL, apiToken string, pipelineID, stageID int) *Client {
	return &Client{
		log:        log,
		baseURL:    baseURL,
		apiToken:   apiToken,
		pipelineID: pipelineID,
		stageID:    stageID,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

type createOrganizationRequest struct {
	Name string `json:"name"`
}

type createDealRequest struct {
	Title      string `json:"title"`
	Value      string `json:"value"`
	OrgID      int64  `json:"org_id"`
	PipelineID int    `json:"pipeline_id"`
	StageID    int    `json:"stage_id"`
	Status     string `json:"status"`
}

type apiResponse struct {
	Success bool `json:"success"`
	Data    struct {
		ID int64 `json:"id"`
	} `json:"data"`
}

// CreateOrganization registers the subscribing company and returns its CRM id.
func (c *Client) CreateOrganization(ctx context.Context, name string) (int64, error) {
	return c.post(ctx, "/v1/organizations", createOrganizationRequest{Name: name})
}

// CreateDeal attaches a deal to an organization on the configured pipeline
// and stage, already marked won: the subscription is signed by the time the
// CRM hears about it.
func (c *Client) CreateDeal(ctx context.Context, title, value string, orgID int64) (int64, error) {
	return c.post(ctx, "/v1/deals", createDealRequest{
		Title:      title,
		Value:      value,
		OrgID:      orgID,
		PipelineID: c.pipelineID,
		StageID:    c.stageID,
		Status:     "won",
	})
}

func (c *Client) post(ctx context.Context, path string, payload any) (int64, error) {
	url := fmt.Sprintf("%s%s?api_token=%s", c.baseURL, path, c.apiToken)

	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		c.log.Error("failed to create crm request", slog.String("path", path), slog.String("error", err.Error()))
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("crm request failed", slog.String("path", path), slog.String("error", err.Error()))
		return 0, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		c.log.Error("failed to read crm response", slog.String("path", path), slog.String("error", err.Error()))
		return 0, err
	}
	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
		c.log.Error("crm request rejected", slog.String("path", path), slog.Int("status", res.StatusCode), slog.String("response", string(body)))
		return 0, fmt.Errorf("crm request %s failed, status: %d body: %s", path, res.StatusCode, string(body))
	}

	var result apiResponse
	if err := json.Unmarshal(body, &result); err != nil {
		c.log.Error("failed to unmarshal crm response", slog.String("path", path), slog.String("error", err.Error()))
		return 0, err
	}
	if !result.Success {
		c.log.Error("crm request unsuccessful", slog.String("path", path), slog.String("response", string(body)))
		return 0, fmt.Errorf("crm request %s unsuccessful: %s", path, string(body))
	}
	return result.Data.ID, nil
}
