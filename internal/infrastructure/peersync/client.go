package peersync

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jhoicas/Inventario-lotes/internal/application/dto"
)

// Client cliente HTTP hacia la API de sincronización de otro escritor.
type Client struct {
	httpClient *resty.Client
	baseURL    string
}

// NewClient construye el cliente del par baseURL. token vacío no envía Authorization.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	base := strings.TrimSuffix(baseURL, "/")
	restyClient := resty.New().
		SetBaseURL(base).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	if token != "" {
		restyClient.SetAuthToken(token)
	}
	return &Client{httpClient: restyClient, baseURL: base}
}

// BaseURL identifica al par; también es la clave de su vector de versiones guardado.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Pull pide al par los registros que since no cubre.
func (c *Client) Pull(ctx context.Context, since map[string]uint64, limit int) (dto.SyncBatch, error) {
	if since == nil {
		since = map[string]uint64{}
	}
	rawSince, err := json.Marshal(since)
	if err != nil {
		return dto.SyncBatch{}, fmt.Errorf("encode since: %w", err)
	}

	var batch dto.SyncBatch
	apiErr := new(dto.ErrorResponse)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("since", string(rawSince)).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetResult(&batch).
		SetError(apiErr).
		Get("/api/sync/deltas")
	if err != nil {
		return dto.SyncBatch{}, fmt.Errorf("pull %s: %w", c.baseURL, err)
	}
	if resp.IsError() {
		return dto.SyncBatch{}, fmt.Errorf("pull %s: status %d %s %s", c.baseURL, resp.StatusCode(), apiErr.Code, apiErr.Message)
	}
	return batch, nil
}
