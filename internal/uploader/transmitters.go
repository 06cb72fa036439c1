package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vendite/backend/internal/domain"
	"vendite/backend/internal/service"
)

const (
	bulkPath    = "/api/v1/records/bulk"
	recordsPath = "/api/v1/records"
)

// HTTPTransmitter talks to the backend API with a bearer token.
type HTTPTransmitter struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPTransmitter(baseURL, token string) *HTTPTransmitter {
	return &HTTPTransmitter{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		// Per-chunk deadlines come from the context.
		client: &http.Client{Timeout: 2 * time.Minute},
	}
}

func (t *HTTPTransmitter) Transmit(ctx context.Context, batch domain.Batch) (domain.BulkResult, error) {
	payload, err := json.Marshal(batch)
	if err != nil {
		return domain.BulkResult{}, err
	}
	var result domain.BulkResult
	err = t.do(ctx, http.MethodPost, t.baseURL+bulkPath, bytes.NewReader(payload), &result)
	return result, err
}

func (t *HTTPTransmitter) Refresh(ctx context.Context, kind domain.RecordKind) error {
	target := t.baseURL + recordsPath + "?" + url.Values{"kind": {string(kind)}, "refresh": {"1"}}.Encode()
	return t.do(ctx, http.MethodGet, target, nil, nil)
}

func (t *HTTPTransmitter) do(ctx context.Context, method, target string, body io.Reader, dest any) error {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return t.send(ctx, req, dest)
}

// send classifies failures: deadline and transport errors become ErrTimeout
// or ErrConnectivity, non-2xx answers a *RejectedError.
func (t *HTTPTransmitter) send(ctx context.Context, req *http.Request, dest any) error {
	req.Header.Set("Accept", "application/json")
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
		}
		return fmt.Errorf("%w: %w", ErrConnectivity, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
		}
		return fmt.Errorf("%w: read response: %w", ErrConnectivity, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RejectedError{Status: resp.StatusCode, Message: errorMessage(raw, resp.Status)}
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func errorMessage(raw []byte, fallback string) string {
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		return body.Error
	}
	return fallback
}

// ServiceTransmitter uploads straight into an in-process service. The context
// passed to Upload must carry the acting user.
type ServiceTransmitter struct {
	svc *service.Service
}

func NewServiceTransmitter(svc *service.Service) *ServiceTransmitter {
	return &ServiceTransmitter{svc: svc}
}

func (t *ServiceTransmitter) Transmit(ctx context.Context, batch domain.Batch) (domain.BulkResult, error) {
	res, err := t.svc.BulkUpsert(ctx, batch)
	return res, asRejected(err)
}

func (t *ServiceTransmitter) Refresh(ctx context.Context, kind domain.RecordKind) error {
	_, err := t.svc.RefreshView(ctx, kind)
	return asRejected(err)
}

func asRejected(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrForbidden):
		return &RejectedError{Status: http.StatusForbidden, Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidInput):
		return &RejectedError{Status: http.StatusUnprocessableEntity, Message: err.Error()}
	}
	return err
}
