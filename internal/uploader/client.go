package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"

	"vendite/backend/internal/domain"
)

// Login exchanges credentials for a bearer token and attaches it to t.
func (t *HTTPTransmitter) Login(ctx context.Context, username, password string) (domain.LoginResponse, error) {
	payload, err := json.Marshal(domain.LoginRequest{Username: username, Password: password})
	if err != nil {
		return domain.LoginResponse{}, err
	}
	var resp domain.LoginResponse
	if err := t.do(ctx, http.MethodPost, t.baseURL+"/api/v1/auth/login", bytes.NewReader(payload), &resp); err != nil {
		return domain.LoginResponse{}, err
	}
	t.token = resp.AccessToken
	return resp, nil
}

// Preview uploads a file for server-side normalization.
func (t *HTTPTransmitter) Preview(ctx context.Context, kind domain.UploadKind, filename string, data []byte) (domain.UploadPreview, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return domain.UploadPreview{}, err
	}
	if _, err := part.Write(data); err != nil {
		return domain.UploadPreview{}, err
	}
	if err := mw.Close(); err != nil {
		return domain.UploadPreview{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/api/v1/uploads/"+string(kind), &body)
	if err != nil {
		return domain.UploadPreview{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	var preview domain.UploadPreview
	err = t.send(ctx, req, &preview)
	return preview, err
}

// Batches splits a preview into the batches the coordinator uploads, in
// upload order. Empty batches are left out.
func Batches(preview domain.UploadPreview) []domain.Batch {
	var out []domain.Batch
	add := func(b domain.Batch) {
		if b.Len() > 0 {
			out = append(out, b)
		}
	}
	switch {
	case preview.StoreSales != nil:
		add(domain.Batch{Kind: domain.KindSales, Sales: preview.StoreSales.Data})
	case preview.Ecommerce != nil:
		add(domain.Batch{Kind: domain.KindSales, Sales: preview.Ecommerce.Sales})
		add(domain.Batch{Kind: domain.KindReturns, Returns: preview.Ecommerce.Returns})
	case preview.Inventory != nil:
		add(domain.Batch{Kind: domain.KindInventory, Inventory: preview.Inventory.ProcessedData})
	}
	return out
}
