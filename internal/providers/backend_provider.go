package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"taskbounty/portal/internal/config"
	"taskbounty/portal/internal/constants"
	"taskbounty/portal/internal/metrics"
	"taskbounty/portal/internal/models/dtos"
)

// BackendProvider talks to the TaskBounty REST API. Every authorized call carries
// the caller's session token in the Authorization header.
type BackendProvider struct {
	BaseURL    string
	AuthScheme string
	Client     *http.Client
	Metrics    *metrics.MetricsRegistry
}

// NewBackendProvider creates a provider from the backend configuration.
func NewBackendProvider(cfg config.BackendConfig, m *metrics.MetricsRegistry) *BackendProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &BackendProvider{
		BaseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		AuthScheme: cfg.AuthScheme,
		Client: &http.Client{
			Timeout: timeout,
		},
		Metrics: m,
	}
}

// ============================================================================
// HTTP Helper Methods
// ============================================================================

func (p *BackendProvider) doGET(ctx context.Context, endpoint, token string, result interface{}) (int, error) {
	return p.do(ctx, http.MethodGet, endpoint, token, nil, "", result)
}

func (p *BackendProvider) doDelete(ctx context.Context, endpoint, token string, result interface{}) (int, error) {
	return p.do(ctx, http.MethodDelete, endpoint, token, nil, "", result)
}

func (p *BackendProvider) doPost(ctx context.Context, endpoint, token string, payload, result interface{}) (int, error) {
	return p.doJSON(ctx, http.MethodPost, endpoint, token, payload, result)
}

func (p *BackendProvider) doPut(ctx context.Context, endpoint, token string, payload, result interface{}) (int, error) {
	return p.doJSON(ctx, http.MethodPut, endpoint, token, payload, result)
}

func (p *BackendProvider) doJSON(ctx context.Context, method, endpoint, token string, payload, result interface{}) (int, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return 0, &ProviderError{
			Code:    constants.ErrCodeInvalidInput,
			Message: "Failed to marshal request body",
			Err:     err,
		}
	}
	return p.do(ctx, method, endpoint, token, bytes.NewReader(payloadBytes), "application/json", result)
}

// doMultipart sends fields and optional files as multipart/form-data.
func (p *BackendProvider) doMultipart(ctx context.Context, method, endpoint, token string, fields map[string]string, files []*dtos.Upload, result interface{}) (int, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return 0, &ProviderError{Code: constants.ErrCodeInvalidInput, Message: "Failed to build form", Err: err}
		}
	}
	for _, f := range files {
		if f == nil || f.Body == nil {
			continue
		}
		part, err := createFilePart(mw, f)
		if err != nil {
			return 0, &ProviderError{Code: constants.ErrCodeInvalidInput, Message: "Failed to attach file", Err: err}
		}
		if _, err := io.Copy(part, f.Body); err != nil {
			return 0, &ProviderError{Code: constants.ErrCodeInvalidInput, Message: "Failed to attach file", Err: err}
		}
	}
	if err := mw.Close(); err != nil {
		return 0, &ProviderError{Code: constants.ErrCodeInvalidInput, Message: "Failed to build form", Err: err}
	}

	return p.do(ctx, method, endpoint, token, &buf, mw.FormDataContentType(), result)
}

func createFilePart(mw *multipart.Writer, f *dtos.Upload) (io.Writer, error) {
	if f.ContentType == "" {
		return mw.CreateFormFile(f.FieldName, f.FileName)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.FieldName, f.FileName))
	h.Set("Content-Type", f.ContentType)
	return mw.CreatePart(h)
}

func (p *BackendProvider) do(ctx context.Context, method, endpoint, token string, body io.Reader, contentType string, result interface{}) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, p.BaseURL+endpoint, body)
	if err != nil {
		return 0, &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: "Failed to create request",
			Err:     err,
		}
	}

	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", p.authHeader(token))
	}

	start := time.Now()
	resp, err := p.Client.Do(req)
	if err != nil {
		p.Metrics.ObserveBackendCall(endpoint, method, 0, time.Since(start))
		if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
			return 0, &ProviderError{
				Code:    constants.ErrCodeCanceled,
				Message: constants.GetErrorMessage(constants.ErrCodeCanceled),
				Err:     err,
			}
		}
		return 0, &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: constants.GetErrorMessage(constants.ErrCodeNetworkError),
			Err:     err,
		}
	}
	defer resp.Body.Close()
	p.Metrics.ObserveBackendCall(endpoint, method, resp.StatusCode, time.Since(start))

	bodyBytes, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return resp.StatusCode, &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Status:  resp.StatusCode,
			Message: "Failed to read response body",
			Err:     readErr,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, buildHTTPError(resp.StatusCode, endpoint, bodyBytes)
	}

	if result == nil || len(bytes.TrimSpace(bodyBytes)) == 0 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(bodyBytes, result); err != nil {
		return resp.StatusCode, &ProviderError{
			Code:    constants.ErrCodeDecodeError,
			Status:  resp.StatusCode,
			Message: constants.GetErrorMessage(constants.ErrCodeDecodeError),
			Details: truncate(string(bodyBytes), 512),
			Err:     err,
		}
	}

	return resp.StatusCode, nil
}

func (p *BackendProvider) authHeader(token string) string {
	if p.AuthScheme == "" || strings.HasPrefix(token, p.AuthScheme+" ") {
		return token
	}
	return p.AuthScheme + " " + token
}

// requireToken rejects authorized calls made without a session.
func requireToken(token string) error {
	if token == "" {
		return &ProviderError{
			Code:    constants.ErrCodeMissingToken,
			Status:  http.StatusUnauthorized,
			Message: constants.GetErrorMessage(constants.ErrCodeMissingToken),
		}
	}
	return nil
}

func requireID(kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return &ProviderError{
			Code:    constants.ErrCodeInvalidInput,
			Message: kind + " ID cannot be empty",
		}
	}
	return nil
}

func pathID(id string) string {
	return url.PathEscape(id)
}

// unwrapEntity decodes either {"<key>": {...}} or the bare entity into dst.
func unwrapEntity(raw json.RawMessage, key string, dst interface{}) error {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err == nil {
		if inner, ok := env[key]; ok && len(inner) > 0 && string(inner) != "null" {
			return json.Unmarshal(inner, dst)
		}
	}
	return json.Unmarshal(raw, dst)
}

func decodeError(err error, raw json.RawMessage) error {
	return &ProviderError{
		Code:    constants.ErrCodeDecodeError,
		Message: constants.GetErrorMessage(constants.ErrCodeDecodeError),
		Details: truncate(string(raw), 512),
		Err:     err,
	}
}
