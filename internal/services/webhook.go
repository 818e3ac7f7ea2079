package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/desertthunder/rivora/internal/models"
	"github.com/desertthunder/rivora/internal/shared"
	"golang.org/x/time/rate"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// maxErrorBody bounds how much of a failed response is copied into the error.
const maxErrorBody = 512

// WebhookService implements [Generator] against an HTTP webhook that accepts multipart form posts.
type WebhookService struct {
	url        string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewWebhookService creates a webhook client.
//
// ratePerSecond throttles submissions client-side with a burst of one; zero disables throttling.
// A nil client uses a new [http.Client] with the given timeout.
func NewWebhookService(url string, client *http.Client, timeout time.Duration, ratePerSecond float64) *WebhookService {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}

	return &WebhookService{
		url:        url,
		httpClient: client,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// Generate posts prompt, generationType and the optional file, then classifies the JSON body.
//
// Transport failures wrap [shared.ErrNetwork]; non-2xx responses wrap [shared.ErrAPIRequest].
func (w *WebhookService) Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error) {
	if w.url == "" {
		return nil, fmt.Errorf("%w: webhook url is not set", shared.ErrMissingConfig)
	}

	body, contentType, err := encodeForm(req)
	if err != nil {
		return nil, err
	}

	if err := w.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := w.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", shared.ErrNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", shared.ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text := strings.TrimSpace(string(data))
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody]
		}
		return nil, fmt.Errorf("%w: webhook request failed: %d %s", shared.ErrAPIRequest, resp.StatusCode, text)
	}

	return ClassifyResponse(data)
}

// encodeForm builds the multipart body. The attachment keeps its file name and content type.
func encodeForm(req GenerationRequest) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("prompt", req.Prompt); err != nil {
		return nil, "", fmt.Errorf("failed to encode prompt: %w", err)
	}
	if err := mw.WriteField("generationType", string(req.Type)); err != nil {
		return nil, "", fmt.Errorf("failed to encode generation type: %w", err)
	}

	if req.File != nil {
		if err := writeFile(mw, req.File); err != nil {
			return nil, "", err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish form: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

func writeFile(mw *multipart.Writer, file *models.Attachment) error {
	if file.Open == nil {
		return fmt.Errorf("%w: attachment %q has no content", shared.ErrInvalidInput, file.Name)
	}

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(file.Name)))
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create file part: %w", err)
	}

	rc, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open attachment: %w", err)
	}
	defer rc.Close()

	if _, err := io.Copy(part, rc); err != nil {
		return fmt.Errorf("failed to copy attachment: %w", err)
	}
	return nil
}
