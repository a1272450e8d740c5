package service

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"fintrack/pkg/config"
	"fintrack/pkg/resilience"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	gigaChatOAuthURL = "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"
	gigaChatBaseURL  = "https://gigachat.devices.sberbank.ru/api/v1"
	gigaChatModel    = "GigaChat"

	receiptPrompt = `Extract all text printed on this receipt.
Return only the text visible in the image, line by line, without comments.
If nothing is readable, return an empty string.`
)

// ErrModelRefused is returned when the model answers with a refusal instead
// of the receipt text.
var ErrModelRefused = errors.New("model refused to transcribe the image")

var refusalPhrases = []string{
	"не могу помочь",
	"не могу обработать",
	"не могу извлечь",
	"предоставьте содержимое",
	"предоставь содержимое",
	"cannot help",
	"cannot process",
	"can't help",
	"please provide",
}

// errUnauthorized marks a 401 so the caller can refresh the token once.
var errUnauthorized = errors.New("unauthorized")

// GigaChatRecognizer transcribes images with the GigaChat Vision API.
// Every call goes through a circuit breaker.
type GigaChatRecognizer struct {
	cfg        *config.GigaChatConfig
	httpClient *http.Client
	breaker    *resilience.Breaker
	logger     *zap.Logger

	oauthURL string
	baseURL  string

	mu          sync.Mutex
	accessToken string
}

func NewGigaChatRecognizer(cfg *config.GigaChatConfig, breaker *resilience.Breaker, logger *zap.Logger) *GigaChatRecognizer {
	httpClient := &http.Client{}
	if cfg.InsecureSkipVerify {
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
		logger.Warn("GigaChat TLS certificate verification is disabled")
	}

	return &GigaChatRecognizer{
		cfg:        cfg,
		httpClient: httpClient,
		breaker:    breaker,
		logger:     logger,
		oauthURL:   gigaChatOAuthURL,
		baseURL:    gigaChatBaseURL,
	}
}

func (r *GigaChatRecognizer) Name() string {
	return "gigachat"
}

func (r *GigaChatRecognizer) Recognize(ctx context.Context, path string) (string, error) {
	var text string
	err := r.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		text, err = r.recognize(ctx, path)
		if errors.Is(err, errUnauthorized) {
			r.resetToken()
			text, err = r.recognize(ctx, path)
		}
		return err
	})
	if resilience.IsCircuitOpen(err) {
		return "", fmt.Errorf("%w: %v", ErrRecognizerUnavailable, err)
	}
	return text, err
}

// IsGigaChatFailure reports whether err should trip the breaker. Refusals are
// answers about one image, not a sign the service is down.
func IsGigaChatFailure(err error) bool {
	return !errors.Is(err, ErrModelRefused) && resilience.RecordAll(err)
}

func (r *GigaChatRecognizer) recognize(ctx context.Context, path string) (string, error) {
	token, err := r.token(ctx)
	if err != nil {
		return "", err
	}

	fileID, err := r.uploadFile(ctx, token, path)
	if err != nil {
		return "", err
	}

	return r.transcribe(ctx, token, fileID)
}

func (r *GigaChatRecognizer) token(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.accessToken != "" {
		return r.accessToken, nil
	}

	form := url.Values{}
	form.Set("scope", r.cfg.Scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.oauthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create OAuth request: %w", err)
	}
	rqUID := uuid.New().String()
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("RqUID", rqUID)
	// the key is already Base64-encoded
	req.Header.Set("Authorization", "Basic "+r.cfg.APIKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		r.logger.Error("OAuth request failed",
			zap.Int("status", resp.StatusCode),
			zap.String("response", string(body)),
			zap.String("rq_uid", rqUID),
		)
		return "", fmt.Errorf("OAuth failed with status %d", resp.StatusCode)
	}

	var oauthResp struct {
		AccessToken string `json:"access_token"`
		ExpiresAt   int64  `json:"expires_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&oauthResp); err != nil {
		return "", fmt.Errorf("failed to decode OAuth response: %w", err)
	}
	if oauthResp.AccessToken == "" {
		return "", fmt.Errorf("empty access token in OAuth response")
	}

	r.accessToken = oauthResp.AccessToken
	r.logger.Info("GigaChat access token obtained")
	return r.accessToken, nil
}

func (r *GigaChatRecognizer) resetToken() {
	r.mu.Lock()
	r.accessToken = ""
	r.mu.Unlock()
}

func (r *GigaChatRecognizer) uploadFile(ctx context.Context, token, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("purpose", "general"); err != nil {
		return "", fmt.Errorf("failed to write purpose field: %w", err)
	}

	fileName := filepath.Base(path)
	part, err := writer.CreatePart(map[string][]string{
		"Content-Type":        {mimeType(fileName)},
		"Content-Disposition": {fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("failed to copy file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/files", &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return "", errUnauthorized
	case resp.StatusCode == http.StatusRequestEntityTooLarge:
		return "", fmt.Errorf("file too large for GigaChat upload")
	case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated:
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(data))
	}

	var uploadResp struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}

	r.logger.Debug("File uploaded to GigaChat", zap.String("file_id", uploadResp.ID))
	return uploadResp.ID, nil
}

type visionMessage struct {
	Role        string   `json:"role"`
	Content     string   `json:"content"`
	Attachments []string `json:"attachments,omitempty"`
}

type visionRequest struct {
	Model       string          `json:"model"`
	Messages    []visionMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	Stream      bool            `json:"stream"`
}

func (r *GigaChatRecognizer) transcribe(ctx context.Context, token, fileID string) (string, error) {
	payload, err := json.Marshal(visionRequest{
		Model: gigaChatModel,
		Messages: []visionMessage{{
			Role:        "user",
			Content:     receiptPrompt,
			Attachments: []string{fileID},
		}},
		Temperature: 0.1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", errUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("vision API failed with status %d: %s", resp.StatusCode, string(data))
	}

	var visionResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&visionResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(visionResp.Choices) == 0 {
		return "", fmt.Errorf("no response from vision API")
	}

	text := strings.TrimSpace(visionResp.Choices[0].Message.Content)
	lower := strings.ToLower(text)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			r.logger.Warn("Model refused to transcribe receipt", zap.String("message", text))
			return "", fmt.Errorf("%w: %s", ErrModelRefused, text)
		}
	}

	return text, nil
}

func mimeType(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	}
	return "application/octet-stream"
}
