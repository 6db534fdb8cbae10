package captcha

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"dreamhome/web/internal/config"
)

// FormField is the form field the Turnstile widget posts its token in.
const FormField = "cf-turnstile-response"

// ITurnstileVerifier defines the interface for verifying Cloudflare Turnstile tokens.
type ITurnstileVerifier interface {
	Enabled() bool
	SiteKey() string
	Verify(ctx context.Context, token, remoteIP string) (bool, error)
}

// CloudflareResponse is the expected structure from the siteverify endpoint.
type CloudflareResponse struct {
	Success     bool     `json:"success"`
	ErrorCodes  []string `json:"error-codes"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	Action      string   `json:"action"`
}

// turnstileVerifier implements ITurnstileVerifier.
type turnstileVerifier struct {
	secret     string
	siteKey    string
	verifyURL  string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewTurnstileVerifier creates a new Turnstile verifier.
func NewTurnstileVerifier(cfg *config.Config, logger *zap.Logger) ITurnstileVerifier {
	return &turnstileVerifier{
		secret:     cfg.CloudflareTurnstileSecretKey,
		siteKey:    cfg.CloudflareTurnstileSiteKey,
		verifyURL:  cfg.CloudflareSiteVerifyURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logger:     logger,
	}
}

// Enabled reports whether a secret key is configured.
func (v *turnstileVerifier) Enabled() bool { return v.secret != "" }

// SiteKey is rendered into the login and register forms.
func (v *turnstileVerifier) SiteKey() string { return v.siteKey }

// Verify calls the Cloudflare siteverify endpoint. Without a secret key every
// token passes.
func (v *turnstileVerifier) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	if !v.Enabled() {
		return true, nil
	}
	if token == "" {
		return false, nil
	}

	formData := map[string]string{
		"secret":   v.secret,
		"response": token,
	}
	if remoteIP != "" {
		formData["remoteip"] = remoteIP
	}

	jsonData, _ := json.Marshal(formData)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, bytes.NewReader(jsonData))
	if err != nil {
		return false, fmt.Errorf("failed to create turnstile request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		v.logger.Warn("turnstile siteverify unreachable", zap.Error(err))
		return false, fmt.Errorf("failed to contact turnstile service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read turnstile response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		v.logger.Warn("turnstile siteverify non-OK status", zap.Int("status", resp.StatusCode), zap.ByteString("body", body))
		return false, fmt.Errorf("turnstile verification failed with status %d", resp.StatusCode)
	}

	var cfResp CloudflareResponse
	if err := json.Unmarshal(body, &cfResp); err != nil {
		return false, fmt.Errorf("failed to parse turnstile response: %w", err)
	}
	if !cfResp.Success {
		v.logger.Info("turnstile verification unsuccessful", zap.Strings("error_codes", cfResp.ErrorCodes))
	}
	return cfResp.Success, nil
}
