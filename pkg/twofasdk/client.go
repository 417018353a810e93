package twofasdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the two-factor service on behalf of an authenticated
// subject. The bearer token is supplied by the caller, the client does not
// manage identity tokens itself.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// Token is sent as the Authorization bearer token on every request.
	Token string
}

// NewClient creates a two-factor service client.
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		Token: token,
	}
}

// StartEnrollment begins a new enrollment for the authenticated subject.
func (c *Client) StartEnrollment(ctx context.Context) (*StartEnrollmentResponse, error) {
	var out StartEnrollmentResponse
	if err := c.do(ctx, http.MethodPost, "/v1/2fa/enroll", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyEnrollment submits the first authenticator code. On success the
// response carries the one-time backup codes.
func (c *Client) VerifyEnrollment(ctx context.Context, code string) (*VerifyEnrollmentResponse, error) {
	var out VerifyEnrollmentResponse
	if err := c.do(ctx, http.MethodPost, "/v1/2fa/enroll/verify", VerifyEnrollmentRequest{Code: code}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AckEnrollment acknowledges the backup codes and completes enrollment.
func (c *Client) AckEnrollment(ctx context.Context) (*AckEnrollmentResponse, error) {
	var out AckEnrollmentResponse
	if err := c.do(ctx, http.MethodPost, "/v1/2fa/enroll/ack", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EnrollmentStatus reports whether the subject has two-factor enabled.
func (c *Client) EnrollmentStatus(ctx context.Context) (*EnrollmentStatusResponse, error) {
	var out EnrollmentStatusResponse
	if err := c.do(ctx, http.MethodGet, "/v1/2fa/enroll", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DisableEnrollment removes the subject's two-factor credential.
func (c *Client) DisableEnrollment(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/v1/2fa/enroll", nil, nil)
}

// RegenerateBackupCodes replaces the subject's backup codes with a fresh
// batch, invalidating all previous codes.
func (c *Client) RegenerateBackupCodes(ctx context.Context) (*RegenerateBackupCodesResponse, error) {
	var out RegenerateBackupCodesResponse
	if err := c.do(ctx, http.MethodPost, "/v1/2fa/backup-codes", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StartChallenge opens a verification challenge in the given mode.
func (c *Client) StartChallenge(ctx context.Context, mode string) (*StartChallengeResponse, error) {
	var out StartChallengeResponse
	if err := c.do(ctx, http.MethodPost, "/v1/2fa/challenges", StartChallengeRequest{Mode: mode}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SwitchPath changes the challenge's active input path.
func (c *Client) SwitchPath(ctx context.Context, challengeID, path string) (*SwitchPathResponse, error) {
	var out SwitchPathResponse
	p := fmt.Sprintf("/v1/2fa/challenges/%s/path", challengeID)
	if err := c.do(ctx, http.MethodPost, p, SwitchPathRequest{Path: path}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitCode submits a code on the challenge's active path.
func (c *Client) SubmitCode(ctx context.Context, challengeID, code string) (*SubmitCodeResponse, error) {
	var out SubmitCodeResponse
	p := fmt.Sprintf("/v1/2fa/challenges/%s/verify", challengeID)
	if err := c.do(ctx, http.MethodPost, p, SubmitCodeRequest{Code: code}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelChallenge abandons an open challenge.
func (c *Client) CancelChallenge(ctx context.Context, challengeID string) error {
	return c.do(ctx, http.MethodDelete, "/v1/2fa/challenges/"+challengeID, nil, nil)
}

// GetLiveness checks the service is up. No authentication required.
func (c *Client) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.do(ctx, http.MethodGet, "/livez", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do performs a JSON request and decodes the response into out (if non-nil).
// Non-2xx responses come back as *Error.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if err := parseErrorResponse(resp, raw); err != nil {
		return err
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
