package cloud

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// directoryRequestTimeout bounds a single directory request.
const directoryRequestTimeout = 30 * time.Second

// DirectoryDevice is one appliance record from the device directory.
type DirectoryDevice struct {
	Serial           string `json:"Serial"`
	Name             string `json:"Name"`
	ProductType      string `json:"ProductType"`
	Version          string `json:"Version"`
	LocalCredentials string `json:"LocalCredentials"`
}

// Logger defines the logging interface used by the directory client.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// DirectoryClient lists provisioned appliances from the external device
// directory. Authentication is an opaque bearer token acquired out of band.
type DirectoryClient struct {
	baseURL    string
	token      string
	retryDelay time.Duration
	httpClient *http.Client
	logger     Logger
}

// NewDirectoryClient creates a directory client.
//
// Parameters:
//   - baseURL: Directory endpoint, no trailing slash
//   - token: Bearer token for the directory API
//   - retryDelay: Backoff between failed listing attempts
func NewDirectoryClient(baseURL, token string, retryDelay time.Duration) *DirectoryClient {
	return &DirectoryClient{
		baseURL:    baseURL,
		token:      token,
		retryDelay: retryDelay,
		httpClient: &http.Client{Timeout: directoryRequestTimeout},
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger for the client.
func (c *DirectoryClient) SetLogger(logger Logger) {
	c.logger = logger
}

// Devices fetches the device list once.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - []DirectoryDevice: Provisioned appliances
//   - error: ErrDirectoryUnavailable wrapping the transport or status failure
func (c *DirectoryClient) Devices(ctx context.Context) ([]DirectoryDevice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/provisioningservice/manifest", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("%w: authentication rejected (status %d)", ErrDirectoryUnavailable, resp.StatusCode)
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: rate limited", ErrDirectoryUnavailable)
	default:
		return nil, fmt.Errorf("%w: unexpected status %d", ErrDirectoryUnavailable, resp.StatusCode)
	}

	var devices []DirectoryDevice
	if err := json.NewDecoder(resp.Body).Decode(&devices); err != nil {
		return nil, fmt.Errorf("%w: decoding manifest: %v", ErrDirectoryUnavailable, err)
	}

	return devices, nil
}

// DevicesWithRetry fetches the device list, retrying after the configured
// backoff until it succeeds or the context is cancelled. Directory failures
// are never fatal to the process; the caller decides how long to keep
// trying via ctx.
func (c *DirectoryClient) DevicesWithRetry(ctx context.Context) ([]DirectoryDevice, error) {
	for {
		devices, err := c.Devices(ctx)
		if err == nil {
			return devices, nil
		}

		c.logger.Warn("device directory listing failed, retrying",
			"error", err,
			"retry_delay", c.retryDelay,
		)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, ctx.Err())
		case <-time.After(c.retryDelay):
		}
	}
}
