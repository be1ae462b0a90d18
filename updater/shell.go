package updater

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// ShellClient posts update commands to the desktop shell's control
// endpoint.
type ShellClient struct {
	controlURL string
	token      string
	httpc      *http.Client
}

func NewShellClient(controlURL, token string) *ShellClient {
	return &ShellClient{
		controlURL: controlURL,
		token:      token,
		httpc:      &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *ShellClient) DownloadUpdate(ctx context.Context) error {
	return s.post(ctx, "download-update")
}

func (s *ShellClient) InstallUpdate(ctx context.Context) error {
	return s.post(ctx, "install-update")
}

func (s *ShellClient) post(ctx context.Context, command string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.controlURL+"/"+command, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", command, err)
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", command, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("%s failed with status %d", command, resp.StatusCode)
	}
	return nil
}

// NopShell is used when no desktop shell is attached; commands succeed
// without doing anything.
type NopShell struct{}

func (NopShell) DownloadUpdate(context.Context) error { return nil }
func (NopShell) InstallUpdate(context.Context) error  { return nil }
