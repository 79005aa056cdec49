package chromaprint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"

	"stylus/internal/services"
)

// Fingerprint is the compact acoustic signature fpcalc derives from a file.
type Fingerprint struct {
	// Duration is the audio length in whole seconds.
	Duration int `json:"duration"`
	// Value is the compressed chromaprint string sent to the lookup service.
	Value string `json:"fingerprint"`
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps fpcalc invocations.
type Client struct {
	binary string
	exec   Executor
}

// New constructs a chromaprint client around the given fpcalc binary.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("fpcalc binary required")
	}
	client := &Client{binary: binary, exec: commandExecutor{}}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Fingerprint computes the acoustic fingerprint of one audio file.
// Repeated calls on unchanged audio return identical results, which keeps
// identification retryable end to end.
func (c *Client) Fingerprint(ctx context.Context, path string) (Fingerprint, error) {
	output, err := c.exec.Run(ctx, c.binary, []string{"-json", path})
	if err != nil {
		if ctx.Err() != nil {
			return Fingerprint{}, services.Wrap(services.ErrUnavailable, "chromaprint", "fpcalc", "fingerprinting cancelled", ctx.Err())
		}
		if execFailedToStart(err) {
			return Fingerprint{}, services.Wrap(services.ErrUnavailable, "chromaprint", "fpcalc", fmt.Sprintf("cannot run %s", c.binary), err)
		}
		detail := strings.TrimSpace(string(output))
		if looksTooShort(detail) {
			return Fingerprint{}, services.Wrap(services.ErrMalformedAudio, "chromaprint", "fpcalc", fmt.Sprintf("audio too short to fingerprint: %s", path), err)
		}
		return Fingerprint{}, services.Wrap(services.ErrMalformedAudio, "chromaprint", "fpcalc", fmt.Sprintf("fingerprinting failed for %s", path), err)
	}

	var fp Fingerprint
	if err := json.Unmarshal(bytes.TrimSpace(output), &fp); err != nil {
		return Fingerprint{}, services.Wrap(services.ErrMalformedAudio, "chromaprint", "parse output", fmt.Sprintf("unexpected fpcalc output for %s", path), err)
	}
	if fp.Value == "" || fp.Duration <= 0 {
		return Fingerprint{}, services.Wrap(services.ErrMalformedAudio, "chromaprint", "parse output", fmt.Sprintf("empty fingerprint for %s", path), nil)
	}
	return fp, nil
}

// execFailedToStart distinguishes a binary that never ran (missing,
// unresolvable, not executable) from fpcalc rejecting its input. Only the
// latter says anything about the audio.
func execFailedToStart(err error) bool {
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return true
	}
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrPermission)
}

// looksTooShort recognizes fpcalc's too-short diagnostics so the failure can
// be surfaced distinctly from other malformed-audio cases.
func looksTooShort(stderr string) bool {
	lowered := strings.ToLower(stderr)
	return strings.Contains(lowered, "too short") || strings.Contains(lowered, "empty fingerprint")
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	return cmd.CombinedOutput()
}
