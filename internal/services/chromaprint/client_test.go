package chromaprint

import (
	"context"
	"errors"
	osexec "os/exec"
	"testing"

	"stylus/internal/services"
)

type fakeExecutor struct {
	output []byte
	err    error
	calls  [][]string
}

func (f *fakeExecutor) Run(_ context.Context, binary string, args []string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{binary}, args...))
	return f.output, f.err
}

func TestFingerprintParsesOutput(t *testing.T) {
	exec := &fakeExecutor{output: []byte(`{"duration": 213, "fingerprint": "AQADtEqkRIn"}`)}
	client, err := New("fpcalc", WithExecutor(exec))
	if err != nil {
		t.Fatal(err)
	}

	fp, err := client.Fingerprint(context.Background(), "/music/track.flac")
	if err != nil {
		t.Fatal(err)
	}
	if fp.Duration != 213 || fp.Value != "AQADtEqkRIn" {
		t.Fatalf("fingerprint = %+v", fp)
	}
	if len(exec.calls) != 1 || exec.calls[0][1] != "-json" {
		t.Fatalf("unexpected invocation: %v", exec.calls)
	}
}

func TestFingerprintTooShortAudio(t *testing.T) {
	exec := &fakeExecutor{
		output: []byte("ERROR: file duration too short for fingerprinting"),
		err:    errors.New("exit status 1"),
	}
	client, err := New("fpcalc", WithExecutor(exec))
	if err != nil {
		t.Fatal(err)
	}

	_, err = client.Fingerprint(context.Background(), "/music/stub.flac")
	if !errors.Is(err, services.ErrMalformedAudio) {
		t.Fatalf("expected ErrMalformedAudio, got %v", err)
	}
}

func TestFingerprintMissingBinaryIsUnavailable(t *testing.T) {
	exec := &fakeExecutor{
		err: &osexec.Error{Name: "fpcalc", Err: osexec.ErrNotFound},
	}
	client, err := New("fpcalc", WithExecutor(exec))
	if err != nil {
		t.Fatal(err)
	}

	_, err = client.Fingerprint(context.Background(), "/music/track.flac")
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	// A broken tool must not read as broken audio, or whole albums would
	// quietly come back with no ballots at all.
	if errors.Is(err, services.ErrMalformedAudio) {
		t.Fatalf("missing fpcalc misread as malformed audio: %v", err)
	}
}

func TestFingerprintRejectsEmptyResult(t *testing.T) {
	exec := &fakeExecutor{output: []byte(`{"duration": 0, "fingerprint": ""}`)}
	client, err := New("fpcalc", WithExecutor(exec))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := client.Fingerprint(context.Background(), "/music/track.flac"); err == nil {
		t.Fatal("expected error for empty fingerprint")
	}
}

func TestNewRequiresBinary(t *testing.T) {
	if _, err := New("  "); err == nil {
		t.Fatal("expected error for empty binary")
	}
}
