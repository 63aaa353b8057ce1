// Package integration provides CLI integration tests for reclaim.
package integration

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

var (
	// reclaimBin is the path to the built reclaim binary.
	reclaimBin string
	// buildErr captures any build error.
	buildErr error
)

// BuildError wraps a build error with output.
type BuildError struct {
	Err    error
	Output string
}

func (e *BuildError) Error() string {
	return e.Err.Error() + ": " + e.Output
}

// FindProjectRoot finds the project root by walking up and looking for go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		goModPath := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(goModPath); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// SetReclaimBin sets the path to the reclaim binary (called from TestMain).
func SetReclaimBin(path string) {
	reclaimBin = path
}

// SetBuildErr sets the build error (called from TestMain).
func SetBuildErr(err error) {
	buildErr = err
}

// TestEnv provides an isolated test environment with its own config and data directory.
type TestEnv struct {
	t       *testing.T
	TempDir string
	Config  string
	DataDir string
}

// NewTestEnv creates a new isolated test environment.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	if buildErr != nil {
		t.Fatalf("failed to build reclaim: %v", buildErr)
	}
	if reclaimBin == "" {
		t.Fatal("reclaim binary not built (reclaimBin is empty)")
	}

	tempDir := t.TempDir()
	dataDir := filepath.Join(tempDir, "data")
	configDir := filepath.Join(tempDir, "config")

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	configContent := "backend: sqlite\ndata_dir: " + dataDir + "\n"
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(configContent), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	return &TestEnv{
		t:       t,
		TempDir: tempDir,
		Config:  configDir,
		DataDir: dataDir,
	}
}

// CmdResult holds the result of a reclaim command execution.
type CmdResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// RunReclaim executes the reclaim CLI with the given arguments.
func (e *TestEnv) RunReclaim(args ...string) CmdResult {
	e.t.Helper()

	allArgs := append([]string{"--config-dir", e.Config, "--data-dir", e.DataDir}, args...)
	cmd := exec.Command(reclaimBin, allArgs...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			e.t.Fatalf("failed to run reclaim: %v", err)
		}
	}

	return CmdResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
	}
}

// MustRunReclaim executes the reclaim CLI and fails the test if it returns non-zero.
func (e *TestEnv) MustRunReclaim(args ...string) CmdResult {
	e.t.Helper()
	result := e.RunReclaim(args...)
	if result.ExitCode != 0 {
		e.t.Fatalf("reclaim %v failed with exit code %d:\nstdout: %s\nstderr: %s",
			args, result.ExitCode, result.Stdout, result.Stderr)
	}
	return result
}

// ParseJSON parses JSON output into the target type.
func ParseJSON[T any](t *testing.T, jsonStr string) T {
	t.Helper()
	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		t.Fatalf("failed to parse JSON %q: %v", jsonStr, err)
	}
	return result
}

// Claim is the claim view for JSON parsing.
type Claim struct {
	Applicant      string `json:"applicant"`
	DevolutionCode string `json:"devolution_code"`
}

// Object is the object view for JSON parsing.
type Object struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	Type        string `json:"type"`
	Status      int    `json:"status"`
	Institution string `json:"institution"`
	Claim       *Claim `json:"claim"`
	Fields      []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"fields"`
}

// Notification is the notification view for JSON parsing.
type Notification struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	ObjectFound  string `json:"object_found"`
	ObjectToFind struct {
		Category string `json:"category"`
		Type     string `json:"type"`
	} `json:"object_to_find"`
}

// SolicitResult is the solicit command's JSON output.
type SolicitResult struct {
	ObjectID       string `json:"objectId"`
	DevolutionCode string `json:"devolutionCode"`
}
