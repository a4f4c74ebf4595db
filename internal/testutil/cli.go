package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sylvectl/cmd/sylvectl/cmd"
	"sylvectl/internal/config"
	"sylvectl/internal/credentials"
	"sylvectl/internal/session"
)

// CLITest runs sylvectl commands against a SylveServer with an isolated
// config, cache directory and in-memory keyring.
type CLITest struct {
	t          *testing.T
	cfg        *cmd.Config
	tmpDir     string
	configPath string
	keyring    *credentials.MockKeyring
	env        map[string]string

	Server *SylveServer
}

// NewCLITest creates a CLI harness with a fresh server and no session.
func NewCLITest(t *testing.T) *CLITest {
	t.Helper()
	t.Setenv(config.EnvServer, "")

	srv := NewSylveServer(t)
	tmpDir := t.TempDir()
	c := &CLITest{
		t:          t,
		tmpDir:     tmpDir,
		configPath: filepath.Join(tmpDir, "config.yaml"),
		keyring:    credentials.NewMockKeyring(),
		env:        map[string]string{},
		Server:     srv,
	}
	c.cfg = &cmd.Config{
		ConfigPath: c.configPath,
		Keyring:    c.keyring,
		Getenv:     func(key string) string { return c.env[key] },
		Stdin:      strings.NewReader(""),
		NoSignals:  true,
	}
	c.SetFullConfig(c.baseConfig(""))
	return c
}

// NewLoggedInCLITest creates a CLI harness with a stored session for the
// fake server's node-a.
func NewLoggedInCLITest(t *testing.T) *CLITest {
	t.Helper()
	c := NewCLITest(t)
	c.StoreSession("tok-123")
	return c
}

func (c *CLITest) baseConfig(extra string) string {
	return fmt.Sprintf(`server:
  url: %s
cache:
  store: file
  path: %s
retry:
  max_retries: 0
%s`, c.Server.URL, filepath.Join(c.tmpDir, "cache"), extra)
}

// Config returns the command config passed to Execute.
func (c *CLITest) Config() *cmd.Config {
	return c.cfg
}

// TmpDir returns the temp directory holding the config and cache.
func (c *CLITest) TmpDir() string {
	return c.tmpDir
}

// ConfigPath returns the config file path.
func (c *CLITest) ConfigPath() string {
	return c.configPath
}

// CacheDir returns the file cache directory.
func (c *CLITest) CacheDir() string {
	return filepath.Join(c.tmpDir, "cache")
}

// SetFullConfig replaces the config file.
func (c *CLITest) SetFullConfig(yamlContent string) {
	c.t.Helper()
	if err := os.WriteFile(c.configPath, []byte(yamlContent), 0644); err != nil {
		c.t.Fatalf("failed to write config: %v", err)
	}
}

// AppendConfig writes the base config plus extra top-level YAML.
func (c *CLITest) AppendConfig(extra string) {
	c.t.Helper()
	c.SetFullConfig(c.baseConfig(extra))
}

// SetEnv sets a variable seen by the credentials manager.
func (c *CLITest) SetEnv(key, value string) {
	c.env[key] = value
}

// SetStdin replaces what commands read from stdin.
func (c *CLITest) SetStdin(input string) {
	c.cfg.Stdin = strings.NewReader(input)
}

// Keyring returns the in-memory keyring.
func (c *CLITest) Keyring() *credentials.MockKeyring {
	return c.keyring
}

func (c *CLITest) sessions() *session.Store {
	return session.NewStore(credentials.NewManager(
		credentials.WithKeyring(c.keyring),
		credentials.WithEnv(func(string) string { return "" }),
	))
}

// StoreSession saves a session for the fake server as if login had run.
func (c *CLITest) StoreSession(token string) {
	c.t.Helper()
	s := session.New(c.Server.URL)
	s.SetToken(token, time.Now())
	s.SetClusterToken("ct-456")
	s.SetHostname("node-a")
	s.SetUser("admin", "sylve")
	if err := c.sessions().Save(context.Background(), s); err != nil {
		c.t.Fatalf("failed to store session: %v", err)
	}
}

// Session loads the stored session, or nil when there is none.
func (c *CLITest) Session() *session.Session {
	c.t.Helper()
	s, err := c.sessions().Load(context.Background(), c.Server.URL)
	if err != nil {
		return nil
	}
	return s
}

// Execute runs a CLI command and returns stdout, stderr, and exit code.
func (c *CLITest) Execute(args ...string) (stdout, stderr string, exitCode int) {
	c.t.Helper()

	var stdoutBuf, stderrBuf bytes.Buffer
	exitCode = cmd.Execute(args, &stdoutBuf, &stderrBuf, c.cfg)
	return stdoutBuf.String(), stderrBuf.String(), exitCode
}

// MustExecute runs a CLI command and fails the test if exit code is non-zero.
func (c *CLITest) MustExecute(args ...string) string {
	c.t.Helper()

	stdout, stderr, exitCode := c.Execute(args...)
	if exitCode != 0 {
		c.t.Fatalf("expected exit code 0, got %d: stdout=%s stderr=%s", exitCode, stdout, stderr)
	}
	return stdout
}

// ExecuteAndFail runs a CLI command and fails the test if exit code is zero.
func (c *CLITest) ExecuteAndFail(args ...string) (stdout, stderr string) {
	c.t.Helper()

	stdout, stderr, exitCode := c.Execute(args...)
	if exitCode == 0 {
		c.t.Fatalf("expected non-zero exit code, got 0: stdout=%s", stdout)
	}
	return stdout, stderr
}

// AssertContains fails the test if output doesn't contain expected string.
func AssertContains(t *testing.T, output, expected string) {
	t.Helper()
	if !strings.Contains(output, expected) {
		t.Errorf("expected output to contain %q, got:\n%s", expected, output)
	}
}

// AssertNotContains fails the test if output contains unexpected string.
func AssertNotContains(t *testing.T, output, unexpected string) {
	t.Helper()
	if strings.Contains(output, unexpected) {
		t.Errorf("expected output NOT to contain %q, got:\n%s", unexpected, output)
	}
}
