package credentials

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestManagerSetGetDelete(t *testing.T) {
	kr := NewMockKeyring()
	m := NewManager(WithKeyring(kr), WithEnv(envMap(nil)))
	ctx := context.Background()

	if err := m.Set(ctx, "https://sylve.lan:8181/", `{"token":"abc"}`); err != nil {
		t.Fatalf("Set: %v", err)
	}

	secret, ok, err := m.Get(ctx, "https://sylve.lan:8181")
	if err != nil || !ok || secret != `{"token":"abc"}` {
		t.Fatalf("Get = %q %v %v", secret, ok, err)
	}

	raw, err := kr.Get(Service, "https://sylve.lan:8181")
	if err != nil || raw == "" {
		t.Errorf("expected secret under service %q, got %v", Service, err)
	}

	if err := m.Delete(ctx, "https://sylve.lan:8181"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := m.Get(ctx, "https://sylve.lan:8181"); ok {
		t.Error("secret should be gone after Delete")
	}
}

func TestManagerDeleteIsIdempotent(t *testing.T) {
	m := NewManager(WithKeyring(NewMockKeyring()))
	if err := m.Delete(context.Background(), "https://nowhere"); err != nil {
		t.Errorf("Delete of missing secret: %v", err)
	}
}

// unavailableKeyring behaves like a headless host without Secret Service.
type unavailableKeyring struct{}

func (unavailableKeyring) Set(string, string, string) error { return ErrKeyringNotAvailable }
func (unavailableKeyring) Get(string, string) (string, error) {
	return "", ErrKeyringNotAvailable
}
func (unavailableKeyring) Delete(string, string) error { return ErrKeyringNotAvailable }

func TestManagerGetWithoutKeyring(t *testing.T) {
	m := NewManager(WithKeyring(unavailableKeyring{}))
	secret, ok, err := m.Get(context.Background(), "https://sylve.lan")
	if err != nil || ok || secret != "" {
		t.Errorf("expected a quiet miss, got %q %v %v", secret, ok, err)
	}

	if err := m.Set(context.Background(), "https://sylve.lan", "x"); !errors.Is(err, ErrKeyringNotAvailable) {
		t.Errorf("expected ErrKeyringNotAvailable from Set, got %v", err)
	}
}

func TestManagerWithService(t *testing.T) {
	kr := NewMockKeyring()
	m := NewManager(WithKeyring(kr), WithService("sylvectl-test"))
	_ = m.Set(context.Background(), "acct", "s")

	if _, err := kr.Get("sylvectl-test", "acct"); err != nil {
		t.Errorf("expected secret under custom service: %v", err)
	}
	if _, err := kr.Get(Service, "acct"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound under default service, got %v", err)
	}
}

func TestEnvToken(t *testing.T) {
	m := NewManager(WithKeyring(NewMockKeyring()), WithEnv(envMap(map[string]string{EnvTokenVar: " envtok "})))
	tok, src := m.EnvToken()
	if tok != "envtok" || src != SourceEnvironment {
		t.Errorf("EnvToken = %q %s", tok, src)
	}

	m = NewManager(WithKeyring(NewMockKeyring()), WithEnv(envMap(nil)))
	if tok, src := m.EnvToken(); tok != "" || src != SourceNone {
		t.Errorf("expected no env token, got %q %s", tok, src)
	}
}

func TestPromptPasswordFromPipe(t *testing.T) {
	var out bytes.Buffer
	pw, err := PromptPassword(strings.NewReader("hunter2\nignored\n"), &out, "admin")
	if err != nil {
		t.Fatalf("PromptPassword: %v", err)
	}
	if pw != "hunter2" {
		t.Errorf("expected hunter2, got %q", pw)
	}
	if !strings.Contains(out.String(), "Password for admin") {
		t.Errorf("unexpected prompt %q", out.String())
	}

	if _, err := PromptPassword(strings.NewReader(""), &out, "admin"); err == nil {
		t.Error("expected error on empty input")
	}
}

func TestMockKeyringSetErr(t *testing.T) {
	kr := NewMockKeyring()
	kr.SetErr = errors.New("locked")
	if err := kr.Set("s", "a", "x"); err == nil || err.Error() != "locked" {
		t.Errorf("expected injected error, got %v", err)
	}
}

func TestSystemKeyringImplementsKeyring(t *testing.T) {
	var _ Keyring = &systemKeyring{}
	if !errors.Is(mapKeyringError(errors.New("dbus: no session bus")), ErrKeyringNotAvailable) {
		t.Error("unknown errors should map to ErrKeyringNotAvailable")
	}
	if mapKeyringError(nil) != nil {
		t.Error("nil should stay nil")
	}
}
