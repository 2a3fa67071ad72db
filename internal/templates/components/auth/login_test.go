package auth

import (
	"context"
	"strings"
	"testing"
)

func TestLoginFormShowsEscapedError(t *testing.T) {
	var b strings.Builder
	if err := LoginForm(`a"b@example.com`, "Invalid credentials. Please try again.").Render(context.Background(), &b); err != nil {
		t.Fatalf("render: %v", err)
	}
	html := b.String()
	if !strings.Contains(html, `role="alert">Invalid credentials. Please try again.</p>`) {
		t.Fatalf("expected error message, got:\n%s", html)
	}
	if strings.Contains(html, `value="a"b@example.com"`) {
		t.Fatal("expected email attribute to be escaped")
	}
}

func TestLoginLayoutHasNoError(t *testing.T) {
	var b strings.Builder
	if err := LoginLayout().Render(context.Background(), &b); err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(b.String(), `role="alert"`) {
		t.Fatal("expected no error on a fresh login page")
	}
}
