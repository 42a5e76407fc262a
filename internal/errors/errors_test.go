package errors

import (
	stdErrors "errors"
	"strings"
	"testing"
)

func TestNewUsesRegisteredMessage(t *testing.T) {
	err := New(CodeStorageFailure, "")
	if err.Message() != "storage failure" {
		t.Fatalf("empty message should fall back to registry, got %q", err.Message())
	}
	if !strings.Contains(err.Error(), string(CodeStorageFailure)) {
		t.Fatalf("error string should carry the code: %s", err.Error())
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("connection refused")
	err := Wrap(CodeQueueFailure, cause, "publish failed")

	if !stdErrors.Is(err, cause) {
		t.Fatal("wrapped error should match its cause")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("error string should include the cause: %s", err.Error())
	}
}

func TestIsMatchesByCode(t *testing.T) {
	a := New(CodeNotFound, "first")
	b := New(CodeNotFound, "second")
	c := New(CodeConflict, "other")

	if !stdErrors.Is(a, b) {
		t.Fatal("errors with the same code should match")
	}
	if stdErrors.Is(a, c) {
		t.Fatal("errors with different codes should not match")
	}
}

func TestCodeOf(t *testing.T) {
	wrapped := Wrap(CodePipelineFailure, stdErrors.New("boom"), "")
	if CodeOf(wrapped) != CodePipelineFailure {
		t.Fatalf("unexpected code: %s", CodeOf(wrapped))
	}
	if CodeOf(stdErrors.New("plain")) != CodeUnknown {
		t.Fatal("plain errors should map to UNKNOWN")
	}
	if CodeOf(nil) != CodeUnknown {
		t.Fatal("nil should map to UNKNOWN")
	}
}

func TestAlertAndSeverityDefaults(t *testing.T) {
	err := New(CodeStorageFailure, "disk full")
	if !err.ShouldAlert() {
		t.Fatal("storage failures alert by default")
	}
	if err.Severity() != SeverityCritical {
		t.Fatalf("unexpected severity: %s", err.Severity())
	}

	muted := New(CodeStorageFailure, "disk full", WithAlert(false), WithSeverity(SeverityInfo))
	if muted.ShouldAlert() {
		t.Fatal("WithAlert(false) should mute the alert")
	}
	if muted.Severity() != SeverityInfo {
		t.Fatalf("WithSeverity should override: %s", muted.Severity())
	}
}

func TestRegisterCustomCode(t *testing.T) {
	const code Code = "TEST_CUSTOM"
	Register(code, Attributes{Message: "custom failure", Severity: SeverityWarning, Alert: true})

	attr := AttributesOf(code)
	if attr.Message != "custom failure" || attr.Severity != SeverityWarning || !attr.Alert {
		t.Fatalf("unexpected attributes: %+v", attr)
	}
	if AttributesOf(Code("NEVER_REGISTERED")) != AttributesOf(CodeUnknown) {
		t.Fatal("unregistered codes should fall back to UNKNOWN attributes")
	}
}

func TestNilErrorAccessors(t *testing.T) {
	var err *Error
	if err.Error() != "" || err.Code() != CodeUnknown || err.ShouldAlert() {
		t.Fatal("nil receiver accessors should return zero values")
	}
}
