package errors

import (
	"errors"
	"strings"
	"testing"
)

var errBase = errors.New(`base`)

func TestWrapf_Keeps_Chain(t *testing.T) {
	err := Wrapf(errBase, `component %d`, 99)
	if !errors.Is(err, errBase) {
		t.Errorf("errors.Is() = false, want true")
	}

	if !strings.Contains(err.Error(), `component 99`) {
		t.Errorf("Error() = %s, want message with component id", err)
	}

	if !strings.Contains(err.Error(), `TestWrapf_Keeps_Chain`) {
		t.Errorf("Error() = %s, want caller frame", err)
	}
}

func TestWrapWithFrameSkip(t *testing.T) {
	helper := func() error {
		return WrapWithFrameSkip(errBase, `from helper`, 3)
	}

	err := helper()
	if !errors.Is(err, errBase) {
		t.Fail()
	}

	if !strings.Contains(err.Error(), `TestWrapWithFrameSkip`) || strings.Contains(err.Error(), `func1`) {
		t.Errorf("Error() = %s, want the helper's caller as location", err)
	}
}

type codeErr struct{ code int }

func (e *codeErr) Error() string { return `code` }

func TestWrap_Keeps_Typed_Cause(t *testing.T) {
	err := Wrap(Wrap(&codeErr{code: 7}, `inner`), `outer`)
	var target *codeErr
	if !errors.As(err, &target) || target.code != 7 {
		t.Fatalf("errors.As() did not reach the cause of %s", err)
	}

	if !strings.HasPrefix(err.Error(), `outer at `) || !strings.Contains(err.Error(), "caused by: inner at ") {
		t.Errorf("Error() = %s", err)
	}
}

func TestNew(t *testing.T) {
	err := New(`topology cannot be nil`)
	if !strings.HasPrefix(err.Error(), `topology cannot be nil at `) || !strings.Contains(err.Error(), `errors_test.go`) {
		t.Errorf("New() = %s", err)
	}
}

func TestErrorf(t *testing.T) {
	err := Errorf(`task %d missing`, 21)
	if !strings.HasPrefix(err.Error(), `task 21 missing at `) {
		t.Errorf("Errorf() = %s", err)
	}

	if wrapped := Errorf(`decode: %w`, errBase); !errors.Is(wrapped, errBase) {
		t.Errorf("Errorf() dropped the %%w cause")
	}
}
