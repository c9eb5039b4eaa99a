package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseConfigure,
				Kind:   KindInvalidEnum,
				Path:   []string{"truncation", "direction"},
				Detail: "expected 0 or 1",
			},
			contains: []string{"[configure]", "invalid_enum", "truncation.direction", "expected 0 or 1"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDecode,
				Kind:  KindEngine,
			},
			contains: []string{"[decode]", "engine"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseMarshal,
				Kind:   KindAllocation,
				Detail: "memory full",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[marshal]", "allocation", "memory full", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseEncode,
		Kind:  KindEngine,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}

	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseEncode,
		Kind:  KindInvalidUTF8,
		Path:  []string{"texts", "2"},
	}

	if !err.Is(&Error{Phase: PhaseEncode, Kind: KindInvalidUTF8}) {
		t.Error("Is should match same phase and kind")
	}

	if err.Is(&Error{Phase: PhaseDecode, Kind: KindInvalidUTF8}) {
		t.Error("Is should not match different phase")
	}

	if err.Is(&Error{Phase: PhaseEncode, Kind: KindEngine}) {
		t.Error("Is should not match different kind")
	}

	target := &Error{Phase: PhaseEncode, Kind: KindInvalidUTF8}
	if !errors.Is(err, target) {
		t.Error("errors.Is should match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseConfigure, KindInvalidEnum).
		Path("truncation", "strategy").
		Value(7).
		Cause(cause).
		Detail("expected %s, got %d", "0..2", 7).
		Build()

	if err.Phase != PhaseConfigure {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseConfigure)
	}
	if err.Kind != KindInvalidEnum {
		t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidEnum)
	}
	if len(err.Path) != 2 || err.Path[0] != "truncation" || err.Path[1] != "strategy" {
		t.Errorf("Path = %v, want [truncation strategy]", err.Path)
	}
	if err.Value != 7 {
		t.Errorf("Value = %v, want 7", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected 0..2, got 7" {
		t.Errorf("Detail = %v, want 'expected 0..2, got 7'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("InvalidUTF8", func(t *testing.T) {
		err := InvalidUTF8(PhaseEncode, []string{"text"}, []byte{0xff, 0xfe})
		if err.Kind != KindInvalidUTF8 {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidUTF8)
		}
		if !strings.Contains(err.Detail, "fffe") {
			t.Errorf("Detail = %v, should contain the offending bytes", err.Detail)
		}
	})

	t.Run("AllocationFailed", func(t *testing.T) {
		err := AllocationFailed(PhaseMarshal, 1024)
		if err.Kind != KindAllocation {
			t.Errorf("Kind = %v, want %v", err.Kind, KindAllocation)
		}
		if !strings.Contains(err.Detail, "1024") {
			t.Errorf("Detail = %v, should contain size", err.Detail)
		}
	})

	t.Run("InvalidEnum", func(t *testing.T) {
		err := InvalidEnum(PhaseConfigure, []string{"direction"}, uint8(99), "TruncationDirection")
		if err.Kind != KindInvalidEnum {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidEnum)
		}
		if !strings.Contains(err.Error(), "99") {
			t.Errorf("Error() = %v, should contain value", err.Error())
		}
	})

	t.Run("InvalidHandle", func(t *testing.T) {
		err := InvalidHandle(PhaseEncode, 0)
		if err.Kind != KindInvalidHandle {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidHandle)
		}
	})

	t.Run("Unrepresentable", func(t *testing.T) {
		err := Unrepresentable(PhaseMarshal, []string{"tokens", "3"}, "contains NUL")
		if err.Kind != KindUnrepresentable {
			t.Errorf("Kind = %v, want %v", err.Kind, KindUnrepresentable)
		}
		if !strings.Contains(err.Error(), "tokens.3") {
			t.Errorf("Error() = %v, should contain path", err.Error())
		}
	})

	t.Run("Overflow", func(t *testing.T) {
		err := Overflow(PhaseMarshal, []string{"offsets"}, uint64(1)<<33, "u32")
		if err.Kind != KindOverflow {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOverflow)
		}
	})

	t.Run("Engine", func(t *testing.T) {
		cause := errors.New("stride too large")
		err := Engine(PhaseConfigure, "set truncation", cause)
		if err.Kind != KindEngine {
			t.Errorf("Kind = %v, want %v", err.Kind, KindEngine)
		}
		if !errors.Is(err, cause) {
			t.Error("errors.Is should reach the engine cause")
		}
	})

	t.Run("Recovered", func(t *testing.T) {
		err := Recovered(PhaseEncode, "encode", "boom")
		if err.Kind != KindEngine {
			t.Errorf("Kind = %v, want %v", err.Kind, KindEngine)
		}
		if !strings.Contains(err.Error(), "boom") {
			t.Errorf("Error() = %v, should contain panic value", err.Error())
		}

		cause := errors.New("typed panic")
		err = Recovered(PhaseEncode, "encode", cause)
		if !errors.Is(err, cause) {
			t.Error("recovered error values should stay in the cause chain")
		}
	})

	t.Run("Load", func(t *testing.T) {
		err := ParseFailed("tokenizer.json", errors.New("unexpected EOF"))
		if err.Phase != PhaseLoad || err.Kind != KindInvalidData {
			t.Errorf("got [%v] %v, want [load] invalid_data", err.Phase, err.Kind)
		}
	})
}
