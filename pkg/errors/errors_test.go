package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewOutOfRangeError(t *testing.T) {
	tests := []struct {
		name    string
		axis    int
		start   int
		count   int
		limit   int
		wantMsg string
	}{
		{
			name:    "rows past end",
			axis:    0,
			start:   3,
			count:   4,
			limit:   5,
			wantMsg: "numtable: AcquireRowBlock: rows [3, 7) out of range [0, 5)",
		},
		{
			name:    "column index",
			axis:    1,
			start:   9,
			count:   1,
			limit:   4,
			wantMsg: "numtable: AcquireRowBlock: columns [9, 10) out of range [0, 4)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewOutOfRangeError("AcquireRowBlock", tt.axis, tt.start, tt.count, tt.limit)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			formatted := fmt.Sprintf("%+v", err)
			if !strings.Contains(formatted, "errors_test.go") {
				t.Error("Expected stack trace to contain test file name")
			}

			var rangeErr *OutOfRangeError
			if !As(err, &rangeErr) {
				t.Fatal("Error should be castable to *OutOfRangeError")
			}
			if rangeErr.Limit != tt.limit {
				t.Errorf("Limit = %d, want %d", rangeErr.Limit, tt.limit)
			}
		})
	}
}

func TestNewDimensionMismatchError(t *testing.T) {
	err := NewDimensionMismatchError("MergedTable.AddTable", 0, 5, 6)

	want := "numtable: MergedTable.AddTable: dimension mismatch on axis 0 (rows). Expected 5, got 6"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var dimErr *DimensionMismatchError
	if !As(err, &dimErr) {
		t.Error("Error should be castable to *DimensionMismatchError")
	}
}

func TestLayoutAndAccessErrors(t *testing.T) {
	layoutErr := NewInvalidLayoutError("FromCSR", "rowOffsets has length %d, want %d", 4, 6)
	if got := layoutErr.Error(); got != "numtable: FromCSR: invalid layout: rowOffsets has length 4, want 6" {
		t.Errorf("unexpected message: %s", got)
	}

	concurrentErr := NewConcurrentAccessError("AcquireRowBlock")
	var ce *ConcurrentAccessError
	if !As(concurrentErr, &ce) {
		t.Error("Error should be castable to *ConcurrentAccessError")
	}
	if ce.Op != "AcquireRowBlock" {
		t.Errorf("Op = %q", ce.Op)
	}

	unsupported := NewUnsupportedAccessError("AcquireRowBlock", "csr", "read-write")
	if !strings.Contains(unsupported.Error(), "csr layout does not support read-write blocks") {
		t.Errorf("unexpected message: %s", unsupported.Error())
	}
}

func TestModelErrorUnwrap(t *testing.T) {
	err := NewModelError("StandardScaler.Fit", "empty data", ErrEmptyData)

	if err.Error() != "numtable: StandardScaler.Fit: empty data: empty data" {
		t.Errorf("Error() = %v", err.Error())
	}
	if !Is(err, ErrEmptyData) {
		t.Error("ModelError should unwrap to ErrEmptyData")
	}
}

func TestMarshalZerologObject(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	rangeErr := &OutOfRangeError{Op: "AcquireColumnBlock", Axis: 0, Start: 2, Count: 3, Limit: 4}
	logger.Error().EmbedObject(rangeErr).Msg("block request failed")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log line: %v", err)
	}
	if entry["type"] != "OutOfRangeError" {
		t.Errorf("type = %v", entry["type"])
	}
	if entry["axis_name"] != "rows" {
		t.Errorf("axis_name = %v", entry["axis_name"])
	}
	if entry["limit"] != 4.0 {
		t.Errorf("limit = %v", entry["limit"])
	}
}

func TestWarnRouting(t *testing.T) {
	var got []error
	SetWarningHandler(func(w error) { got = append(got, w) })
	defer SetWarningHandler(nil)

	var zerologCalls int
	SetZerologWarnFunc(func(error) { zerologCalls++ })
	Warn(NewDataConversionWarning("string", "float64", "empty field"))
	if zerologCalls != 1 || len(got) != 0 {
		t.Fatalf("zerolog sink should take precedence: zerolog=%d handler=%d", zerologCalls, len(got))
	}

	SetZerologWarnFunc(nil)
	Warn(NewDataConversionWarning("string", "float64", "empty field"))
	if len(got) != 1 {
		t.Fatalf("expected fallback handler to receive warning, got %d", len(got))
	}
}

func TestSafeExecute(t *testing.T) {
	err := SafeExecute("reflect access", func() error {
		var s []int
		_ = s[3]
		return nil
	})
	if err == nil {
		t.Fatal("expected panic to be converted into an error")
	}
	var panicErr *PanicError
	if !As(err, &panicErr) {
		t.Fatalf("expected *PanicError, got %T", err)
	}
	if panicErr.Operation != "reflect access" {
		t.Errorf("Operation = %q", panicErr.Operation)
	}
	if !strings.Contains(panicErr.String(), "Stack trace") {
		t.Error("String() should include stack trace")
	}

	if err := SafeExecute("no panic", func() error { return nil }); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRecoverKeepsExistingError(t *testing.T) {
	original := New("write-back failed")
	fn := func() (err error) {
		defer Recover(&err, "release")
		err = original
		panic("boom")
	}
	err := fn()
	if !Is(err, original) {
		t.Errorf("expected original error to be preserved, got %v", err)
	}
}

func TestWithStackAndValueError(t *testing.T) {
	if WithStack(nil) != nil {
		t.Error("WithStack(nil) should be nil")
	}
	err := WithStack(fmt.Errorf("plain"))
	if err.Error() != "plain" {
		t.Errorf("Error() = %v", err.Error())
	}
	if Stacktrace(err) == "" {
		t.Error("expected a stack trace")
	}

	err = NewValueError("StandardScaler.Fit", "column 0 contains infinity")
	var valueErr *ValueError
	if !As(err, &valueErr) {
		t.Fatalf("expected *ValueError, got %T", err)
	}
	if err.Error() != "numtable: StandardScaler.Fit: column 0 contains infinity" {
		t.Errorf("Error() = %v", err.Error())
	}
}
