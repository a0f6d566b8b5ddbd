// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

func TestReport(t *testing.T) {
	partial := &ExitError{Code: 2, Err: errors.New("3 of 10 inputs failed")}
	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantOutput string
	}{
		{"nil", nil, 0, ""},
		{"plain", errors.New("boom"), 1, "error: boom\n"},
		{"exit error", partial, 2, "error: 3 of 10 inputs failed\n"},
		{"wrapped exit error", fmt.Errorf("create: %w", partial), 2, "error: create: 3 of 10 inputs failed\n"},
		{"zero code", &ExitError{Err: errors.New("odd")}, 1, "error: odd\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var output bytes.Buffer
			if code := report(&output, tt.err); code != tt.wantCode {
				t.Errorf("report() = %d, want %d", code, tt.wantCode)
			}
			if output.String() != tt.wantOutput {
				t.Errorf("output = %q, want %q", output.String(), tt.wantOutput)
			}
		})
	}
}
