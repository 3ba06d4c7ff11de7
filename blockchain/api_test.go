package blockchain

import (
	"strings"
	"testing"
)

func TestParseEligibility(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		canClaim bool
		reason   string
		wantErr  bool
	}{
		{
			name:     "plain json",
			body:     `{"canClaim":true,"accountAddress":"0xabc"}`,
			canClaim: true,
		},
		{
			name: "component stream",
			body: "0:[\"$\",\"stream-header\"]\n" +
				`1:{"canClaim":false,"reason":"nothing to claim"}` + "\n" +
				"2:trailer\n",
			canClaim: false,
			reason:   "nothing to claim",
		},
		{
			name:     "prefixed and suffixed noise on the line",
			body:     `data: {"canClaim":true,"accountAddress":"0xdef"} ;tail`,
			canClaim: true,
		},
		{
			name:    "no eligibility data",
			body:    "0:header\n1:something else entirely\n",
			wantErr: true,
		},
		{
			name:    "mangled json",
			body:    `1:{"canClaim":tru`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp, err := parseEligibility(tt.body)
			if tt.wantErr {
				if err == nil {
					t.Error("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseEligibility() = %v", err)
			}
			if resp.CanClaim != tt.canClaim {
				t.Errorf("CanClaim = %v, want %v", resp.CanClaim, tt.canClaim)
			}
			if resp.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", resp.Reason, tt.reason)
			}
		})
	}
}

func TestParseEligibilityTruncatesErrorBody(t *testing.T) {
	t.Parallel()

	_, err := parseEligibility(strings.Repeat("x", 10000))
	if err == nil {
		t.Fatal("expected an error")
	}
	if len(err.Error()) > 300 {
		t.Errorf("error message should not carry the whole body, got %d bytes", len(err.Error()))
	}
}
