package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/gamedepot-backend/pkg/auth/authtest"
	"github.com/angelmondragon/gamedepot-backend/pkg/enums"
	"github.com/angelmondragon/gamedepot-backend/pkg/logger"
)

func panicChain(logg *logger.Logger) http.Handler {
	cfg := authtest.Config()
	panics := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("ledger row missing")
	})
	return RequestID(logg)(Recoverer(logg)(Auth(cfg, logg)(panics)))
}

func TestRecovererLogsOperatorAndIdempotencyKey(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})

	req := httptest.NewRequest(http.MethodPost, "/gestion/bilan/7/payer", nil)
	req.Header.Set("Authorization", "Bearer "+authtest.MintToken(t, authtest.Config(), "op-9", enums.OperatorRoleManager))
	req.Header.Set(requestIDHeader, "req-42")
	req.Header.Set(idempotencyKeyHeader, "payout-7-2026")
	resp := httptest.NewRecorder()
	panicChain(logg).ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"INTERNAL_ERROR"`) {
		t.Fatalf("expected internal error envelope, got %s", resp.Body.String())
	}
	if got := resp.Header().Get(requestIDHeader); got != "req-42" {
		t.Fatalf("expected request id header req-42, got %q", got)
	}

	entry := buf.String()
	for _, want := range []string{
		`"message":"settlement handler panicked"`,
		`"request_id":"req-42"`,
		`"idempotency_key":"payout-7-2026"`,
		`"user_id":"op-9"`,
		`"actor_role":"manager"`,
		`"method":"POST"`,
		`"path":"/gestion/bilan/7/payer"`,
		`"panic":"ledger row missing"`,
	} {
		if !strings.Contains(entry, want) {
			t.Fatalf("expected %s in log; entry=%s", want, entry)
		}
	}
}

func TestRequestIDReplacesMalformedInboundID(t *testing.T) {
	tests := []struct {
		name    string
		inbound string
		keep    bool
	}{
		{"missing", "", false},
		{"plain", "req-42", true},
		{"trace style", "a1b2.c3:d4_e5", true},
		{"newline", "req\nforged", false},
		{"spaces", "req 42", false},
		{"too long", strings.Repeat("x", 65), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.inbound != "" {
				req.Header[requestIDHeader] = []string{tt.inbound}
			}
			resp := httptest.NewRecorder()
			RequestID(nil)(okHandler()).ServeHTTP(resp, req)

			got := resp.Header().Get(requestIDHeader)
			if tt.keep && got != tt.inbound {
				t.Fatalf("expected inbound id kept, got %q", got)
			}
			if !tt.keep && (got == tt.inbound || !requestIDRe.MatchString(got)) {
				t.Fatalf("expected generated id, got %q", got)
			}
		})
	}
}
