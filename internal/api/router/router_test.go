package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/reservation-dialogue/internal/clinic"
	"github.com/wolfman30/reservation-dialogue/internal/conversation"
	httpmiddleware "github.com/wolfman30/reservation-dialogue/internal/http/middleware"
	"github.com/wolfman30/reservation-dialogue/internal/observability/metrics"
	"github.com/wolfman30/reservation-dialogue/internal/reservations"
	"github.com/wolfman30/reservation-dialogue/internal/tools"
	"github.com/wolfman30/reservation-dialogue/pkg/logging"
)

const (
	adminSecret   = "admin-secret"
	patientSecret = "patient-secret"
)

func newTestRouter(t *testing.T, checks map[string]HealthCheck) http.Handler {
	t.Helper()

	logger := logging.Default()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	reg := prometheus.NewRegistry()
	dm := metrics.NewDialogueMetrics(reg)

	store := reservations.NewMemoryStore(reservations.SeedDoctors())
	registry := tools.NewRegistry(logger, dm)
	tools.NewReservationTools(store, store).Register(registry)

	history := conversation.NewRedisTurnStore(client, 0, 0)
	svc := conversation.NewChatService(conversation.ChatServiceConfig{
		Loader:   conversation.NewContextLoader(history, 0, logger),
		Turns:    history,
		Resolver: conversation.NewResolver(registry, conversation.WithResolverMetrics(dm)),
		Answerer: conversation.NewFAQAnswerer(nil, ""),
		Logger:   logger,
		Metrics:  dm,
	})

	cfg := &Config{
		Logger:            logger,
		ChatHandler:       conversation.NewHandler(svc, logger),
		OptionsHandler:    reservations.NewOptionsHandler(store, logger),
		ClinicHandler:     clinic.NewHandler(clinic.NewStore(client), logger),
		TranscriptHandler: conversation.NewTranscriptHandler(history, logger),
		MetricsHandler:    promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		RateLimiter:       httpmiddleware.NewRateLimiter(100, 100),
		AdminAuthSecret:   adminSecret,
		PatientAuthSecret: patientSecret,
		HealthChecks:      checks,
	}
	return New(cfg)
}

func bearer(t *testing.T, secret string, claims jwt.Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + signed
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, map[string]HealthCheck{
		"redis": func(ctx context.Context) error { return nil },
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if resp["status"] != "ok" || resp["redis"] != "ok" {
		t.Errorf("unexpected health response %#v", resp)
	}
}

func TestRouterHealthEndpointDegraded(t *testing.T) {
	router := newTestRouter(t, map[string]HealthCheck{
		"postgres": func(ctx context.Context) error { return errors.New("down") },
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, rr.Code)
	}
}

func TestRouterReservationOptions(t *testing.T) {
	router := newTestRouter(t, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/reservation/options/", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var resp reservations.OptionsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Source != "directory" || len(resp.Doctors) == 0 {
		t.Fatalf("unexpected options %#v", resp)
	}
}

func TestRouterChatRequiresLoginForReservations(t *testing.T) {
	router := newTestRouter(t, nil)

	body := `{"message":"예약 취소해줘","session_id":"s-1","metadata":{"patient_id":"spoofed"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var resp map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["reply"] != conversation.LoginReply("") {
		t.Fatalf("expected login reply, got %#v", resp["reply"])
	}
	id, _ := resp["request_id"].(string)
	if id == "" || id != rr.Header().Get("X-Request-ID") {
		t.Fatalf("expected the logged request id %q in %#v", rr.Header().Get("X-Request-ID"), resp)
	}
}

func TestRouterChatWithPatientToken(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/chat/", strings.NewReader(`{"message":"내 예약 내역 보여줘","session_id":"s-1"}`))
	req.Header.Set("Authorization", bearer(t, patientSecret, httpmiddleware.PatientClaims{
		PatientID: "P-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if strings.Contains(rr.Body.String(), "로그인 후 이용해 주세요") {
		t.Fatalf("authenticated patient got the login reply: %s", rr.Body.String())
	}
}

func TestRouterChatRejectsForgedToken(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/chat/", strings.NewReader(`{"message":"내 예약 내역 보여줘"}`))
	req.Header.Set("Authorization", bearer(t, "wrong-secret", httpmiddleware.PatientClaims{PatientID: "P-1"}))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
}

func TestRouterAdminCalendarRequiresToken(t *testing.T) {
	router := newTestRouter(t, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/clinics/c1/calendar", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/clinics/c1/calendar", nil)
	req.Header.Set("Authorization", bearer(t, adminSecret, jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
}

func TestRouterMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/chat/", strings.NewReader(`{"message":"주차 되나요?","session_id":"s-1"}`))
	router.ServeHTTP(httptest.NewRecorder(), req)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "reservation_dialogue_turns_total") {
		t.Fatalf("expected dialogue metrics in output")
	}
}

func TestRouterAdminTranscript(t *testing.T) {
	router := newTestRouter(t, nil)

	chat := httptest.NewRequest(http.MethodPost, "/api/chat/", strings.NewReader(`{"message":"주차 되나요?","session_id":"s-9"}`))
	router.ServeHTTP(httptest.NewRecorder(), chat)

	req := httptest.NewRequest(http.MethodGet, "/admin/sessions/s-9/turns", nil)
	req.Header.Set("Authorization", bearer(t, adminSecret, jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var resp conversation.TranscriptResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Turns != 1 || len(resp.Messages) != 2 || resp.Messages[0].Content != "주차 되나요?" {
		t.Fatalf("unexpected transcript %#v", resp)
	}
}
