package conversation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScrubPII(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "mobile", in: "연락처는 010-1234-5678 입니다", want: "연락처는 [PHONE] 입니다"},
		{name: "mobile without dashes", in: "01012345678로 주세요", want: "[PHONE]로 주세요"},
		{name: "international", in: "+82 10 1234 5678", want: "[PHONE]"},
		{name: "email", in: "kim@example.com 으로 보내주세요", want: "[EMAIL] 으로 보내주세요"},
		{name: "clinic number kept", in: "대표번호 1577-3330", want: "대표번호 1577-3330"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScrubPII(tt.in))
		})
	}
}

func serveTranscript(h *TranscriptHandler, target string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.Routes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func TestTranscriptHandler_GetTranscript(t *testing.T) {
	history := newMemoryHistory()
	ctx := context.Background()
	first := time.Date(2026, 10, 19, 1, 0, 0, 0, time.UTC)
	require.NoError(t, history.Append(ctx, Turn{SessionID: "s-1", RequestID: "r-1", UserText: "내과 예약", BotText: "원하시는 날짜를 알려주세요.", CreatedAt: first}))
	require.NoError(t, history.Append(ctx, Turn{SessionID: "s-1", RequestID: "r-2", UserText: "제 번호는 010-9876-5432", BotText: "확인했습니다.", CreatedAt: first.Add(time.Minute)}))

	rr := serveTranscript(NewTranscriptHandler(history, nil), "/s-1/turns")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp TranscriptResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "s-1", resp.SessionID)
	assert.Equal(t, 2, resp.Turns)
	require.Len(t, resp.Messages, 4)
	assert.Equal(t, "user", resp.Messages[0].Role)
	assert.Equal(t, "내과 예약", resp.Messages[0].Content)
	assert.Equal(t, "assistant", resp.Messages[1].Role)
	assert.Equal(t, "제 번호는 [PHONE]", resp.Messages[2].Content)
	assert.Equal(t, "r-2", resp.Messages[3].RequestID)
}

func TestTranscriptHandler_Limit(t *testing.T) {
	history := newMemoryHistory()
	for _, text := range []string{"a", "b", "c"} {
		require.NoError(t, history.Append(context.Background(), Turn{SessionID: "s-1", UserText: text, BotText: "ok"}))
	}
	h := NewTranscriptHandler(history, nil)

	rr := serveTranscript(h, "/s-1/turns?limit=1")
	require.Equal(t, http.StatusOK, rr.Code)
	var resp TranscriptResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, "c", resp.Messages[0].Content)

	rr = serveTranscript(h, "/s-1/turns?limit=zero")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestTranscriptHandler_Errors(t *testing.T) {
	history := newMemoryHistory()
	history.readErr = errStoreDown

	rr := serveTranscript(NewTranscriptHandler(history, nil), "/s-1/turns")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "store down")

	rr = serveTranscript(NewTranscriptHandler(nil, nil), "/s-1/turns")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
