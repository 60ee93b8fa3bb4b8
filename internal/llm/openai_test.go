package llm_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textloop/textloop-backend/internal/config"
	"github.com/textloop/textloop-backend/internal/llm"
	"github.com/textloop/textloop-backend/internal/model"
)

func clientFor(t *testing.T, baseURL string) *llm.Client {
	t.Helper()
	c, err := llm.NewClient(&config.Config{
		OpenAIToken:   "sk-test",
		OpenAIModel:   "gpt-4o-mini",
		OpenAIBaseURL: baseURL,
		OpenAITimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	return c
}

func completionWith(content string) string {
	payload := map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	}
	b, _ := json.Marshal(payload)
	return string(b)
}

func TestGenerateRoadmapParsesDrafts(t *testing.T) {
	roadmap := `{"messages": [
		{"sms_content": "Welcome!", "sms_timing": "Immediate (Welcome)", "day_offset": 0},
		{"sms_content": "How is it going?", "sms_timing": "Day 3, 10:00 AM", "day_offset": 3,
		 "relevance": "check-in", "success_indicator": "reply", "no_response_plan": "follow up day 5"}
	]}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req struct {
			ResponseFormat *struct {
				Type string `json:"type"`
			} `json:"response_format"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.ResponseFormat)
		assert.Equal(t, "json_object", req.ResponseFormat.Type)

		fmt.Fprint(w, completionWith(roadmap))
	}))
	defer srv.Close()

	c := clientFor(t, srv.URL)
	drafts, err := c.GenerateRoadmap(context.Background(),
		&model.Business{Name: "Blue Door Yoga", Timezone: "America/Denver"},
		&model.Customer{FirstName: "Alice"})
	require.NoError(t, err)

	require.Len(t, drafts, 2)
	assert.Equal(t, "Immediate (Welcome)", drafts[0].SMSTiming)
	assert.Equal(t, 3, drafts[1].DayOffset)
	assert.Equal(t, "check-in", drafts[1].Relevance)
}

func TestGenerateRoadmapRejectsMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, completionWith(`{"messages": "not a list"}`))
	}))
	defer srv.Close()

	c := clientFor(t, srv.URL)
	_, err := c.GenerateRoadmap(context.Background(), &model.Business{}, &model.Customer{})
	assert.Error(t, err)
}

func TestGenerateRoadmapRejectsEmptyBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, completionWith(`{"messages": []}`))
	}))
	defer srv.Close()

	c := clientFor(t, srv.URL)
	_, err := c.GenerateRoadmap(context.Background(), &model.Business{}, &model.Customer{})
	assert.Error(t, err)
}

func TestGenerateRoadmapSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error": {"message": "invalid api key", "type": "invalid_request_error"}}`)
	}))
	defer srv.Close()

	c := clientFor(t, srv.URL)
	_, err := c.GenerateRoadmap(context.Background(), &model.Business{}, &model.Customer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestDraftReplyReturnsContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		// system prompt, one history turn, the inbound message.
		require.Len(t, req.Messages, 3)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "do you have mats?", req.Messages[2].Content)

		fmt.Fprint(w, completionWith("Yes, we lend mats at the front desk."))
	}))
	defer srv.Close()

	c := clientFor(t, srv.URL)
	reply, err := c.DraftReply(context.Background(),
		&model.Business{VoiceProfile: "warm"},
		[]model.Message{{Body: "Welcome to the studio!", Type: model.MessageTypeScheduled}},
		"do you have mats?")
	require.NoError(t, err)
	assert.Equal(t, "Yes, we lend mats at the front desk.", reply)
}

func TestNewClientRequiresToken(t *testing.T) {
	_, err := llm.NewClient(&config.Config{})
	assert.Error(t, err)
}
