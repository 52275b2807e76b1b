package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type vendorStub struct {
	mu     sync.Mutex
	bodies []map[string]any
	paths  []string
	status int
	reply  string
}

func (v *vendorStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(raw, &body)

	v.mu.Lock()
	v.bodies = append(v.bodies, body)
	v.paths = append(v.paths, r.URL.Path)
	status, reply := v.status, v.reply
	v.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != 0 && status != http.StatusOK {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, `{"error":{"code":400,"message":"file too big","status":"INVALID_ARGUMENT"}}`)
		return
	}
	if reply == "" {
		_, _ = io.WriteString(w, `{"candidates":[]}`)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"candidates": []any{map[string]any{
			"content": map[string]any{"role": "model", "parts": []any{map[string]any{"text": reply}}},
		}},
	})
}

func newTestGemini(t *testing.T, stub *vendorStub) *Gemini {
	t.Helper()
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)
	g, err := NewGemini(context.Background(), GeminiConfig{APIKey: "test-key", Endpoint: srv.URL + "/", Model: "gemini-2.0-flash"})
	require.NoError(t, err)
	return g
}

func TestGemini_DescribeSendsInlineMedia(t *testing.T) {
	stub := &vendorStub{reply: " summary "}
	g := newTestGemini(t, stub)

	got, err := g.Describe(context.Background(), "describe it", Attachment{MIMEType: "audio/mpeg", Data: []byte("ID3")})
	require.NoError(t, err)
	assert.Equal(t, "summary", got)

	require.Len(t, stub.bodies, 1)
	assert.True(t, strings.HasSuffix(stub.paths[0], "/models/gemini-2.0-flash:generateContent"), stub.paths[0])

	body := stub.bodies[0]
	gen := body["generationConfig"].(map[string]any)
	assert.InDelta(t, 0.4, gen["temperature"], 1e-9)
	assert.EqualValues(t, 32, gen["topK"])
	assert.EqualValues(t, 1, gen["topP"])
	assert.EqualValues(t, 2048, gen["maxOutputTokens"])

	contents := body["contents"].([]any)
	require.Len(t, contents, 1)
	parts := contents[0].(map[string]any)["parts"].([]any)
	require.Len(t, parts, 2)
	assert.Equal(t, "describe it", parts[0].(map[string]any)["text"])
	inline := parts[1].(map[string]any)["inlineData"].(map[string]any)
	assert.Equal(t, "audio/mpeg", inline["mimeType"])
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("ID3")), inline["data"])
}

func TestGemini_ChatMapsRoles(t *testing.T) {
	stub := &vendorStub{reply: "hi there"}
	g := newTestGemini(t, stub)

	got, err := g.Chat(context.Background(), []Message{
		{Role: RoleSystem, Text: "be brief"},
		{Role: RoleUser, Text: "hello"},
		{Role: RoleModel, Text: "hi"},
		{Role: RoleUser, Text: "  "},
		{Role: RoleUser, Text: "again"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hi there", got)

	body := stub.bodies[0]
	contents := body["contents"].([]any)
	require.Len(t, contents, 3)
	var roles []string
	for _, c := range contents {
		roles = append(roles, c.(map[string]any)["role"].(string))
	}
	assert.Equal(t, []string{"user", "model", "user"}, roles)
	sys := body["systemInstruction"].(map[string]any)["parts"].([]any)
	assert.Equal(t, "be brief", sys[0].(map[string]any)["text"])

	_, err = g.Chat(context.Background(), []Message{{Role: RoleSystem, Text: "only system"}})
	require.Error(t, err)
}

func TestGemini_Errors(t *testing.T) {
	stub := &vendorStub{status: http.StatusBadRequest}
	g := newTestGemini(t, stub)

	_, err := g.Describe(context.Background(), "p", Attachment{MIMEType: "application/pdf", Data: []byte("%PDF")})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "file too big")

	stub.mu.Lock()
	stub.status = http.StatusOK
	stub.mu.Unlock()
	_, err = g.Describe(context.Background(), "p", Attachment{MIMEType: "application/pdf", Data: []byte("%PDF")})
	require.ErrorIs(t, err, ErrEmptyReply)
}

func TestNewGemini_RequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), GeminiConfig{Model: "m"})
	require.Error(t, err)
}
