package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/dmitrijs2005/learnassist/internal/client/models"
	"github.com/dmitrijs2005/learnassist/internal/client/state"
	"github.com/dmitrijs2005/learnassist/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmit_EmptySelectionUsesGenericRoute(t *testing.T) {
	var got models.ChatRequest
	fc := &fakeClient{ChatFn: func(ctx context.Context, req models.ChatRequest) (string, error) {
		got = req
		return "你好", nil
	}}
	st := seededStore(t)
	svc := NewChatService(fc, st, nil, nil)

	reply, err := svc.Submit(context.Background(), "  hi  ")
	require.NoError(t, err)
	assert.Equal(t, "你好", reply)
	assert.Equal(t, models.RouteGeneric, got.Route)
	assert.Equal(t, "hi", got.Message)
	assert.Empty(t, got.FileIDs)

	msgs := st.Snapshot().Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleUser, msgs[0].Role)
	assert.Equal(t, "你好", msgs[1].Content)
	assert.False(t, msgs[1].Loading)
}

func TestSubmit_SelectionUsesFileScopedRoute(t *testing.T) {
	var got models.ChatRequest
	var placeholder string
	st := seededStore(t)
	fc := &fakeClient{ChatFn: func(ctx context.Context, req models.ChatRequest) (string, error) {
		got = req
		placeholder = lastMessage(t, st).Content
		return "answer", nil
	}}
	_, err := st.Dispatch(state.SelectFiles{FileIDs: []string{"f2", "f1"}})
	require.NoError(t, err)

	_, err = NewChatService(fc, st, nil, nil).Submit(context.Background(), "explain")
	require.NoError(t, err)
	assert.Equal(t, models.RouteFileScoped, got.Route)
	assert.Equal(t, "c1", got.CollectionID)
	assert.Equal(t, []string{"f2", "f1"}, got.FileIDs)
	assert.Equal(t, common.MsgThinkingWithFiles, placeholder)
	assert.Equal(t, []string{"f2", "f1"}, st.Snapshot().Messages[0].Attachments)
}

func TestSubmit_GenericHistoryExcludesPlaceholders(t *testing.T) {
	st := seededStore(t)
	_, err := st.Dispatch(state.AppendMessage{Message: models.NewMessage(models.RoleUser, "earlier")})
	require.NoError(t, err)
	_, err = st.Dispatch(state.AppendMessage{Message: models.NewPlaceholder(common.MsgThinking)})
	require.NoError(t, err)

	var history []models.Message
	fc := &fakeClient{ChatFn: func(ctx context.Context, req models.ChatRequest) (string, error) {
		history = req.History
		return "ok", nil
	}}
	_, err = NewChatService(fc, st, nil, nil).Submit(context.Background(), "now")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "earlier", history[0].Content)
}

func TestSubmit_FailureAndEmptyReply(t *testing.T) {
	st := seededStore(t)
	fc := &fakeClient{ChatFn: func(ctx context.Context, req models.ChatRequest) (string, error) {
		if req.Message == "fail" {
			return "", errBoom
		}
		return "   ", nil
	}}
	svc := NewChatService(fc, st, nil, nil)

	_, err := svc.Submit(context.Background(), "fail")
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, common.MsgChatFailed, lastMessage(t, st).Content)

	reply, err := svc.Submit(context.Background(), "blank")
	require.NoError(t, err)
	assert.Equal(t, common.MsgChatEmptyReply, reply)

	for _, m := range st.Snapshot().Messages {
		assert.False(t, m.Loading)
	}
	assert.Len(t, st.Snapshot().Messages, 4)
}

func TestSubmit_EmptyInput(t *testing.T) {
	_, err := NewChatService(&fakeClient{}, state.NewStore(), nil, nil).Submit(context.Background(), " ")
	assert.ErrorIs(t, err, common.ErrEmptyInput)
}

func TestSubmit_DuplicateWhilePending(t *testing.T) {
	st := seededStore(t)
	release := make(chan struct{})
	started := make(chan struct{})
	fc := &fakeClient{ChatFn: func(ctx context.Context, req models.ChatRequest) (string, error) {
		close(started)
		<-release
		return "done", nil
	}}
	svc := NewChatService(fc, st, nil, nil)

	errc := make(chan error, 1)
	go func() {
		_, err := svc.Submit(context.Background(), "same")
		errc <- err
	}()
	<-started

	_, err := svc.Submit(context.Background(), "same")
	assert.ErrorIs(t, err, common.ErrDuplicateSubmission)

	close(release)
	require.NoError(t, <-errc)
	assert.Len(t, st.Snapshot().Messages, 2)
}

func TestSubmit_ConcurrentPlaceholdersResolveIndependently(t *testing.T) {
	st := seededStore(t)
	var ready sync.WaitGroup
	ready.Add(10)
	gate := make(chan struct{})
	fc := &fakeClient{ChatFn: func(ctx context.Context, req models.ChatRequest) (string, error) {
		ready.Done()
		<-gate
		return "re: " + req.Message, nil
	}}
	svc := NewChatService(fc, st, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Submit(context.Background(), fmt.Sprintf("q%d", i))
			assert.NoError(t, err)
		}()
	}
	ready.Wait()

	loading := 0
	for _, m := range st.Snapshot().Messages {
		if m.Loading {
			loading++
		}
	}
	assert.Equal(t, 10, loading)

	close(gate)
	wg.Wait()

	msgs := st.Snapshot().Messages
	assert.Len(t, msgs, 20)
	replies := map[string]bool{}
	for _, m := range msgs {
		assert.False(t, m.Loading)
		if m.Role == models.RoleAssistant {
			replies[m.Content] = true
		}
	}
	assert.Len(t, replies, 10)
}
