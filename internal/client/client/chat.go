package client

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/learnassist/internal/client/models"
	"github.com/dmitrijs2005/learnassist/internal/common"
)

type fileScopedChatRequest struct {
	Message       string   `json:"message"`
	CourseID      string   `json:"courseId"`
	IsNewChat     bool     `json:"isNewChat"`
	SelectedFiles []string `json:"selectedFiles"`
}

type chatMessage struct {
	Role    models.Role `json:"role"`
	Content string      `json:"content"`
}

type genericChatRequest struct {
	Messages []chatMessage `json:"messages"`
}

// Chat sends a file-scoped request to the backend or a generic one to the
// assistant proxy, depending on req.Route.
func (c *HTTPClient) Chat(ctx context.Context, req models.ChatRequest) (string, error) {
	if req.Route == models.RouteFileScoped {
		var resp struct {
			Response string `json:"response"`
		}
		body := fileScopedChatRequest{
			Message:       req.Message,
			CourseID:      req.CollectionID,
			SelectedFiles: req.FileIDs,
		}
		if err := c.doJSON(ctx, backend, http.MethodPost, "/api/chat", body, &resp); err != nil {
			return "", err
		}
		return resp.Response, nil
	}

	msgs := make([]chatMessage, 0, len(req.History)+2)
	msgs = append(msgs, chatMessage{Role: models.RoleSystem, Content: common.MsgSystemPrompt})
	for _, m := range req.History {
		if m.Loading || m.Content == "" {
			continue
		}
		msgs = append(msgs, chatMessage{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, chatMessage{Role: models.RoleUser, Content: req.Message})

	var resp struct {
		Text string `json:"text"`
	}
	if err := c.doJSON(ctx, assistant, http.MethodPost, "/api/chat", genericChatRequest{Messages: msgs}, &resp); err != nil {
		return "", err
	}
	return resp.Text, nil
}
