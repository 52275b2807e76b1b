package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/learnassist/internal/client/models"
	"github.com/dmitrijs2005/learnassist/internal/common"
)

func coursePath(id string, suffix string) string {
	return "/api/courses/" + url.PathEscape(id) + suffix
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.doJSON(ctx, backend, http.MethodGet, "/health", nil, nil)
}

func (c *HTTPClient) ListCollections(ctx context.Context) ([]models.Collection, error) {
	var resp struct {
		Courses []models.Collection `json:"courses"`
	}
	if err := c.doJSON(ctx, backend, http.MethodGet, "/api/courses", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Courses, nil
}

type nameRequest struct {
	Name string `json:"name"`
}

type courseResponse struct {
	Course models.Collection `json:"course"`
}

func (c *HTTPClient) CreateCollection(ctx context.Context, name string) (models.Collection, error) {
	var resp courseResponse
	if err := c.doJSON(ctx, backend, http.MethodPost, "/api/courses", nameRequest{Name: name}, &resp); err != nil {
		return models.Collection{}, err
	}
	return resp.Course, nil
}

func (c *HTTPClient) RenameCollection(ctx context.Context, id, name string) (models.Collection, error) {
	var resp courseResponse
	if err := c.doJSON(ctx, backend, http.MethodPost, coursePath(id, "/update"), nameRequest{Name: name}, &resp); err != nil {
		return models.Collection{}, err
	}
	if resp.Course.ID == "" {
		resp.Course = models.Collection{ID: id, Name: name}
	}
	return resp.Course, nil
}

func (c *HTTPClient) DeleteCollection(ctx context.Context, id string) error {
	return c.doJSON(ctx, backend, http.MethodDelete, coursePath(id, ""), nil, nil)
}

func (c *HTTPClient) ListFiles(ctx context.Context, collectionID string) ([]models.FileRecord, error) {
	var resp struct {
		Files []models.FileRecord `json:"files"`
	}
	if err := c.doJSON(ctx, backend, http.MethodGet, coursePath(collectionID, "/files"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Files, nil
}

func (c *HTTPClient) DeleteFile(ctx context.Context, collectionID, fileID string) error {
	return c.doJSON(ctx, backend, http.MethodDelete, coursePath(collectionID, "/files/"+url.PathEscape(fileID)), nil, nil)
}

func (c *HTTPClient) UploadByURL(ctx context.Context, collectionID, link string) (string, error) {
	req := struct {
		URL      string `json:"url"`
		CourseID string `json:"courseId"`
	}{URL: link, CourseID: collectionID}

	var resp struct {
		Success *bool  `json:"success"`
		Message string `json:"message"`
	}
	if err := c.doJSON(ctx, backend, http.MethodPost, "/api/upload-by-url", req, &resp); err != nil {
		return "", err
	}
	if resp.Success == nil || !*resp.Success {
		return "", &RemoteError{Message: common.MsgImportFailed}
	}
	return resp.Message, nil
}

func (c *HTTPClient) GenerateNoteCard(ctx context.Context, collectionID string, fileIDs []string, variant int) (models.Artifact, error) {
	req := struct {
		FileIDs   []string `json:"fileIds"`
		CardIndex int      `json:"cardIndex"`
	}{FileIDs: fileIDs, CardIndex: variant}

	var resp struct {
		Success *bool  `json:"success"`
		Message string `json:"message"`
	}
	if err := c.doJSON(ctx, backend, http.MethodPost, coursePath(collectionID, "/generate-single-card"), req, &resp); err != nil {
		return models.Artifact{}, err
	}
	if resp.Success == nil || !*resp.Success {
		return models.Artifact{}, &RemoteError{Message: common.MsgCardFailed}
	}
	return models.Artifact{Success: true, Message: resp.Message}, nil
}

func (c *HTTPClient) GenerateHandwrittenNote(ctx context.Context, collectionID, content string) (models.Artifact, error) {
	req := struct {
		Content  string `json:"content"`
		CourseID string `json:"courseId"`
	}{Content: content, CourseID: collectionID}

	var resp models.Artifact
	if err := c.doJSON(ctx, backend, http.MethodPost, "/api/generate-handwritten-note", req, &resp); err != nil {
		return models.Artifact{}, err
	}
	resp.Success = true
	resp.ImageURL = c.ResolveURL(resp.ImageURL)
	return resp, nil
}

func (c *HTTPClient) ListCards(ctx context.Context, collectionID string) ([]models.Card, error) {
	var resp struct {
		Cards []models.Card `json:"cards"`
	}
	if err := c.doJSON(ctx, backend, http.MethodGet, coursePath(collectionID, "/cards"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Cards, nil
}

func (c *HTTPClient) EditCard(ctx context.Context, cardID, title, content string) error {
	req := struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}{Title: strings.TrimSpace(title), Content: strings.TrimSpace(content)}
	return c.doJSON(ctx, backend, http.MethodPost, "/api/cards/"+url.PathEscape(cardID)+"/edit", req, nil)
}

func (c *HTTPClient) DeleteCard(ctx context.Context, cardID string) error {
	return c.doJSON(ctx, backend, http.MethodDelete, "/api/cards/"+url.PathEscape(cardID), nil, nil)
}
