package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	generativelanguage "google.golang.org/api/generativelanguage/v1beta"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Generation settings every request uses.
const (
	temperature     = 0.4
	topK            = 32
	topP            = 1
	maxOutputTokens = 2048
)

type GeminiConfig struct {
	APIKey string
	// Endpoint overrides the vendor base URL; it must end with "/".
	Endpoint string
	Model    string
	Timeout  time.Duration
}

// Gemini implements Model on the Generative Language REST API.
type Gemini struct {
	models  *generativelanguage.ModelsService
	model   string
	timeout time.Duration
}

var _ Model = (*Gemini)(nil)

func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key required")
	}
	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	svc, err := generativelanguage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}

	model := cfg.Model
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}
	return &Gemini{models: svc.Models, model: model, timeout: cfg.Timeout}, nil
}

func (g *Gemini) Describe(ctx context.Context, prompt string, media Attachment) (string, error) {
	req := &generativelanguage.GenerateContentRequest{
		Contents: []*generativelanguage.Content{{
			Role: string(RoleUser),
			Parts: []*generativelanguage.Part{
				{Text: prompt},
				{InlineData: &generativelanguage.Blob{
					MimeType: media.MIMEType,
					Data:     base64.StdEncoding.EncodeToString(media.Data),
				}},
			},
		}},
		GenerationConfig: generationConfig(),
	}
	return g.generate(ctx, req)
}

// Chat sends the turns in order. System turns become the system instruction;
// assistant turns are sent with the vendor's "model" role.
func (g *Gemini) Chat(ctx context.Context, history []Message) (string, error) {
	req := &generativelanguage.GenerateContentRequest{GenerationConfig: generationConfig()}

	var system []string
	for _, m := range history {
		text := strings.TrimSpace(m.Text)
		if text == "" {
			continue
		}
		if m.Role == RoleSystem {
			system = append(system, text)
			continue
		}
		role := RoleUser
		if m.Role == RoleModel {
			role = RoleModel
		}
		req.Contents = append(req.Contents, &generativelanguage.Content{
			Role:  string(role),
			Parts: []*generativelanguage.Part{{Text: text}},
		})
	}
	if len(req.Contents) == 0 {
		return "", errors.New("gemini: empty conversation")
	}
	if len(system) > 0 {
		req.SystemInstruction = &generativelanguage.Content{
			Parts: []*generativelanguage.Part{{Text: strings.Join(system, "\n\n")}},
		}
	}
	return g.generate(ctx, req)
}

func (g *Gemini) generate(ctx context.Context, req *generativelanguage.GenerateContentRequest) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.models.GenerateContent(g.model, req).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			return "", &APIError{StatusCode: gerr.Code, Body: gerr.Body}
		}
		return "", err
	}
	text := firstText(resp)
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}

func firstText(resp *generativelanguage.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range c.Content.Parts {
			if p != nil {
				b.WriteString(p.Text)
			}
		}
		if s := strings.TrimSpace(b.String()); s != "" {
			return s
		}
	}
	return ""
}

func generationConfig() *generativelanguage.GenerationConfig {
	return &generativelanguage.GenerationConfig{
		Temperature:     temperature,
		TopK:            topK,
		TopP:            topP,
		MaxOutputTokens: maxOutputTokens,
	}
}
