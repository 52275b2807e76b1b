// Package analysis turns uploaded media and chat transcripts into vendor
// requests and vendor answers into the text the proxy returns.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/learnassist/internal/cryptox"
	"github.com/dmitrijs2005/learnassist/internal/logging"
	"github.com/dmitrijs2005/learnassist/internal/server/ai"
	"github.com/dmitrijs2005/learnassist/internal/server/cache"
)

type Kind string

const (
	KindPDF   Kind = "pdf"
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

// ErrUnsupportedKind is returned for any kind other than pdf, audio or video.
var ErrUnsupportedKind = errors.New("unsupported file kind")

const answerInChinese = "请用中文回答："

var prompts = map[Kind]string{
	KindPDF:   "请分析这个PDF文件并提供详细信息和内容摘要。如果内容中包含问题，请回答这些问题。",
	KindAudio: "请分析这个音频文件并提供详细内容描述、转录和总结",
	KindVideo: "请分析这个视频并提供详细内容描述、场景分析、转录和总结",
}

var mimeTypes = map[Kind]map[string]string{
	KindAudio: {".mp3": "audio/mpeg", ".wav": "audio/wav", ".m4a": "audio/mp4"},
	KindVideo: {".mp4": "video/mp4", ".avi": "video/x-msvideo", ".mov": "video/quicktime"},
}

var defaultMIME = map[Kind]string{
	KindPDF:   "application/pdf",
	KindAudio: "audio/mpeg",
	KindVideo: "video/mp4",
}

// ParseKind validates the upload route segment.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := prompts[k]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedKind, s)
	}
	return k, nil
}

// MIMEType picks the content type sent to the vendor from the file extension.
func MIMEType(kind Kind, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if m, ok := mimeTypes[kind][ext]; ok {
		return m
	}
	return defaultMIME[kind]
}

// Prompt is the full instruction for kind; extra is appended when set.
func Prompt(kind Kind, extra string) string {
	p := answerInChinese + prompts[kind]
	if extra = strings.TrimSpace(extra); extra != "" {
		p += "\n\n" + extra
	}
	return p
}

type Service struct {
	model ai.Model
	cache cache.Cache
	ttl   time.Duration
	log   logging.Logger
}

func NewService(model ai.Model, c cache.Cache, ttl time.Duration, log logging.Logger) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	if log == nil {
		log = logging.Nop{}
	}
	return &Service{model: model, cache: c, ttl: ttl, log: log.With("module", "analysis")}
}

// Analyze describes one uploaded file. Vendor failures are not returned as
// errors: the caller gets a readable explanation as the content instead.
// Only successful answers are cached.
func (s *Service) Analyze(ctx context.Context, kind Kind, filename string, data []byte, extra string) (string, error) {
	if _, ok := prompts[kind]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}

	prompt := Prompt(kind, extra)
	key := cryptox.FingerprintBytes(string(kind)+"\x00"+prompt, data)

	if v, ok, err := s.cache.Get(ctx, key); err != nil {
		s.log.Warn(ctx, "cache get failed", "error", err)
	} else if ok {
		s.log.Debug(ctx, "cache hit", "kind", kind, "file", filename)
		return v, nil
	}

	media := ai.Attachment{MIMEType: MIMEType(kind, filename), Data: data}
	text, err := s.model.Describe(ctx, prompt, media)
	if err != nil {
		s.log.Error(ctx, "vendor describe failed", "kind", kind, "file", filename, "size", len(data), "error", err)
		return failureText(kind, err), nil
	}

	if err := s.cache.Set(ctx, key, text, s.ttl); err != nil {
		s.log.Warn(ctx, "cache set failed", "error", err)
	}
	return text, nil
}

func failureText(kind Kind, err error) string {
	var apiErr *ai.APIError
	switch {
	case errors.Is(err, ai.ErrEmptyReply):
		return "AI未能生成有效回复。这可能是因为文件过大或格式不受支持。"
	case errors.As(err, &apiErr):
		return fmt.Sprintf("API调用失败: HTTP %d\n%s\n\n这可能是因为文件太大或格式不受支持。", apiErr.StatusCode, apiErr.Body)
	default:
		return fmt.Sprintf("处理%s文件时出错: %s", kind, err.Error())
	}
}

// ChatMessage is a transcript turn as the CLI sends it.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat forwards the transcript. Roles other than assistant and system are
// treated as user turns.
func (s *Service) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	history := make([]ai.Message, 0, len(messages))
	for _, m := range messages {
		role := ai.RoleUser
		switch strings.ToLower(m.Role) {
		case "assistant", "model":
			role = ai.RoleModel
		case "system":
			role = ai.RoleSystem
		}
		history = append(history, ai.Message{Role: role, Text: m.Content})
	}

	text, err := s.model.Chat(ctx, history)
	if err != nil {
		s.log.Error(ctx, "vendor chat failed", "turns", len(messages), "error", err)
		return "", fmt.Errorf("chat: %w", err)
	}
	return text, nil
}
