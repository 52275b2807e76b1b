package http

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/learnassist/internal/logging"
	"github.com/dmitrijs2005/learnassist/internal/server/analysis"
)

type handler struct {
	svc       Analyzer
	log       logging.Logger
	maxUpload int64
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) upload(c *gin.Context) {
	ctx := c.Request.Context()

	raw := c.Param("type")
	kind, err := analysis.ParseKind(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "不支持的文件类型: " + raw})
		return
	}

	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			c.JSON(http.StatusBadRequest, gin.H{"error": "没有找到上传的文件"})
		case errors.As(err, &tooBig):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("处理上传请求时出错: 文件超过 %d 字节", tooBig.Limit)})
		default:
			h.log.Error(ctx, "read multipart form", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "处理上传请求时出错: " + err.Error()})
		}
		return
	}

	data, err := readFormFile(fh)
	if err != nil {
		h.log.Error(ctx, "read uploaded file", "file", fh.Filename, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "处理上传请求时出错: " + err.Error()})
		return
	}

	h.log.Info(ctx, "analyzing upload", "kind", kind, "file", fh.Filename, "size", len(data))

	content, err := h.svc.Analyze(ctx, kind, fh.Filename, data, c.PostForm("prompt"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "处理上传请求时出错: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": content})
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

type chatRequest struct {
	Messages []analysis.ChatMessage `json:"messages"`
}

func (h *handler) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messages are required"})
		return
	}

	text, err := h.svc.Chat(c.Request.Context(), req.Messages)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process your request"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": text})
}
