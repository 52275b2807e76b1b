package common

import "fmt"

// User-visible strings. The product is Chinese-facing.
const (
	MsgThinking          = "正在思考..."
	MsgThinkingWithFiles = "正在分析您选择的文件并思考回答..."
	MsgChatEmptyReply    = "抱歉，我无法理解您的问题。请尝试重新表述。"
	MsgChatFailed        = "抱歉，我遇到了一些问题。请稍后再试。"
	MsgUploadAllFailed   = "❌ 所有文件上传失败，请检查网络连接或文件格式。"
	MsgUnknownError      = "未知错误"
	MsgNetworkError      = "网络错误，请重试"
	MsgCardGenerated     = "✨ 成功生成了一张智能笔记卡片！您可以在笔记卡片页面查看和管理。"
	MsgCardFailed        = "生成笔记卡片失败"
	MsgImportSucceeded   = "文件导入成功！"
	MsgImportFailed      = "导入失败，请检查URL是否有效"
	MsgSystemPrompt      = "你是一位AI学习助手。请用专业且易懂的方式回答问题。"
)

// UploadSummary renders the one-per-batch summary message.
func UploadSummary(succeeded, failed int) string {
	if succeeded == 0 {
		return MsgUploadAllFailed
	}
	if failed > 0 {
		return fmt.Sprintf("✅ 成功上传 %d 个文件，%d 个文件上传失败！", succeeded, failed)
	}
	return fmt.Sprintf("✅ 成功上传 %d 个文件！", succeeded)
}

// CardFailure renders the assistant message for a failed note card generation.
func CardFailure(reason string) string {
	if reason == "" {
		reason = MsgUnknownError
	}
	return fmt.Sprintf("抱歉，生成笔记卡片时遇到了问题：%s。请稍后重试。", reason)
}

// BatchDeleteSummary renders the outcome of a batch card deletion.
func BatchDeleteSummary(succeeded, failed int) string {
	return fmt.Sprintf("批量删除完成！成功：%d 张，失败：%d 张", succeeded, failed)
}

// HandwrittenNoteReady renders the assistant message for a generated note image.
func HandwrittenNoteReady(imageURL string) string {
	return fmt.Sprintf("📝 手写笔记已生成：%s", imageURL)
}
