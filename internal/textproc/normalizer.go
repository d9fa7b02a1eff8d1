package textproc

import (
	"regexp"
	"strings"
)

var (
	reWhitespace = regexp.MustCompile(`\s+`)
	reURL        = regexp.MustCompile(`http[s]?://(?:[a-zA-Z]|[0-9]|[$-_@.&+]|[!*\\(\\),]|(?:%[0-9a-fA-F][0-9a-fA-F]))+`)
	reEmail      = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	rePhone      = regexp.MustCompile(`(\+\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	// 保留句末标点 .!?，其余标点替换为空格，供下游句子切分使用
	rePunct = regexp.MustCompile(`[^\w\s.!?]`)
)

// Normalize 清洗原始文本：小写、折叠空白、去除URL/邮箱/电话号码和非必要标点。
// 句末标点保留。空输入返回空串，不报错。
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ToLower(text)
	text = reURL.ReplaceAllString(text, "")
	text = reEmail.ReplaceAllString(text, "")
	text = rePhone.ReplaceAllString(text, "")
	text = rePunct.ReplaceAllString(text, " ")
	text = reWhitespace.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}

// StripPunctuation 去掉词元内残留的标点（关键词归一化用）
func StripPunctuation(token string) string {
	return strings.Trim(token, ".!?")
}
