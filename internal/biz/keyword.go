package biz

import (
	"strings"
	"unicode/utf8"
)

const maxKeywordLen = 50

// 过滤语法中的保留字符
var keywordReplacer = strings.NewReplacer(
	",", " ",
	"(", " ",
	")", " ",
	"*", " ",
	`"`, " ",
	"'", " ",
)

var likeReplacer = strings.NewReplacer(
	`\`, `\\`,
	"%", `\%`,
	"_", `\_`,
)

// SanitizeKeyword 把用户输入整理成可安全用于过滤的关键字，最多 50 个字符。
func SanitizeKeyword(s string) string {
	s = keywordReplacer.Replace(strings.TrimSpace(s))
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) > maxKeywordLen {
		s = string([]rune(s)[:maxKeywordLen])
	}
	return strings.TrimSpace(s)
}

// EscapeLike 转义 LIKE 通配符与转义符本身。
func EscapeLike(s string) string {
	return likeReplacer.Replace(s)
}

// ContainsPattern 子串匹配模式 %kw%。
func ContainsPattern(s string) string {
	return "%" + EscapeLike(s) + "%"
}
