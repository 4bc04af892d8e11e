package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	nonSlugChars  = regexp.MustCompile(`[^a-z0-9]+`)
	excerptStrip  = strings.NewReplacer("#", "", "*", "", "`", "")
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// Slugify 标题转 URL 片段，只保留小写字母和数字
func Slugify(title string) string {
	return strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(title), "-"), "-")
}

// Excerpt 取正文前 n 个字符并去掉 markdown 标记
func Excerpt(body string, n int) string {
	if utf8.RuneCountInString(body) > n {
		body = string([]rune(body)[:n])
	}
	return excerptStrip.Replace(body)
}

// Truncate 截断到 n 个字符，超出时追加省略号
func Truncate(s string, n int) string {
	s = strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}
