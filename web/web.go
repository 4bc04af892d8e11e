// Package web 内嵌页面与邮件模板
package web

import "embed"

//go:embed templates
var Templates embed.FS
