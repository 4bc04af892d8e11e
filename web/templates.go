package web

import (
	"fmt"
	"html/template"
	"io/fs"
	"maps"
	"strings"
	"time"

	"github.com/gin-contrib/multitemplate"
)

// 每个页面 = 布局 + 公共片段 + 页面本身
var pages = []string{
	"blog/index.html",
	"blog/post.html",
	"blog/search.html",
	"admin/login.html",
	"admin/comments.html",
	"error.html",
}

// FuncMap 页面模板共用的函数
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"dict": func(values ...any) (map[string]any, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("invalid dict call")
			}
			dict := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
		"add": func(a, b int) int {
			return a + b
		},
		"formatDate": func(t time.Time) string {
			return t.Format("January 2, 2006")
		},
		"isoDate": func(t time.Time) string {
			return t.UTC().Format(time.RFC3339)
		},
		"timeAgo": timeAgo,
		"join":    strings.Join,
		"plural": func(n int, one, many string) string {
			if n == 1 {
				return one
			}
			return many
		},
	}
}

func timeAgo(t time.Time) string {
	seconds := int(time.Since(t).Seconds())
	switch {
	case seconds < 60:
		return "just now"
	case seconds < 3600:
		return fmt.Sprintf("%dm ago", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%dh ago", seconds/3600)
	case seconds < 2592000:
		return fmt.Sprintf("%dd ago", seconds/86400)
	}
	return t.Format("Jan 2, 2006")
}

// LoadTemplates 解析内嵌页面模板。extra 中的函数会覆盖同名默认函数
func LoadTemplates(extra template.FuncMap) (multitemplate.Renderer, error) {
	funcs := FuncMap()
	maps.Copy(funcs, extra)

	root, err := fs.Sub(Templates, "templates")
	if err != nil {
		return nil, err
	}
	partials, err := fs.Glob(root, "partials/*.html")
	if err != nil {
		return nil, err
	}

	r := multitemplate.NewRenderer()
	for _, page := range pages {
		files := append([]string{"layouts/base.html"}, partials...)
		files = append(files, "views/"+page)

		tmpl, err := template.New("base.html").Funcs(funcs).ParseFS(root, files...)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		r.Add(page, tmpl)
	}
	return r, nil
}
