package models

import (
	"time"
)

// Post 博客文章，正文托管在内容仓库（GitHub 或本地目录），不入库
type Post struct {
	Slug    string    `json:"slug"`
	Title   string    `json:"title"`
	Content string    `json:"content"`
	Excerpt string    `json:"excerpt,omitempty"`
	Date    time.Time `json:"date"`
	Author  string    `json:"author,omitempty"`
	Tags    []string  `json:"tags,omitempty"`
	Image   string    `json:"image,omitempty"`

	// 内容仓库中文件的 sha，删除/更新时需要
	SHA string `json:"-"`
}
