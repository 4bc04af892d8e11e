package services

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"digitalaxis/internal/models"
	"digitalaxis/internal/utils"

	"gopkg.in/yaml.v3"
)

var frontmatterRegex = regexp.MustCompile(`(?s)^---\r?\n(.*?)\r?\n---\r?\n?(.*)$`)

// tagList 兼容 `tags: [a, b]` 和 `tags: a, b` 两种写法
type tagList []string

func (t *tagList) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.SequenceNode:
		var list []string
		if err := n.Decode(&list); err != nil {
			return err
		}
		*t = cleanTags(list)
	case yaml.ScalarNode:
		*t = cleanTags(strings.Split(n.Value, ","))
	default:
		return fmt.Errorf("tags: unexpected yaml node kind %d", n.Kind)
	}
	return nil
}

func cleanTags(in []string) []string {
	out := make([]string, 0, len(in))
	for _, tag := range in {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

type frontMatter struct {
	Title   string  `yaml:"title,omitempty"`
	Excerpt string  `yaml:"excerpt,omitempty"`
	Date    string  `yaml:"date,omitempty"`
	Author  string  `yaml:"author,omitempty"`
	Tags    tagList `yaml:"tags,omitempty"`
	Image   string  `yaml:"image,omitempty"`
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

func parseDate(s string) (time.Time, bool) {
	s = strings.Trim(strings.TrimSpace(s), `"'`)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseLoose 逐行 `key: value` 解析，YAML 解析失败（例如标题中带冒号）时使用
func parseLoose(raw string) frontMatter {
	var fm frontMatter
	for _, line := range strings.Split(raw, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		switch strings.TrimSpace(key) {
		case "title":
			fm.Title = value
		case "excerpt":
			fm.Excerpt = value
		case "date":
			fm.Date = value
		case "author":
			fm.Author = value
		case "tags":
			fm.Tags = cleanTags(strings.Split(strings.Trim(value, "[]"), ","))
		case "image":
			fm.Image = value
		}
	}
	return fm
}

// ParsePost 解析带 frontmatter 的 markdown 文件。filename 决定 slug
func ParsePost(filename, content string, now time.Time) models.Post {
	slug := strings.TrimSuffix(filename, ".md")
	body := content
	var fm frontMatter

	if m := frontmatterRegex.FindStringSubmatch(content); m != nil {
		body = m[2]
		if err := yaml.Unmarshal([]byte(m[1]), &fm); err != nil {
			fm = parseLoose(m[1])
		}
	}

	post := models.Post{
		Slug:    slug,
		Title:   fm.Title,
		Content: body,
		Excerpt: fm.Excerpt,
		Author:  fm.Author,
		Tags:    []string(fm.Tags),
		Image:   fm.Image,
	}
	if post.Title == "" {
		post.Title = slug
	}
	if post.Excerpt == "" {
		post.Excerpt = utils.Excerpt(body, 160)
	}
	if post.Author == "" {
		post.Author = "Anonymous"
	}
	if post.Tags == nil {
		post.Tags = []string{}
	}
	if d, ok := parseDate(fm.Date); ok {
		post.Date = d
	} else {
		post.Date = now
	}
	return post
}

// FormatPost 生成写回内容仓库的 markdown 文件
func FormatPost(p models.Post) ([]byte, error) {
	fm := frontMatter{
		Title:   p.Title,
		Excerpt: p.Excerpt,
		Date:    p.Date.UTC().Format(time.RFC3339),
		Author:  p.Author,
		Tags:    tagList(p.Tags),
		Image:   p.Image,
	}
	head, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("marshal frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(head)
	buf.WriteString("---\n")
	buf.WriteString(p.Content)
	return buf.Bytes(), nil
}
