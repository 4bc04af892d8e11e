package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"digitalaxis/internal/models"
)

const githubAPI = "https://api.github.com"

// GitHubSource 通过 GitHub contents API 读写文章
type GitHubSource struct {
	BaseURL  string
	Owner    string
	Repo     string
	Token    string
	Branch   string
	PostsDir string

	client *http.Client
	now    func() time.Time
}

// githubFile contents API 的文件条目
type githubFile struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	SHA     string `json:"sha"`
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

func NewGitHubSource(owner, repo, token, branch, postsDir string) *GitHubSource {
	return &GitHubSource{
		BaseURL:  githubAPI,
		Owner:    owner,
		Repo:     repo,
		Token:    token,
		Branch:   branch,
		PostsDir: strings.Trim(postsDir, "/"),
		client:   &http.Client{Timeout: 15 * time.Second},
		now:      time.Now,
	}
}

func (s *GitHubSource) contentsURL(path string) string {
	u := fmt.Sprintf("%s/repos/%s/%s/contents/%s", strings.TrimRight(s.BaseURL, "/"), s.Owner, s.Repo, path)
	if s.Branch != "" {
		u += "?ref=" + s.Branch
	}
	return u
}

func (s *GitHubSource) postPath(slug string) string {
	if s.PostsDir == "" {
		return slug + ".md"
	}
	return s.PostsDir + "/" + slug + ".md"
}

func (s *GitHubSource) do(ctx context.Context, method, url string, body any, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, err
	}
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("github %s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return resp.StatusCode, nil
	}
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, fmt.Errorf("github %s %s: status %d: %s", method, url, resp.StatusCode, msg)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode github response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// ListPosts 列出目录后逐个读取文件内容，读取失败的文件跳过
func (s *GitHubSource) ListPosts(ctx context.Context) ([]models.Post, error) {
	var files []githubFile
	status, err := s.do(ctx, http.MethodGet, s.contentsURL(s.PostsDir), nil, &files)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return []models.Post{}, nil
	}

	posts := make([]models.Post, 0, len(files))
	for _, f := range files {
		if f.Type != "file" || !strings.HasSuffix(f.Name, ".md") {
			continue
		}
		file, err := s.getFile(ctx, f.Path)
		if err != nil {
			return nil, err
		}
		if file == nil || file.Content == "" {
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(file.Content), ""))
		if err != nil {
			continue
		}
		post := ParsePost(f.Name, string(raw), s.now())
		post.SHA = file.SHA
		posts = append(posts, post)
	}
	return posts, nil
}

// getFile 文件不存在时返回 nil, nil
func (s *GitHubSource) getFile(ctx context.Context, path string) (*githubFile, error) {
	var file githubFile
	status, err := s.do(ctx, http.MethodGet, s.contentsURL(path), nil, &file)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	return &file, nil
}

// Publish 创建或更新文章文件
func (s *GitHubSource) Publish(ctx context.Context, post models.Post) error {
	raw, err := FormatPost(post)
	if err != nil {
		return err
	}
	path := s.postPath(post.Slug)

	existing, err := s.getFile(ctx, path)
	if err != nil {
		return err
	}
	body := map[string]string{
		"message": "Add post: " + post.Title,
		"content": base64.StdEncoding.EncodeToString(raw),
	}
	if s.Branch != "" {
		body["branch"] = s.Branch
	}
	if existing != nil {
		body["sha"] = existing.SHA
		body["message"] = "Update post: " + post.Title
	}

	_, err = s.do(ctx, http.MethodPut, s.contentsURL(path), body, nil)
	return err
}

// Delete 删除文章文件，文件不存在返回 ErrPostNotFound
func (s *GitHubSource) Delete(ctx context.Context, slug string) error {
	path := s.postPath(slug)
	existing, err := s.getFile(ctx, path)
	if err != nil {
		return err
	}
	if existing == nil {
		return models.ErrPostNotFound
	}

	body := map[string]string{
		"message": "Delete post: " + slug,
		"sha":     existing.SHA,
	}
	if s.Branch != "" {
		body["branch"] = s.Branch
	}
	_, err = s.do(ctx, http.MethodDelete, s.contentsURL(path), body, nil)
	return err
}
