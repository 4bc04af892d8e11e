package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"digitalaxis/internal/metrics"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	indexNowBatchSize  = 50
	indexNowFlushEvery = 500 * time.Millisecond
	// IndexNowKeyPath 站点上用于验证 key 的文件路径
	IndexNowKeyPath = "/indexnow-key.txt"
)

// IndexNowService 异步批量向 IndexNow 提交 URL
type IndexNowService struct {
	key      string
	endpoint string
	siteURL  string
	host     string

	queue   chan string // 待提交的 URL 队列
	pending map[string]bool
	mu      sync.Mutex

	client  *http.Client
	log     *zap.Logger
	metrics *metrics.Metrics

	batchSize  int
	flushEvery time.Duration
}

func NewIndexNowService(key, endpoint, siteURL string, log *zap.Logger, m *metrics.Metrics) *IndexNowService {
	host := ""
	if u, err := url.Parse(siteURL); err == nil {
		host = u.Host
	}
	return &IndexNowService{
		key:        key,
		endpoint:   endpoint,
		siteURL:    siteURL,
		host:       host,
		queue:      make(chan string, 1000), // 缓冲队列，防止阻塞
		pending:    make(map[string]bool),
		client:     &http.Client{Timeout: 10 * time.Second},
		log:        log,
		metrics:    m,
		batchSize:  indexNowBatchSize,
		flushEvery: indexNowFlushEvery,
	}
}

// Enabled 未配置 key 时不提交
func (s *IndexNowService) Enabled() bool {
	return s.key != "" && s.endpoint != ""
}

// Key 验证文件内容
func (s *IndexNowService) Key() string {
	return s.key
}

// Schedule 将 URL 加入提交队列（异步），队列中已有的 URL 跳过
func (s *IndexNowService) Schedule(u string) {
	if !s.Enabled() {
		return
	}

	s.mu.Lock()
	if s.pending[u] {
		s.mu.Unlock()
		return
	}
	s.pending[u] = true
	s.mu.Unlock()

	// 非阻塞发送到队列
	select {
	case s.queue <- u:
	default:
		s.mu.Lock()
		delete(s.pending, u)
		s.mu.Unlock()
		s.log.Warn("IndexNow queue full, dropping url", zap.String("url", u))
	}
}

// Run 后台处理队列，ctx 结束时提交剩余 URL 后返回
func (s *IndexNowService) Run(ctx context.Context) {
	batch := make([]string, 0, s.batchSize)
	ticker := time.NewTicker(s.flushEvery)
	defer ticker.Stop()

	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		s.processBatch(ctx, batch)
		batch = batch[:0]
	}

	for {
		select {
		case u := <-s.queue:
			batch = append(batch, u)
			if len(batch) >= s.batchSize {
				flush(ctx)
			}
		case <-ticker.C:
			flush(ctx)
		case <-ctx.Done():
			// 排空队列
			for {
				select {
				case u := <-s.queue:
					batch = append(batch, u)
				default:
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					flush(shutdownCtx)
					cancel()
					return
				}
			}
		}
	}
}

func (s *IndexNowService) processBatch(ctx context.Context, urls []string) {
	err := s.Submit(ctx, urls)
	if err != nil {
		s.log.Error("IndexNow submission failed", zap.Int("urls", len(urls)), zap.Error(err))
	} else {
		s.log.Info("IndexNow submission successful", zap.Int("urls", len(urls)))
	}

	s.mu.Lock()
	for _, u := range urls {
		delete(s.pending, u)
	}
	s.mu.Unlock()
}

type indexNowRequest struct {
	Host        string   `json:"host"`
	Key         string   `json:"key"`
	KeyLocation string   `json:"keyLocation,omitempty"`
	URLList     []string `json:"urlList"`
}

// Submit 同步提交一批 URL
func (s *IndexNowService) Submit(ctx context.Context, urls []string) error {
	if !s.Enabled() || len(urls) == 0 {
		return nil
	}

	payload, err := json.Marshal(indexNowRequest{
		Host:        s.host,
		Key:         s.key,
		KeyLocation: s.siteURL + IndexNowKeyPath,
		URLList:     urls,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := s.client.Do(req)
	if err != nil {
		s.metrics.AddIndexNowURLs("error", len(urls))
		return fmt.Errorf("indexnow request: %w", err)
	}
	defer resp.Body.Close()

	// 200 已接收，202 已接收待验证 key
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		s.metrics.AddIndexNowURLs("error", len(urls))
		return fmt.Errorf("indexnow: status %d: %s", resp.StatusCode, msg)
	}
	s.metrics.AddIndexNowURLs("ok", len(urls))
	return nil
}

// StartDailyResubmit 每天凌晨 3 点重新提交全部文章地址，返回的 cron 需在退出时 Stop
func (s *IndexNowService) StartDailyResubmit(listURLs func(ctx context.Context) ([]string, error)) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc("0 3 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		urls, err := listURLs(ctx)
		if err != nil {
			s.log.Error("list post urls for IndexNow failed", zap.Error(err))
			return
		}
		for _, u := range urls {
			s.Schedule(u)
		}
		s.log.Info("scheduled daily IndexNow resubmit", zap.Int("urls", len(urls)))
	})
	if err != nil {
		return nil, fmt.Errorf("schedule IndexNow resubmit: %w", err)
	}
	c.Start()
	return c, nil
}
