package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"digitalaxis/internal/config"
	"digitalaxis/internal/db"
	"digitalaxis/internal/handlers"
	"digitalaxis/internal/logging"
	"digitalaxis/internal/metrics"
	"digitalaxis/internal/middleware"
	"digitalaxis/internal/router"
	"digitalaxis/internal/services"
	"digitalaxis/internal/store"
	"digitalaxis/web"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Initialize Database
	comments, subscribers, err := openStores(cfg, logger)
	if err != nil {
		return err
	}

	var rdb redis.Cmdable
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return err
		}
		client := redis.NewClient(opts)
		defer client.Close()
		rdb = client
	} else {
		logger.Warn("REDIS_URL not set, rate limiting disabled")
	}

	// Services
	mail, err := services.NewMailService(services.MailConfig{
		Host:       cfg.SMTPHost,
		Port:       cfg.SMTPPort,
		Username:   cfg.SMTPUser,
		Password:   cfg.SMTPPass,
		From:       cfg.SMTPFrom,
		AdminEmail: cfg.AdminEmail,
		SiteURL:    cfg.SiteURL,
		SiteName:   cfg.SiteAuthor,
	}, logger)
	if err != nil {
		return err
	}
	defer mail.Wait()

	indexNow := services.NewIndexNowService(cfg.IndexNowKey, cfg.IndexNowEndpoint, cfg.SiteURL, logger, m)

	var source services.PostSource
	if cfg.UsesGitHub() {
		source = services.NewGitHubSource(cfg.GitHubOwner, cfg.GitHubRepo, cfg.GitHubToken, cfg.GitHubBranch, cfg.GitHubPostsDir)
		logger.Info("reading posts from GitHub", zap.String("repo", cfg.GitHubOwner+"/"+cfg.GitHubRepo))
	} else {
		source = services.NewLocalSource(cfg.ContentDir)
		logger.Info("reading posts from local directory", zap.String("dir", cfg.ContentDir))
	}
	content, err := services.NewContentService(source, indexNow, cfg.SiteURL, cfg.SiteAuthor, logger)
	if err != nil {
		return err
	}

	moderation := services.NewModerationService(comments, logger, m)
	commentService := services.NewCommentService(comments, mail, logger, m)
	subscribe := services.NewSubscribeService(subscribers, mail, logger, m)

	// 后台任务：IndexNow 队列和每日重新提交
	var workers sync.WaitGroup
	if indexNow.Enabled() {
		workers.Add(1)
		go func() {
			defer workers.Done()
			indexNow.Run(ctx)
		}()
		scheduler, err := indexNow.StartDailyResubmit(content.PostURLs)
		if err != nil {
			return err
		}
		defer func() { <-scheduler.Stop().Done() }()
	}

	// Initialize Gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.Recovery(logger), middleware.RequestLogger(logger), middleware.Metrics(m))

	// Setup Sessions
	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 3600,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("digitalaxis_session", sessionStore))
	r.Use(middleware.LoadModerator(cfg.SiteAuthor))

	handlers.SiteName = cfg.SiteAuthor
	renderer, err := web.LoadTemplates(handlers.TemplateFuncs())
	if err != nil {
		return err
	}
	r.HTMLRender = renderer

	router.RegisterRoutes(r, router.Handlers{
		Auth:      handlers.NewAuthHandler(cfg.AdminPasswordHash, services.NewCaptchaService(), logger),
		Admin:     handlers.NewAdminHandler(moderation, logger),
		Blog:      handlers.NewBlogHandler(content, commentService, cfg.SiteURL, logger),
		Comments:  handlers.NewCommentHandler(commentService, logger),
		Subscribe: handlers.NewSubscribeHandler(subscribe, logger),
		SEO:       handlers.NewSEOHandler(content, cfg.SiteURL, indexNow.Key(), logger),
		Metrics:   promhttp.Handler(),
	}, middleware.NewRateLimiter(rdb, cfg.RateLimitEnabled, logger))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("DigitalAxis server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	workers.Wait()
	return nil
}

// openStores 配置了 DATABASE_URL 时使用 PostgreSQL，否则使用内存存储（仅开发环境）
func openStores(cfg *config.Config, logger *zap.Logger) (store.CommentStore, store.SubscriberStore, error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, using in-memory stores; data is lost on restart")
		return store.NewMemoryCommentStore(), store.NewMemorySubscriberStore(), nil
	}

	conn, err := db.Connect(cfg.DatabaseURL, logger)
	if err != nil {
		return nil, nil, err
	}
	return store.NewCommentStore(conn), store.NewSubscriberStore(conn), nil
}
