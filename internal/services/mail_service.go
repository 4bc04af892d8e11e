package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"strconv"
	"strings"
	"sync"

	"digitalaxis/internal/models"
	"digitalaxis/web"

	"go.uber.org/zap"
)

type MailConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	AdminEmail string // 新评论通知收件人
	SiteURL    string
	SiteName   string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type MailService struct {
	cfg     MailConfig
	Enabled bool

	tmpl *template.Template
	send sendFunc
	log  *zap.Logger
	wg   sync.WaitGroup
}

func NewMailService(cfg MailConfig, log *zap.Logger) (*MailService, error) {
	tmpl, err := template.ParseFS(web.Templates, "templates/email/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}

	enabled := cfg.Host != "" && cfg.Port > 0 && cfg.Username != "" && cfg.Password != "" && cfg.From != ""
	if !enabled {
		log.Warn("MailService disabled: missing SMTP configuration")
	}

	return &MailService{
		cfg:     cfg,
		Enabled: enabled,
		tmpl:    tmpl,
		send:    smtp.SendMail,
		log:     log,
	}, nil
}

func (s *MailService) sendAsync(to []string, subject string, body string) {
	if !s.Enabled || len(to) == 0 {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		addr := s.cfg.Host + ":" + strconv.Itoa(s.cfg.Port)

		mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
		msg := []byte(fmt.Sprintf("To: %s\r\n"+
			"From: %s <%s>\r\n"+
			"Subject: %s\r\n"+
			"%s\r\n%s", strings.Join(to, ","), s.cfg.SiteName, s.cfg.From, subject, mime, body))

		if err := s.send(addr, auth, s.cfg.From, to, msg); err != nil {
			s.log.Error("failed to send email", zap.Strings("to", to), zap.Error(err))
			return
		}
		s.log.Info("email sent", zap.Strings("to", to), zap.String("subject", subject))
	}()
}

// Wait 等待已发出的邮件发送完成，退出前调用
func (s *MailService) Wait() {
	s.wg.Wait()
}

func (s *MailService) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

// NotifyNewComment 访客留言后通知站长
func (s *MailService) NotifyNewComment(c models.Comment) {
	if s.cfg.AdminEmail == "" {
		return
	}
	body, err := s.render("new_comment.html", map[string]any{
		"PostSlug":       c.PostSlug,
		"Author":         c.Author,
		"Email":          c.Email,
		"Content":        c.Content,
		"MentionedUser":  c.MentionedUser,
		"IsReply":        !c.IsRoot(),
		"PostLink":       s.cfg.SiteURL + "/blog/" + c.PostSlug + "#comment-" + c.ID,
		"ModerationLink": s.cfg.SiteURL + "/admin/comments?post=" + c.PostSlug,
	})
	if err != nil {
		s.log.Error("render comment notification failed", zap.Error(err))
		return
	}
	s.sendAsync([]string{s.cfg.AdminEmail}, "💬 New comment from "+c.Author+" on "+c.PostSlug, body)
}

// SendSubscriberWelcome 订阅成功欢迎邮件
func (s *MailService) SendSubscriberWelcome(email string) {
	body, err := s.render("welcome.html", map[string]string{
		"SiteName": s.cfg.SiteName,
		"SiteURL":  s.cfg.SiteURL,
	})
	if err != nil {
		s.log.Error("render welcome email failed", zap.Error(err))
		return
	}
	s.sendAsync([]string{email}, "Welcome to "+s.cfg.SiteName, body)
}
