package handlers

import (
	"net/http"

	"digitalaxis/internal/middleware"
	"digitalaxis/internal/services"
	"digitalaxis/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const captchaSessionKey = "captcha_answer"

type AuthHandler struct {
	passwordHash   string
	captchaService *services.CaptchaService
	log            *zap.Logger
}

// NewAuthHandler passwordHash 为管理员密码的 bcrypt 哈希，为空时无法登录
func NewAuthHandler(passwordHash string, captcha *services.CaptchaService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{passwordHash: passwordHash, captchaService: captcha, log: log}
}

// renderLogin 每次渲染登录页都换一道新题
func (h *AuthHandler) renderLogin(c *gin.Context, code int, errMsg string) {
	question, answer := h.captchaService.GenerateMathProblem()
	session := sessions.Default(c)
	session.Set(captchaSessionKey, answer)
	if err := session.Save(); err != nil {
		h.log.Warn("save captcha session failed", zap.Error(err))
	}

	obj := gin.H{"Title": "Admin Login", "Captcha": question}
	if errMsg != "" {
		obj["Error"] = errMsg
	}
	Render(c, code, "admin/login.html", obj)
}

func (h *AuthHandler) ShowLogin(c *gin.Context) {
	if middleware.CurrentModerator(c).Valid() {
		c.Redirect(http.StatusFound, "/admin/comments")
		return
	}
	h.renderLogin(c, http.StatusOK, "")
}

func (h *AuthHandler) Login(c *gin.Context) {
	password := c.PostForm("password")
	captchaInput := c.PostForm("captcha")

	// Validate Captcha
	session := sessions.Default(c)
	expected, ok := session.Get(captchaSessionKey).(int)
	if !ok || !h.captchaService.Verify(expected, captchaInput) {
		h.renderLogin(c, http.StatusBadRequest, "Incorrect answer, please try again")
		return
	}
	session.Delete(captchaSessionKey)

	if !utils.CheckPasswordHash(password, h.passwordHash) {
		h.log.Warn("admin login failed", zap.String("ip", c.ClientIP()))
		h.renderLogin(c, http.StatusUnauthorized, "Invalid password")
		return
	}

	session.Set(middleware.SessionAdminKey, true)
	if err := session.Save(); err != nil {
		h.log.Error("save admin session failed", zap.Error(err))
		RenderError(c, http.StatusInternalServerError, "Login failed")
		return
	}
	h.log.Info("admin logged in", zap.String("ip", c.ClientIP()))

	c.Redirect(http.StatusFound, "/admin/comments")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		h.log.Warn("clear admin session failed", zap.Error(err))
	}
	if c.GetHeader("HX-Request") == "true" {
		HtmxRedirect(c, "/")
		return
	}
	c.Redirect(http.StatusFound, "/")
}
