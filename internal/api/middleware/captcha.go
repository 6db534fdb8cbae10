package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dreamhome/web/internal/captcha"
)

const (
	// ContextKeyIsHumanVerified holds the key for captcha status in Gin context.
	ContextKeyIsHumanVerified = "isHumanVerified"
)

// CaptchaMiddleware verifies the Turnstile token posted with login and
// register forms and records the result for the handler. Handlers decide
// what to do with an unverified client.
func CaptchaMiddleware(verifier captcha.ITurnstileVerifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		isHuman := true
		if verifier != nil && verifier.Enabled() {
			verified, err := verifier.Verify(c.Request.Context(), c.PostForm(captcha.FormField), c.ClientIP())
			if err != nil {
				logger.Warn("turnstile verification error", zap.Error(err))
			}
			isHuman = err == nil && verified
		}
		c.Set(ContextKeyIsHumanVerified, isHuman)
		c.Next()
	}
}

// IsHuman reports the CaptchaMiddleware verdict; requests it never saw pass.
func IsHuman(c *gin.Context) bool {
	v, ok := c.Get(ContextKeyIsHumanVerified)
	if !ok {
		return true
	}
	b, _ := v.(bool)
	return b
}
