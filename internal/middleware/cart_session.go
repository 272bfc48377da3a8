package middleware

import (
	"encoding/base64"

	"github.com/labstack/echo/v4"
)

const (
	SessionCookieName = "cart_session"

	//32バイトをbase64url（パディング無し）にした長さ
	sessionIDLength = 43
)

// ゲストカートのcookieを読んでcontextに入れる。
// 形式が不正なcookieは無かったことにする（発行はhandler側）
func CartSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ck, err := c.Cookie(SessionCookieName)
			if err == nil && ValidSessionID(ck.Value) {
				c.Set(CtxSessionIDKey, ck.Value)
			}
			return next(c)
		}
	}
}

func SessionID(c echo.Context) string {
	s, _ := c.Get(CtxSessionIDKey).(string)
	return s
}

func ValidSessionID(s string) bool {
	if len(s) != sessionIDLength {
		return false
	}
	b, err := base64.RawURLEncoding.DecodeString(s)
	return err == nil && len(b) == 32
}
