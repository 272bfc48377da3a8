package handler

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"

	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

const sessionMaxAge = 30 * 24 * time.Hour

// cart_session cookie の発行と削除
type Sessions struct {
	Secure bool
}

// 今のリクエストのカートの持ち主
func (s Sessions) identity(c echo.Context) usecase.Identity {
	id := usecase.Identity{SessionID: middleware.SessionID(c)}
	if userID, ok := middleware.UserID(c); ok {
		id.UserID = &userID
	}
	return id
}

// 書き込み系で使う。ゲストでcookieが無ければここで発行する
func (s Sessions) ensure(c echo.Context) (usecase.Identity, error) {
	id := s.identity(c)
	if !id.IsZero() {
		return id, nil
	}

	sid, err := newSessionID()
	if err != nil {
		return usecase.Identity{}, err
	}
	c.SetCookie(s.cookie(sid, int(sessionMaxAge.Seconds())))
	c.Set(middleware.CtxSessionIDKey, sid)

	id.SessionID = sid
	return id, nil
}

func (s Sessions) clear(c echo.Context) {
	c.SetCookie(s.cookie("", -1))
	c.Set(middleware.CtxSessionIDKey, "")
}

func (s Sessions) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func newSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
