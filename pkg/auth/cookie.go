package auth

import (
	"net/http"
	"time"

	"github.com/marketloop/storefront-backend/pkg/config"
)

// SetTokenCookie binds the access token to the client as an http-only cookie
// scoped to the site root. In prod the cookie is transport-restricted and
// cross-site readable (SameSite=None) so cross-origin frontends can send it;
// elsewhere it stays Lax over plain HTTP.
func SetTokenCookie(w http.ResponseWriter, jwtCfg config.JWTConfig, appCfg config.AppConfig, token string) {
	http.SetCookie(w, tokenCookie(jwtCfg, appCfg, token, jwtCfg.TokenTTL()))
}

// ClearTokenCookie expires the token cookie using matching scope attributes so
// browsers actually drop it. The underlying JWT stays cryptographically valid
// until its natural expiry.
func ClearTokenCookie(w http.ResponseWriter, jwtCfg config.JWTConfig, appCfg config.AppConfig) {
	http.SetCookie(w, tokenCookie(jwtCfg, appCfg, "", -time.Second))
}

func tokenCookie(jwtCfg config.JWTConfig, appCfg config.AppConfig, value string, ttl time.Duration) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if appCfg.IsProd() {
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     jwtCfg.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   appCfg.IsProd(),
		SameSite: sameSite,
	}
}
