package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// CredentialVerifier はユーザー名とパスワードの組を検証するインターフェース。
// 本番環境でユーザーストアを差し替えられるよう、認証の境界として定義する。
type CredentialVerifier interface {
	// Verify は資格情報が正しい場合にtrueを返す。
	Verify(username, password string) bool
}

// StaticVerifier は単一の固定アカウントを検証するCredentialVerifier。
// パスワードは平文では保持せず、bcryptハッシュとして保持する。
type StaticVerifier struct {
	// username は許可するユーザー名。
	username string
	// passwordHash はパスワードのbcryptハッシュ。
	passwordHash []byte
}

// NewStaticVerifier は単一アカウント用のStaticVerifierを生成する。
// 与えられた平文パスワードは起動時に一度だけbcryptでハッシュ化する。
func NewStaticVerifier(username, password string) (*StaticVerifier, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &StaticVerifier{username: username, passwordHash: hash}, nil
}

// Verify はCredentialVerifierインターフェースを実装する。
func (v *StaticVerifier) Verify(username, password string) bool {
	if subtle.ConstantTimeCompare([]byte(username), []byte(v.username)) != 1 {
		return false
	}
	return bcrypt.CompareHashAndPassword(v.passwordHash, []byte(password)) == nil
}

// contextKeyUsername はGinコンテキストに認証済みユーザー名を格納するためのキー。
const contextKeyUsername = "username"

// Auth はBasic認証またはBearerトークンで認証するGinミドルウェアを返す。
// Authorizationヘッダーが "Bearer " で始まる場合はJWTとして検証し、
// それ以外はBasic認証としてverifierで検証する。
// 認証に成功した場合、コンテキストにユーザー名を設定する。
func Auth(verifier CredentialVerifier, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		if tokenString, found := strings.CutPrefix(authHeader, "Bearer "); found {
			claims, err := parseJWT(jwtSecret, tokenString)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "トークンが無効です",
				})
				return
			}
			c.Set(contextKeyUsername, claims.Username)
			c.Next()
			return
		}

		username, password, ok := c.Request.BasicAuth()
		if !ok || !verifier.Verify(username, password) {
			c.Header("WWW-Authenticate", `Basic realm="bundle"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "認証に失敗しました",
			})
			return
		}

		c.Set(contextKeyUsername, username)
		c.Next()
	}
}

// BasicAuth はBasic認証のみを受け付けるGinミドルウェアを返す。
// トークン発行エンドポイントなど、JWTでのアクセスを許可しない箇所で使用する。
func BasicAuth(verifier CredentialVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, password, ok := c.Request.BasicAuth()
		if !ok || !verifier.Verify(username, password) {
			c.Header("WWW-Authenticate", `Basic realm="bundle"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "認証に失敗しました",
			})
			return
		}

		c.Set(contextKeyUsername, username)
		c.Next()
	}
}

// GetUsername はGinコンテキストから認証済みユーザー名を取得する。
// AuthまたはBasicAuthミドルウェアが事前に適用されている必要がある。
func GetUsername(c *gin.Context) string {
	username, _ := c.Get(contextKeyUsername)
	if name, ok := username.(string); ok {
		return name
	}
	return ""
}
