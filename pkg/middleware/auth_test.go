package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testSecret はテスト用のJWTシークレット。
const testSecret = "test-secret-key-for-unit-tests"

// setupAuthRouter はAuthミドルウェアを適用したテスト用ルーターを構築する。
func setupAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()

	verifier, err := NewStaticVerifier("user", "pass")
	if err != nil {
		t.Fatalf("StaticVerifierの生成に失敗: %v", err)
	}

	router := gin.New()
	router.Use(Auth(verifier, testSecret))
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"username": GetUsername(c)})
	})
	return router
}

// TestStaticVerifier はStaticVerifierを検証する。
func TestStaticVerifier(t *testing.T) {
	t.Parallel()

	verifier, err := NewStaticVerifier("user", "pass")
	if err != nil {
		t.Fatalf("NewStaticVerifier()でエラーが発生: %v", err)
	}

	t.Run("正しい資格情報を受け付けること", func(t *testing.T) {
		t.Parallel()
		if !verifier.Verify("user", "pass") {
			t.Error("Verify(user, pass) = false, want true")
		}
	})

	t.Run("誤ったパスワードを拒否すること", func(t *testing.T) {
		t.Parallel()
		if verifier.Verify("user", "wrong") {
			t.Error("Verify(user, wrong) = true, want false")
		}
	})

	t.Run("誤ったユーザー名を拒否すること", func(t *testing.T) {
		t.Parallel()
		if verifier.Verify("admin", "pass") {
			t.Error("Verify(admin, pass) = true, want false")
		}
	})
}

// TestAuth はAuthミドルウェアを検証する。
func TestAuth(t *testing.T) {
	t.Parallel()

	t.Run("Basic認証で保護されたエンドポイントにアクセスできること", func(t *testing.T) {
		t.Parallel()
		router := setupAuthRouter(t)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.SetBasicAuth("user", "pass")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
	})

	t.Run("Authorizationヘッダーなしは401になること", func(t *testing.T) {
		t.Parallel()
		router := setupAuthRouter(t)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}
		if got := w.Header().Get("WWW-Authenticate"); got != `Basic realm="bundle"` {
			t.Errorf("WWW-Authenticate = %q, want %q", got, `Basic realm="bundle"`)
		}
	})

	t.Run("誤った資格情報は401になること", func(t *testing.T) {
		t.Parallel()
		router := setupAuthRouter(t)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.SetBasicAuth("user", "wrong")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})

	t.Run("有効なBearerトークンでアクセスできること", func(t *testing.T) {
		t.Parallel()
		router := setupAuthRouter(t)

		token, err := GenerateJWT(testSecret, "user")
		if err != nil {
			t.Fatalf("GenerateJWT()でエラーが発生: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード = %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
		}
	})

	t.Run("異なるシークレットで署名されたトークンは401になること", func(t *testing.T) {
		t.Parallel()
		router := setupAuthRouter(t)

		token, err := GenerateJWT("another-secret", "user")
		if err != nil {
			t.Fatalf("GenerateJWT()でエラーが発生: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})
}

// TestGetUsername はGetUsername関数を検証する。
func TestGetUsername(t *testing.T) {
	t.Parallel()

	t.Run("認証済みコンテキストからユーザー名を取得できること", func(t *testing.T) {
		t.Parallel()

		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set(contextKeyUsername, "user")
		if got := GetUsername(c); got != "user" {
			t.Errorf("GetUsername() = %q, want %q", got, "user")
		}
	})

	t.Run("未認証コンテキストでは空文字列を返すこと", func(t *testing.T) {
		t.Parallel()

		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		if got := GetUsername(c); got != "" {
			t.Errorf("GetUsername() = %q, want 空文字列", got)
		}
	})
}
