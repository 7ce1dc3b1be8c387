package packages

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	_ "modernc.org/sqlite"

	"github.com/nao1215/bundle/internal/currency"
	"github.com/nao1215/bundle/internal/exchangerate"
	"github.com/nao1215/bundle/internal/productcatalog"
	"github.com/nao1215/bundle/pkg/metrics"
	"github.com/nao1215/bundle/pkg/middleware"
)

// Server はパッケージサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// db はSQLiteデータベース接続。
	db *sql.DB
	// service はパッケージのCRUDを担うサービス。
	service *Service
	// verifier はAPIアクセスの資格情報を検証する。
	verifier middleware.CredentialVerifier
	// jwtSecret はJWT署名用の秘密鍵。
	jwtSecret string
	// metrics はHTTPメトリクスの収集先。
	metrics *metrics.ServerMetrics
}

// serviceURLConfig は外部サービスのURL設定。
type serviceURLConfig struct {
	ProductCatalog string
	ExchangeRate   string
}

// NewServer は新しいパッケージサーバーを生成する。
// SQLiteデータベースの初期化とスキーマ適用を行う。
func NewServer(port string) (*Server, error) {
	dbPath := getEnvOr("DB_PATH", "/data/bundle.db?_journal_mode=WAL&_busy_timeout=5000")
	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	store, err := NewSQLiteStore(sqlDB)
	if err != nil {
		return nil, err
	}

	urls := serviceURLConfig{
		ProductCatalog: getEnvOr("PRODUCT_SERVICE_URL", "https://product-service.herokuapp.com"),
		ExchangeRate:   getEnvOr("CURRENCY_SERVICE_URL", "https://api.frankfurter.app"),
	}
	catalog := productcatalog.New(
		urls.ProductCatalog,
		getEnvOr("PRODUCT_SERVICE_USER", "user"),
		getEnvOr("PRODUCT_SERVICE_PASSWORD", "pass"),
	)
	rates := exchangerate.New(urls.ExchangeRate)

	verifier, err := middleware.NewStaticVerifier(
		getEnvOr("BASIC_AUTH_USER", "user"),
		getEnvOr("BASIC_AUTH_PASSWORD", "pass"),
	)
	if err != nil {
		return nil, fmt.Errorf("認証設定の初期化に失敗: %w", err)
	}

	serverMetrics := metrics.NewServerMetrics("packages")

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(gin.Logger())
	router.Use(serverMetrics.Middleware())
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		router.Use(middleware.CORS(strings.Split(origins, ",")))
	}

	s := &Server{
		router:    router,
		port:      port,
		db:        sqlDB,
		service:   NewService(store, catalog, rates),
		verifier:  verifier,
		jwtSecret: getEnvOr("JWT_SECRET", "dev-secret-key"),
		metrics:   serverMetrics,
	}
	s.setupRoutes()

	return s, nil
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	// トークン発行（Basic認証必須）
	auth := s.router.Group("/auth")
	auth.Use(middleware.BasicAuth(s.verifier))
	{
		auth.POST("/token", s.handleIssueToken())
	}

	// パッケージAPI（Basic認証またはBearerトークン必須）
	pkgs := s.router.Group("/packages")
	pkgs.Use(middleware.Auth(s.verifier, s.jwtSecret))
	{
		// パッケージ作成
		pkgs.POST("", s.handleCreate())
		// パッケージ一覧取得
		pkgs.GET("", s.handleList())
		// パッケージ詳細取得（currencyクエリで通貨変換）
		pkgs.GET("/:id", s.handleGetByID())
		// パッケージ更新
		pkgs.PUT("/:id", s.handleUpdate())
		// パッケージ削除
		pkgs.DELETE("/:id", s.handleDelete())
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "packages"})
	})

	// Prometheusメトリクス
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
}

// packageRequest はパッケージ作成・更新リクエストのJSON構造。
type packageRequest struct {
	// Name はパッケージ名。
	Name string `json:"name"`
	// Description はパッケージの説明。
	Description string `json:"description"`
	// ProductIDs は外部カタログの商品IDのリスト。
	ProductIDs []string `json:"productIds"`
}

// handleIssueToken はBasic認証済みユーザーへのJWT発行を処理するハンドラを返す。
func (s *Server) handleIssueToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		username := middleware.GetUsername(c)
		token, err := middleware.GenerateJWT(s.jwtSecret, username)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "トークンの発行に失敗しました"})
			log.Printf("トークン発行エラー: %v", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}

// handleCreate はパッケージ作成を処理するハンドラを返す。
func (s *Server) handleCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req packageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		view, err := s.service.Create(c.Request.Context(), Input{
			Name:        req.Name,
			Description: req.Description,
			ProductIDs:  req.ProductIDs,
		})
		if err != nil {
			s.writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, view)
	}
}

// handleList はパッケージ一覧取得を処理するハンドラを返す。
func (s *Server) handleList() gin.HandlerFunc {
	return func(c *gin.Context) {
		views, err := s.service.List(c.Request.Context())
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, views)
	}
}

// handleGetByID はパッケージ詳細取得を処理するハンドラを返す。
// currencyクエリパラメータが指定された場合は価格をその通貨へ変換する。
// 通貨コードの検証はパッケージの検索より先に行う。
func (s *Server) handleGetByID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parsePackageID(c)
		if !ok {
			return
		}

		currencyCode := c.Query("currency")
		if currencyCode != "" {
			if err := currency.Validate(currencyCode); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			view, err := s.service.GetWithCurrency(c.Request.Context(), id, currencyCode)
			if err != nil {
				s.writeError(c, err)
				return
			}
			c.JSON(http.StatusOK, view)
			return
		}

		view, err := s.service.Get(c.Request.Context(), id)
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

// handleUpdate はパッケージ更新を処理するハンドラを返す。
func (s *Server) handleUpdate() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parsePackageID(c)
		if !ok {
			return
		}

		var req packageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		view, err := s.service.Update(c.Request.Context(), id, Input{
			Name:        req.Name,
			Description: req.Description,
			ProductIDs:  req.ProductIDs,
		})
		if err != nil {
			s.writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, view)
	}
}

// handleDelete はパッケージ削除を処理するハンドラを返す。
// 成功時は200と空ボディを返す。
func (s *Server) handleDelete() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parsePackageID(c)
		if !ok {
			return
		}

		if err := s.service.Delete(c.Request.Context(), id); err != nil {
			s.writeError(c, err)
			return
		}

		c.Status(http.StatusOK)
	}
}

// writeError はサービス層のエラーをHTTPステータスに変換してレスポンスを書き込む。
// 入力不正は400、パッケージ不在は404、それ以外（外部依存の障害など）は500。
func (s *Server) writeError(c *gin.Context, err error) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message})
		return
	}

	var notFoundErr *NotFoundError
	if errors.As(err, &notFoundErr) {
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "外部サービスとの通信に失敗しました"})
	log.Printf("リクエスト処理エラー: %v", err)
}

// parsePackageID はパスパラメータからパッケージIDを取り出す。
// 整数として解釈できない場合は400を書き込み、falseを返す。
func parsePackageID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "パッケージIDは整数で指定してください"})
		return 0, false
	}
	return id, true
}

// getEnvOr は環境変数の値を返し、未設定の場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
