package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// headerKeyRequestID はリクエストIDを伝播するためのHTTPヘッダーキー。
const headerKeyRequestID = "X-Request-Id"

// contextKeyRequestID はGinコンテキストにリクエストIDを格納するためのキー。
const contextKeyRequestID = "request_id"

// RequestID はリクエストごとに一意のIDを割り当てるGinミドルウェアを返す。
// クライアントがX-Request-Idヘッダーを指定した場合はその値を引き継ぎ、
// 未指定の場合はUUIDを新規に発行する。レスポンスヘッダーにも同じ値を設定する。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(headerKeyRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(contextKeyRequestID, reqID)
		c.Header(headerKeyRequestID, reqID)
		c.Next()
	}
}

// GetRequestID はGinコンテキストからリクエストIDを取得する。
// RequestIDミドルウェアが事前に適用されている必要がある。
func GetRequestID(c *gin.Context) string {
	reqID, _ := c.Get(contextKeyRequestID)
	if id, ok := reqID.(string); ok {
		return id
	}
	return ""
}
