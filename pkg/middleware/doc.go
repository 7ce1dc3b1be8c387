// Package middleware はHTTPサーバーで共通利用するGinミドルウェアを提供する。
//
// Basic認証・JWT認証、パニックリカバリ、CORS、リクエストID付与など、
// 各エンドポイントに共通する横断的関心事をここに集約する。
package middleware
