// プロダクトパッケージサービスのエントリポイント。
// 外部カタログの商品を束ねたパッケージのCRUDと、
// 為替レートサービスを使った表示価格の通貨変換を提供する。
package main

import (
	"log"
	"os"

	"github.com/nao1215/bundle/internal/packages"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server, err := packages.NewServer(port)
	if err != nil {
		log.Fatalf("パッケージサーバーの初期化に失敗: %v", err)
	}

	log.Printf("パッケージサービスを起動します: :%s", port)
	if err := server.Run(); err != nil {
		log.Fatalf("パッケージサービスの起動に失敗: %v", err)
	}
}
