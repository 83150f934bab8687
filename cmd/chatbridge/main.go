// Command chatbridge はチャットバックエンドのAPIサーバーを起動する。
//
// 使い方:
//
//	chatbridge [serve|migrate|healthcheck]
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/chatbridge/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "chatbridge: %v\n", err)
		os.Exit(1)
	}
}
