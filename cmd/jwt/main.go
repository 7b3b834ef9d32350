package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"clinical-trials-agent-backend/utils"
)

// 生成会话令牌签名密钥，输出可直接粘贴到配置文件的 jwt 段
func main() {
	size := flag.Int("bytes", 32, "secret length in bytes")
	flag.Parse()

	if *size < 32 {
		slog.Error("Secret must be at least 32 bytes for HS256", "bytes", *size)
		os.Exit(1)
	}

	secret, err := utils.GenerateSecret(*size)
	if err != nil {
		slog.Error("Error generating secret", "err", err)
		os.Exit(1)
	}

	fmt.Printf("jwt:\n  secret_key: %q\n", secret)
}
