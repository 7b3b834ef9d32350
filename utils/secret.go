package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateSecret 生成 n 字节随机密钥，以 URL 安全的 base64 编码返回
func GenerateSecret(n int) (string, error) {
	key := make([]byte, n)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(key), nil
}
