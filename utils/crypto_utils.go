package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256Hex 计算字符串的SHA-256哈希值，返回64位小写十六进制字符串
func SHA256Hex(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}
