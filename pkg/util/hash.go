package util

import (
	"crypto/md5"
	"encoding/hex"
)

// EncodeMD5 对内容进行 MD5 编码，返回 32 位十六进制字符串
func EncodeMD5(b []byte) string {
	h := md5.Sum(b)
	return hex.EncodeToString(h[:])
}
