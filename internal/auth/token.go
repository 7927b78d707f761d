package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"golang.org/x/crypto/sha3"
)

// GenerateToken はアカウントに紐付ける不透明なセッショントークンを生成する。
// 暗号論的に安全なノンス・アカウントID・発行時刻を連結しSHA3-512で
// 一方向ダイジェストした値をURLセーフなbase64で符号化する。
// トークンはリダイレクトのクエリパラメータとCookieの両方で運搬されるため、
// パディングなしのURLセーフ符号化を使う。
func GenerateToken(accountID int64) (string, error) {
	nonce := make([]byte, 6)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate token nonce: %w", err)
	}

	base := fmt.Sprintf("%d:%x:%s", accountID, nonce, time.Now().UTC().Format(time.RFC3339Nano))
	sum := sha3.Sum512([]byte(base))

	return base64.RawURLEncoding.EncodeToString(sum[:]), nil
}
