// Package session はIDサービスが発行する暗号化セッショントークンの
// 鍵導出・検証・封入を提供する。
package session

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// keyInfo はHKDFのコンテキストラベル。
// 鍵素材をこのアプリケーションの用途に束縛し、他の用途で発行された
// トークンに対して同じ鍵が成立しないようにする。
const keyInfo = "Off Encryption Key"

// keyLength は導出する対称鍵の長さ（A256GCM用の32バイト）。
const keyLength = 32

// DeriveKey は共有シークレットからHKDF-SHA256で対称鍵を導出する。
// 決定的かつ副作用なし。シークレットが空の場合のみエラーを返す
// （起動時の致命的な設定エラーとして扱う）。
func DeriveKey(secret string) ([]byte, error) {
	if secret == "" {
		return nil, fmt.Errorf("app secret is required")
	}

	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo))
	key := make([]byte, keyLength)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	return key, nil
}
