package session

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/hitoshi/offapi/internal/model"
)

// bearerPrefix はAuthorizationヘッダーのスキームプレフィックス。
const bearerPrefix = "Bearer "

// tokenClaims はJWEペイロードのエンベロープ。
// セッションデータは"data"フィールドに入る（IDサービス側の発行形式に合わせる）。
type tokenClaims struct {
	Data model.SessionClaim `json:"data"`
	IAT  int64              `json:"iat,omitempty"`
	EXP  int64              `json:"exp,omitempty"`
}

// Codec は導出済みの対称鍵でセッショントークンを検証・封入する。
// 鍵は起動時に1回導出され、以降イミュータブル。
type Codec struct {
	key []byte
}

// NewCodec は共有シークレットから鍵を導出してCodecを生成する。
func NewCodec(secret string) (*Codec, error) {
	key, err := DeriveKey(secret)
	if err != nil {
		return nil, err
	}
	return &Codec{key: key}, nil
}

// Verify は暗号化セッショントークンを復号・検証してクレームを返す。
// "Bearer "プレフィックスが付いている場合は取り除く。
// トークン欠落・復号失敗・改ざん・期限切れ・クレーム不正のいずれも
// 区別せずUnauthenticatedとして失敗する（fail closed）。
func (c *Codec) Verify(rawToken string) (model.SessionClaim, error) {
	token := strings.TrimPrefix(rawToken, bearerPrefix)
	if token == "" {
		return model.SessionClaim{}, model.NewUnauthenticatedError()
	}

	obj, err := jose.ParseEncrypted(token,
		[]jose.KeyAlgorithm{jose.DIRECT},
		[]jose.ContentEncryption{jose.A256GCM},
	)
	if err != nil {
		return model.SessionClaim{}, model.NewUnauthenticatedError()
	}

	plaintext, err := obj.Decrypt(c.key)
	if err != nil {
		return model.SessionClaim{}, model.NewUnauthenticatedError()
	}

	var claims tokenClaims
	if err := json.Unmarshal(plaintext, &claims); err != nil {
		return model.SessionClaim{}, model.NewUnauthenticatedError()
	}

	if claims.EXP > 0 && time.Now().Unix() >= claims.EXP {
		return model.SessionClaim{}, model.NewUnauthenticatedError()
	}

	if claims.Data.ProviderSubjectID == "" || claims.Data.Provider == "" {
		return model.SessionClaim{}, model.NewUnauthenticatedError()
	}

	return claims.Data, nil
}

// Seal はクレームを暗号化セッショントークン（コンパクトJWE）に封入する。
// establish-identityコールバックのセッション発行と、検証のラウンドトリップ
// テストで使用する。ttlが0の場合は有効期限を設定しない。
func (c *Codec) Seal(claim model.SessionClaim, ttl time.Duration) (string, error) {
	claims := tokenClaims{
		Data: claim,
		IAT:  time.Now().Unix(),
	}
	if ttl > 0 {
		claims.EXP = time.Now().Add(ttl).Unix()
	}

	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("failed to marshal claims: %w", err)
	}

	enc, err := jose.NewEncrypter(
		jose.A256GCM,
		jose.Recipient{Algorithm: jose.DIRECT, Key: c.key},
		nil,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create encrypter: %w", err)
	}

	obj, err := enc.Encrypt(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt claims: %w", err)
	}

	token, err := obj.CompactSerialize()
	if err != nil {
		return "", fmt.Errorf("failed to serialize token: %w", err)
	}

	return token, nil
}
