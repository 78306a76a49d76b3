// Package model はドメインモデルを定義する。
package model

import "time"

// Provider は連携可能な外部プロバイダー名を表す。
type Provider string

const (
	ProviderFacebook Provider = "facebook"
	ProviderGithub   Provider = "github"
	ProviderGoogle   Provider = "google"
)

// ValidProvider はプロバイダー名が既知の値かを判定する。
func ValidProvider(p string) bool {
	switch Provider(p) {
	case ProviderFacebook, ProviderGithub, ProviderGoogle:
		return true
	}
	return false
}

// AuthClaim はIDサービスが検証した外部プロバイダー上のユーザー識別子を表す。
// ユーザーレコードのupsertキーとして使用する。
type AuthClaim struct {
	ProviderSubjectID string `json:"id"`
	Provider          string `json:"provider"`
}

// SessionClaim は復号済みセッショントークンに埋め込まれたクレーム。
// 永続化されない。形はAuthClaimと同一。
type SessionClaim = AuthClaim

// User はサービス利用ユーザーを表す。
// AuthClaimごとに正確に1レコード存在し、UUIDは作成後不変。
type User struct {
	ID        int64     `json:"-"`
	UUID      string    `json:"uuid"`
	Auth      AuthClaim `json:"auth"`
	CreatedAt time.Time `json:"-"`

	// 以下は関連テーブルから読み込まれる
	Follows   []string       `json:"follows"`
	Posts     []Post         `json:"posts"`
	Providers []ProviderLink `json:"providers"`
}

// ProviderLink はユーザーに紐付いたプロバイダーのアクセス資格情報を表す。
// ユーザーごとプロバイダーごとに最大1件（再リンクはlast-writer-wins）。
type ProviderLink struct {
	Provider    string     `json:"provider"`
	AccessToken string     `json:"accessToken"`
	LastFetch   *time.Time `json:"lastFetch"`
}

// Followable はフォロー候補一覧の1エントリを表す。
type Followable struct {
	UUID      string `json:"uuid"`
	Following bool   `json:"following"`
}
