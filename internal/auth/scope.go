// Package auth はスコープ分離されたOAuthフロー（認証とプロバイダーリンク）を提供する。
//
// 同じプロバイダープラグインを2つの独立したストラテジーレジストリが共有する。
// "auth"スコープの成功ペイロードはIdentityResult（セッションの元になるクレーム）、
// "adapter"スコープの成功ペイロードはLinkResult（アクセストークンのみ）で、
// コールバックルートも成功ペイロードの型も決して共有しない。これにより
// プロバイダーリンクのコールバックをセッション発行コールバックとして
// リプレイすることを型レベルで防ぐ。
package auth

import (
	"github.com/hitoshi/offapi/internal/model"
)

// Scope はOAuthフローの目的タグを表す。
type Scope string

const (
	// ScopeAuth は「自分のアイデンティティを確立する」フロー。
	// 成功するとIdentityResultを生成し、セッション発行につながる。
	ScopeAuth Scope = "auth"
	// ScopeAdapter は「このプロバイダーのデータアクセスをリンクする」フロー。
	// 成功するとLinkResult（アクセストークンのみ）を生成する。
	ScopeAdapter Scope = "adapter"
)

// ValidScope はスコープ値が既知の値かを判定する。
func ValidScope(s string) bool {
	switch Scope(s) {
	case ScopeAuth, ScopeAdapter:
		return true
	}
	return false
}

// IdentityResult は"auth"スコープのコールバック成功ペイロード。
// この形がそのままSessionClaimとしてIDサービスのセッションに書き込まれる。
type IdentityResult struct {
	ProviderSubjectID string
	Provider          string
}

// Claim はIdentityResultをSessionClaimに変換する。
func (r IdentityResult) Claim() model.SessionClaim {
	return model.SessionClaim{
		ProviderSubjectID: r.ProviderSubjectID,
		Provider:          r.Provider,
	}
}

// LinkResult は"adapter"スコープのコールバック成功ペイロード。
// 意図的にアイデンティティ情報を含まない。リンクフローからセッションを
// 発行することはできない。
type LinkResult struct {
	AccessToken string
}
