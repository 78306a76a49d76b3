package auth

import "context"

// SubjectResolver はアクセストークンからプロバイダー上のユーザー識別子を
// 解決する。"auth"スコープのストラテジーのみが使用する。
type SubjectResolver interface {
	// ResolveSubject はプロバイダーのユーザー情報エンドポイントを呼び出し、
	// プロバイダーネイティブのユーザーIDを返す。
	ResolveSubject(ctx context.Context, accessToken string) (string, error)
}
