// Package security はアプリケーションのセキュリティ機能を提供する。
//
// PostSanitizerService はプロバイダーから取り込んだ投稿本文をサニタイズし、
// XSS攻撃などのセキュリティリスクからユーザーを保護する。
// bluemondayライブラリを使用した許可リストベースのポリシーで、
// 安全なタグと属性のみを通過させる。
// 保存データは取得時の生JSONのまま保持し、サニタイズはAPI応答の組み立て時に行う。
package security

import (
	"encoding/json"

	"github.com/microcosm-cc/bluemonday"
)

// sanitizedTextFields はプロバイダー投稿のうちサニタイズ対象となる
// トップレベルのテキストフィールド。
// Facebookのfeedではmessage/story、GitHubのイベントでは本文テキストは
// ネストされたペイロード内にあるためここでは対象外。
var sanitizedTextFields = []string{"message", "story"}

// PostSanitizerService は投稿テキストのサニタイズ機能のインターフェースを定義する。
// ユーザードキュメントのAPI応答組み立て時に使用される。
type PostSanitizerService interface {
	// Sanitize はテキストをサニタイズして安全なHTMLを返す。
	// 許可タグ（p, br, a, ul, ol, li, blockquote, pre, code, strong, em）のみを通過させ、
	// script, iframe, styleタグおよびon*イベント属性を除去する。
	// aタグにはtarget="_blank"とrel="noopener noreferrer"が自動付与される。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string

	// SanitizePostData は投稿の生JSONペイロードのうち既知のテキストフィールド
	// （message, story）をサニタイズした複製を返す。
	// 対象フィールドが存在しない場合やJSONとして解釈できない場合は入力をそのまま返す。
	SanitizePostData(data json.RawMessage) json.RawMessage
}

// postSanitizer はPostSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type postSanitizer struct {
	policy *bluemonday.Policy
}

var _ PostSanitizerService = (*postSanitizer)(nil)

// NewPostSanitizer はPostSanitizerServiceの新しいインスタンスを生成する。
// 初期化時にbluemondayのカスタムポリシーを構築する。
// ポリシーの内容:
//   - 許可タグ: p, br, a, ul, ol, li, blockquote, pre, code, strong, em
//   - 禁止タグ: script, iframe, style, img および全てのon*イベント属性
//   - aタグ: target="_blank" と rel="noreferrer noopener" を自動付与
func NewPostSanitizer() *postSanitizer {
	p := bluemonday.NewPolicy()

	// 許可リストに含めないタグ（script, iframe, style, img等）は自動的に除去される。
	// on*イベント属性はbluemondayのデフォルトで許可されないため除去される。
	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em",
	)

	// aタグはhref属性のみ許可し、相対URLは不許可。
	// 全リンクにtarget="_blank"とrel="noreferrer noopener"を強制付与する。
	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	return &postSanitizer{
		policy: p,
	}
}

// Sanitize はテキストをサニタイズして安全なHTMLを返す。
func (s *postSanitizer) Sanitize(raw string) string {
	return s.policy.Sanitize(raw)
}

// SanitizePostData は投稿の生JSONのテキストフィールドをサニタイズした複製を返す。
// 保存済みの生データは変更しない。
func (s *postSanitizer) SanitizePostData(data json.RawMessage) json.RawMessage {
	if len(data) == 0 {
		return data
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(data, &payload); err != nil {
		// 配列やスカラーの場合はテキストフィールドを持たないためそのまま返す
		return data
	}

	changed := false
	for _, field := range sanitizedTextFields {
		raw, ok := payload[field]
		if !ok {
			continue
		}
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			continue
		}
		clean := s.policy.Sanitize(text)
		if clean == text {
			continue
		}
		encoded, err := json.Marshal(clean)
		if err != nil {
			continue
		}
		payload[field] = encoded
		changed = true
	}

	if !changed {
		return data
	}

	out, err := json.Marshal(payload)
	if err != nil {
		return data
	}
	return out
}
