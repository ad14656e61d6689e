// Package model はドメインモデルを定義する。
package model

import "time"

// User は食事ノートを記録するユーザーを表す。
// IDは外部に対して不透明な識別子として扱う。
// EmailとNameはログインのたびにIdPの値で更新される。
type User struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName は画面表示用の名前を返す。Nameが空の場合はEmailを使う。
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// Identity は外部IdP（現在はGoogleのみ）とユーザーの紐付けを表す。
type Identity struct {
	ID             string
	UserID         string
	Provider       string
	ProviderUserID string
	CreatedAt      time.Time
}

// Session はサーバー側で管理するログインセッション。
// Cookieには署名済みのIDだけを載せる。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired は指定時刻においてセッションが期限切れかどうかを返す。
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
