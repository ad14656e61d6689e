// Package identity は外部の認証プロバイダのセッション変化を購読し、
// 現在のユーザーとローディング状態をアプリケーション全体に公開する。
package identity

import (
	"sync"

	"github.com/hitoshi/foodjournal/internal/model"
)

// Provider は認証状態の変化を通知する外部プロバイダ。
// Subscribeは購読解除関数を返す。通知されるユーザーがnilの場合はサインアウトを表す。
type Provider interface {
	Subscribe(fn func(*model.User)) (unsubscribe func())
}

// State は認証状態のスナップショット。
type State struct {
	User    *model.User
	Loading bool
}

// Observer はProviderを購読して認証状態を保持する。
// 書き込みは購読コールバックのみが行い、読み出しは並行に行える。
type Observer struct {
	mu          sync.RWMutex
	state       State
	subscribers []chan State

	closed bool

	unsubscribe func()
	closeOnce   sync.Once
}

// NewObserver はProviderの購読を開始したObserverを返す。
// 最初の通知を受け取るまではLoading=trueとなる。
func NewObserver(p Provider) *Observer {
	o := &Observer{state: State{Loading: true}}
	o.unsubscribe = p.Subscribe(o.handle)
	return o
}

// State は現在の認証状態を返す。
func (o *Observer) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// Changes は状態変化を受け取るチャネルを返す。
// 受信側が追いつかない場合は古い値を捨てて最新の状態を保持する。
// Closeでチャネルは閉じられる。
func (o *Observer) Changes() <-chan State {
	ch := make(chan State, 1)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		close(ch)
		return ch
	}
	o.subscribers = append(o.subscribers, ch)
	return ch
}

// Close は購読を解除する。複数回呼んでも解除は1回だけ行われる。
// 解除後の通知は無視され、State()は最後の状態を返し続ける。
func (o *Observer) Close() {
	o.closeOnce.Do(func() {
		if o.unsubscribe != nil {
			o.unsubscribe()
		}

		o.mu.Lock()
		defer o.mu.Unlock()
		o.closed = true
		for _, ch := range o.subscribers {
			close(ch)
		}
		o.subscribers = nil
	})
}

func (o *Observer) handle(u *model.User) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}

	o.state = State{User: u, Loading: false}
	for _, ch := range o.subscribers {
		select {
		case <-ch:
		default:
		}
		ch <- o.state
	}
}
