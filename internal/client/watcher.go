package client

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/foodjournal/internal/model"
)

// UserFetcher は現在のユーザーを返す。*Clientが満たす。
type UserFetcher interface {
	Me(ctx context.Context) (*model.User, error)
}

// SessionWatcher は/auth/meを定期的に問い合わせ、ユーザーの変化を購読者に通知する。
// identity.Providerを満たす。
type SessionWatcher struct {
	fetcher  UserFetcher
	interval time.Duration
	logger   *slog.Logger
}

// NewSessionWatcher はSessionWatcherを生成する。
func NewSessionWatcher(fetcher UserFetcher, interval time.Duration, logger *slog.Logger) *SessionWatcher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionWatcher{fetcher: fetcher, interval: interval, logger: logger}
}

// Subscribe はポーリングを開始し、最初の問い合わせ結果と以降のユーザー変化をfnに通知する。
// 通信エラーの間は直前の状態を維持する。最初の問い合わせが失敗した場合は未ログインとして通知する。
// 返される関数はポーリングを停止し、goroutineの終了を待つ。
func (w *SessionWatcher) Subscribe(fn func(*model.User)) func() {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		var (
			last      *model.User
			delivered bool
		)
		poll := func() {
			u, err := w.fetcher.Me(ctx)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				w.logger.Warn("failed to check session", slog.String("error", err.Error()))
				if delivered {
					return
				}
				u = nil
			}
			if delivered && sameUser(last, u) {
				return
			}
			last, delivered = u, true
			fn(u)
		}

		poll()

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				poll()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			wg.Wait()
		})
	}
}

func sameUser(a, b *model.User) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID && a.Name == b.Name && a.Email == b.Email
}
