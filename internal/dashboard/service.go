package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/foodjournal/internal/model"
)

// NoteLister はダッシュボードが必要とするノート取得インターフェース。
// repository.NoteRepositoryの部分集合として定義する。
type NoteLister interface {
	ListByUser(ctx context.Context, userID string, filter model.NoteFilter) ([]*model.Note, error)
}

// MetricsRecorder はダッシュボード取得のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordDashboardRequest()
	RecordNotesFetch(duration time.Duration, err error)
}

// ServiceConfig はダッシュボードサービスの設定。
type ServiceConfig struct {
	RecentLimit  int            // アクティビティの表示件数
	Location     *time.Location // 月初判定に使うタイムゾーン
	FetchTimeout time.Duration  // ノート取得のタイムアウト。0は無制限
}

// Service はユーザーのノートを取得してダッシュボードを組み立てる。
type Service struct {
	notes   NoteLister
	metrics MetricsRecorder
	config  ServiceConfig
	now     func() time.Time
}

// NewService はServiceを生成する。metricsはnilでもよい。
func NewService(notes NoteLister, metrics MetricsRecorder, config ServiceConfig) *Service {
	if config.RecentLimit <= 0 {
		config.RecentLimit = DefaultRecentLimit
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	return &Service{
		notes:   notes,
		metrics: metrics,
		config:  config,
		now:     time.Now,
	}
}

// SetClock は現在時刻の取得関数を差し替える。テスト用。
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// GetDashboard はユーザーのノートを1回取得し、集計値と最近のアクティビティを返す。
// 取得に失敗した場合はログに記録し、汎用のNOTES_FETCH_FAILEDエラーを返す。
func (s *Service) GetDashboard(ctx context.Context, userID string) (*model.Dashboard, error) {
	if s.metrics != nil {
		s.metrics.RecordDashboardRequest()
	}

	if s.config.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.FetchTimeout)
		defer cancel()
	}

	start := time.Now()
	notes, err := s.notes.ListByUser(ctx, userID, model.NoteFilter{})
	if s.metrics != nil {
		s.metrics.RecordNotesFetch(time.Since(start), err)
	}
	if err != nil {
		slog.Error("failed to fetch notes for dashboard",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %v", model.NewNotesFetchFailedError(), err)
	}

	now := s.now().In(s.config.Location)
	return &model.Dashboard{
		Stats:          DeriveStats(notes, now),
		RecentActivity: ProjectActivity(notes, s.config.RecentLimit),
	}, nil
}
