// Package tui はfoodjournalの端末クライアントを提供する。
// ダッシュボード（集計カードと最近のアクティビティ）、ノート詳細、タグ編集の各画面を持つ。
package tui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hitoshi/foodjournal/internal/api"
	"github.com/hitoshi/foodjournal/internal/identity"
	"github.com/hitoshi/foodjournal/internal/model"
	"github.com/hitoshi/foodjournal/internal/tagedit"
)

// API は端末クライアントが使うAPI呼び出し。*client.Clientが満たす。
type API interface {
	Dashboard(ctx context.Context) (*model.Dashboard, error)
	GetNote(ctx context.Context, noteID string) (*api.NoteDetail, error)
	ReplaceTags(ctx context.Context, noteID string, tags []string) (*model.Note, error)
}

// IdentitySource は認証状態の取得元。*identity.Observerが満たす。
type IdentitySource interface {
	State() identity.State
	Changes() <-chan identity.State
}

// Options はModelの依存関係。
type Options struct {
	API            API
	Identity       IdentitySource
	Navigator      Navigator     // nilの場合はAppNavigator
	Logger         *slog.Logger  // nilの場合はslog.Default()
	RequestTimeout time.Duration // 0の場合は10秒
}

type screen int

const (
	screenDashboard screen = iota
	screenNote
	screenTags
)

// --- メッセージ ---

type identityMsg struct {
	state   identity.State
	ok      bool
	initial bool // Init時のスナップショット。待ち受けを重複させない
}

// dashboardLoadedMsg はダッシュボード取得結果。seqとuserIDで発行元のリクエストを識別する。
type dashboardLoadedMsg struct {
	seq       uint64
	userID    string
	dashboard *model.Dashboard
	err       error
}

type noteLoadedMsg struct {
	seq  uint64
	note *api.NoteDetail
	err  error
}

type tagsSavedMsg struct {
	noteID string
	note   *model.Note
	err    error
}

// Model は端末クライアントのbubbletea.Model。
type Model struct {
	api       API
	identity  IdentitySource
	changes   <-chan identity.State
	navigator Navigator
	logger    *slog.Logger
	timeout   time.Duration

	screen        screen
	width, height int
	errText       string

	// 認証状態
	user        *model.User
	authLoading bool

	// ダッシュボード
	dashboard      *model.Dashboard
	loading        bool
	loadSeq        uint64
	dashboardStale bool
	table          table.Model

	// ノート詳細
	note        *api.NoteDetail
	noteLoading bool
	noteSeq     uint64

	// タグ編集
	tagInput   textinput.Model
	tagEditor  *tagedit.Editor
	tagCursor  int
	pending    []string
	hasPending bool
	// 保存はノートごとに直列化する。キーはノートID
	inflight map[string]bool
	queued   map[string][]string
}

// New はModelを生成する。
func New(opts Options) *Model {
	if opts.Navigator == nil {
		opts.Navigator = AppNavigator{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}

	t := table.New(
		table.WithColumns(activityColumns()),
		table.WithFocused(true),
		table.WithHeight(8),
	)
	t.SetStyles(tableStyles())

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "タグを入力（Enterまたはカンマで確定）"
	ti.CharLimit = 50

	return &Model{
		api:         opts.API,
		identity:    opts.Identity,
		changes:     opts.Identity.Changes(),
		navigator:   opts.Navigator,
		logger:      opts.Logger,
		timeout:     opts.RequestTimeout,
		authLoading: true,
		table:       t,
		tagInput:    ti,
		inflight:    make(map[string]bool),
		queued:      make(map[string][]string),
	}
}

// Run は端末クライアントを起動し、終了するまでブロックする。
// ctxがキャンセルされた場合は正常終了として扱う。
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Init は現在の認証状態の反映と、認証状態変化の待ち受けを開始する。
func (m *Model) Init() tea.Cmd {
	current := m.identity.State()
	return tea.Batch(
		func() tea.Msg { return identityMsg{state: current, ok: true, initial: true} },
		waitForIdentity(m.changes),
	)
}

func waitForIdentity(ch <-chan identity.State) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		return identityMsg{state: st, ok: ok}
	}
}

// Update はメッセージを処理する。
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case identityMsg:
		if !msg.ok {
			return m, nil
		}
		if msg.initial {
			return m, m.applyIdentity(msg.state)
		}
		return m, tea.Batch(m.applyIdentity(msg.state), waitForIdentity(m.changes))

	case dashboardLoadedMsg:
		m.handleDashboardLoaded(msg)
		return m, nil

	case openNoteMsg:
		return m, m.openNote(msg.noteID)

	case navigationErrorMsg:
		m.logger.Warn("navigation to unknown path", slog.String("path", msg.path))
		m.errText = "画面を開けませんでした: " + msg.path
		return m, nil

	case noteLoadedMsg:
		m.handleNoteLoaded(msg)
		return m, nil

	case tagsSavedMsg:
		return m, m.handleTagsSaved(msg)

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.screen {
		case screenTags:
			return m, m.updateTags(msg)
		case screenNote:
			return m, m.updateNote(msg)
		default:
			return m, m.updateDashboard(msg)
		}
	}
	return m, nil
}

// applyIdentity は認証状態を反映する。ユーザーが変わった場合はダッシュボードを取り直す。
// サインアウトした場合は表示中のデータを破棄し、取得中のレスポンスも無効にする。
func (m *Model) applyIdentity(st identity.State) tea.Cmd {
	if st.Loading {
		m.authLoading = true
		return nil
	}
	m.authLoading = false

	prevID := userID(m.user)
	nextID := userID(st.User)
	m.user = st.User

	if prevID == nextID && (m.dashboard != nil || m.loading) {
		return nil
	}

	m.dashboard = nil
	m.note = nil
	m.clearPending()
	clear(m.queued)
	m.screen = screenDashboard
	m.table.SetRows(nil)
	m.errText = ""

	if nextID == "" {
		m.loadSeq++
		m.loading = false
		return nil
	}
	return m.loadDashboard()
}

// loadDashboard は現在のユーザーのダッシュボードを取得するコマンドを返す。
func (m *Model) loadDashboard() tea.Cmd {
	if m.user == nil {
		return nil
	}
	m.loadSeq++
	m.loading = true
	m.dashboardStale = false

	seq, uid := m.loadSeq, m.user.ID
	client, timeout := m.api, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		d, err := client.Dashboard(ctx)
		return dashboardLoadedMsg{seq: seq, userID: uid, dashboard: d, err: err}
	}
}

func (m *Model) handleDashboardLoaded(msg dashboardLoadedMsg) {
	if msg.seq != m.loadSeq || msg.userID != userID(m.user) {
		m.logger.Debug("dropping stale dashboard response",
			slog.Uint64("seq", msg.seq),
			slog.Uint64("current_seq", m.loadSeq),
		)
		return
	}
	m.loading = false

	if msg.err != nil {
		m.logger.Error("failed to load dashboard",
			slog.String("user_id", msg.userID),
			slog.String("error", msg.err.Error()),
		)
		m.errText = errorText(msg.err)
		return
	}

	m.errText = ""
	m.dashboard = msg.dashboard
	m.table.SetRows(activityRows(msg.dashboard.RecentActivity))
	m.table.SetCursor(0)
}

func (m *Model) updateDashboard(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q":
		return tea.Quit
	case "r":
		return m.loadDashboard()
	case "enter":
		if m.dashboard == nil {
			return nil
		}
		i := m.table.Cursor()
		if i < 0 || i >= len(m.dashboard.RecentActivity) {
			return nil
		}
		return m.navigator.Navigate(NotePath(m.dashboard.RecentActivity[i].NoteID))
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return cmd
}

// openNote はノート詳細画面に切り替えて取得を開始する。
func (m *Model) openNote(noteID string) tea.Cmd {
	if m.user == nil {
		return nil
	}
	m.screen = screenNote
	m.note = nil
	m.clearPending()
	m.noteLoading = true
	m.errText = ""
	m.noteSeq++

	seq := m.noteSeq
	client, timeout := m.api, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		n, err := client.GetNote(ctx, noteID)
		return noteLoadedMsg{seq: seq, note: n, err: err}
	}
}

func (m *Model) handleNoteLoaded(msg noteLoadedMsg) {
	if msg.seq != m.noteSeq || m.screen == screenDashboard {
		return
	}
	m.noteLoading = false
	if msg.err != nil {
		m.logger.Error("failed to load note", slog.String("error", msg.err.Error()))
		m.errText = errorText(msg.err)
		return
	}
	m.note = msg.note
}

func (m *Model) updateNote(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q":
		return tea.Quit
	case "esc", "backspace":
		m.screen = screenDashboard
		m.note = nil
		m.clearPending()
		m.errText = ""
		m.noteSeq++
		if m.dashboardStale {
			return m.loadDashboard()
		}
	case "t":
		if m.note != nil {
			return m.openTagEditor()
		}
	}
	return nil
}

func userID(u *model.User) string {
	if u == nil {
		return ""
	}
	return u.ID
}

// errorText はエラーをバナー表示用の文言に変換する。
func errorText(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Action != "" {
			return apiErr.Message + " " + apiErr.Action
		}
		return apiErr.Message
	}
	return "サーバーとの通信に失敗しました。しばらくしてから再度お試しください。"
}
