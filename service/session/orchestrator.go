package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"clinical-trials-agent-backend/model"

	"github.com/tmc/langchaingo/schema"
)

var (
	ErrNoDataset    = errors.New("no dataset loaded for the current view")
	ErrBusy         = errors.New("a model call is already in flight for this session")
	ErrInvalidQuery = errors.New("invalid query")
	ErrInvalidView  = errors.New("invalid view")
)

type Registry interface {
	SearchStudies(ctx context.Context, q model.Query) (*model.TrialsResult, error)
	GetStudy(ctx context.Context, nctID string) (*model.StudyDetail, error)
}

// Gateway 的 Complete 不返回错误，失败时给出兜底回复
type Gateway interface {
	Complete(ctx context.Context, history schema.ChatMessageHistory) string
}

// Dataset 可序列化为 LLM 上下文的数据集
type Dataset interface {
	JSON() (string, error)
}

type EncodeFunc func(Dataset) (string, error)

func encodeDataset(d Dataset) (string, error) {
	return d.JSON()
}

type Option func(*Orchestrator)

func WithEncoder(encode EncodeFunc) Option {
	return func(o *Orchestrator) {
		o.encode = encode
	}
}

// Orchestrator 会话状态机，处理 UI 的各类回调
type Orchestrator struct {
	registry Registry
	gateway  Gateway
	encode   EncodeFunc
}

func NewOrchestrator(registry Registry, gateway Gateway, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry: registry,
		gateway:  gateway,
		encode:   encodeDataset,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// OnFilterChange 更新列表页筛选条件。已加载的数据集因此过期时进入 Stale，不触发拉取
func (o *Orchestrator) OnFilterChange(s *Session, q model.Query) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy() {
		return ErrBusy
	}

	q.StudyID = ""
	normalized, err := q.Normalize()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	w := &s.list.workspace
	w.draft = normalized
	switch {
	case w.state == StateLoaded && !normalized.Equal(w.applied):
		w.state = StateStale
	case w.state == StateStale && normalized.Equal(w.applied):
		// 改回已提交的条件，当前数据仍然有效
		w.state = StateLoaded
	}
	return nil
}

// OnSubmitQuery 按当前筛选条件拉取一次数据
func (o *Orchestrator) OnSubmitQuery(ctx context.Context, s *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy() {
		return ErrBusy
	}
	return o.fetchList(ctx, s)
}

// OnSelectionChange 更新详情页选中的试验，并立即拉取详情
func (o *Orchestrator) OnSelectionChange(ctx context.Context, s *Session, studyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy() {
		return ErrBusy
	}

	w := s.detail
	if strings.TrimSpace(studyID) == "" {
		w.draft = model.Query{}
		return o.fetchDetail(ctx, s)
	}

	id, err := model.NormalizeNCTID(studyID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	w.draft = model.Query{StudyID: id}
	if w.state == StateLoaded && w.applied.StudyID == id {
		return nil
	}
	if w.state == StateLoaded {
		w.state = StateStale
	}
	return o.fetchDetail(ctx, s)
}

// OnSendMessage 追加用户消息并调用模型，回复总会作为助手轮次追加。
// 模型调用期间释放会话锁，状态保持为 Chatting
func (o *Orchestrator) OnSendMessage(ctx context.Context, s *Session, text string) (string, error) {
	s.mu.Lock()
	if s.busy() {
		s.mu.Unlock()
		return "", ErrBusy
	}

	w := s.current()
	if w.state == StateIdle {
		s.mu.Unlock()
		return "", ErrNoDataset
	}
	if err := w.conversation.AppendUser(text); err != nil {
		s.mu.Unlock()
		return "", err
	}

	w.resume = w.state
	w.state = StateChatting
	generation := w.generation
	history := w.conversation.Clone()
	s.mu.Unlock()

	reply := o.gateway.Complete(ctx, history)

	s.mu.Lock()
	defer s.mu.Unlock()

	// 调用期间对话已被清空
	if w.generation != generation {
		slog.Info("Conversation reset during model call, reply dropped",
			"session_id", s.ID,
		)
		return reply, nil
	}

	if err := w.conversation.AppendAssistant(reply); err != nil {
		slog.Error("Failed to append assistant reply",
			"session_id", s.ID,
			"err", err,
		)
	}
	w.state = w.resume
	return reply, nil
}

// OnClearConversation 清空当前视图的对话并以最近的数据集重新播种
func (o *Orchestrator) OnClearConversation(s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.current()
	w.resetConversation()
	if w.state == StateChatting {
		w.state = w.resume
	}
}

// Navigate 切换视图。目标视图已有查询条件时，下一次渲染将强制拉取一次
func (o *Orchestrator) Navigate(s *Session, view View) error {
	if !view.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidView, view)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy() {
		return ErrBusy
	}
	if s.view == view {
		return nil
	}

	s.view = view
	w := s.current()
	if view == ViewDetail && w.draft.StudyID == "" {
		if options := s.studyOptions(); len(options) > 0 {
			w.draft = model.Query{StudyID: options[0]}
		}
	}
	if w.draft.IsList() || w.draft.IsDetail() {
		w.navigated = true
	}
	return nil
}

// Render 返回当前快照。导航后的首次渲染会先拉取数据
func (o *Orchestrator) Render(ctx context.Context, s *Session) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.current()
	if !w.navigated || s.busy() {
		return s.snapshot(), nil
	}

	w.navigated = false
	if w.state == StateLoaded {
		w.state = StateStale
	}

	var err error
	if s.view == ViewDetail {
		err = o.fetchDetail(ctx, s)
	} else {
		err = o.fetchList(ctx, s)
	}
	return s.snapshot(), err
}

func (o *Orchestrator) fetchList(ctx context.Context, s *Session) error {
	w := s.list
	if !w.draft.IsList() {
		w.Trials = nil
		w.clear()
		return nil
	}

	result, err := o.registry.SearchStudies(ctx, w.draft)
	if err != nil {
		slog.Error("Failed to fetch trials",
			"session_id", s.ID,
			"condition", w.draft.Condition,
			"err", err,
		)
		w.Trials = nil
		w.fail(err)
		return err
	}

	w.Trials = result
	w.applied = w.draft
	o.load(&w.workspace, result)
	return nil
}

func (o *Orchestrator) fetchDetail(ctx context.Context, s *Session) error {
	w := s.detail
	if !w.draft.IsDetail() {
		w.Detail = nil
		w.clear()
		return nil
	}

	detail, err := o.registry.GetStudy(ctx, w.draft.StudyID)
	if err != nil {
		slog.Error("Failed to fetch study",
			"session_id", s.ID,
			"nct_id", w.draft.StudyID,
			"err", err,
		)
		w.Detail = nil
		w.fail(err)
		return err
	}

	w.Detail = detail
	w.applied = w.draft
	o.load(&w.workspace, detail)
	return nil
}

// load 用新数据集重新播种对话。序列化失败时沿用之前的 JSON 并标记过期
func (o *Orchestrator) load(w *workspace, d Dataset) {
	data, err := o.encode(d)
	if err != nil {
		slog.Warn("Failed to serialize dataset, keeping previous context", "err", err)
		data = w.conversation.Dataset()
		w.datasetStale = true
	} else {
		w.datasetStale = false
	}

	w.reseed(data)
	w.state = StateLoaded
	w.lastError = ""
}

func (w *workspace) clear() {
	w.applied = model.Query{}
	w.state = StateIdle
	w.datasetStale = false
	w.lastError = ""
	w.reseed("")
}

func (w *workspace) fail(err error) {
	w.clear()
	w.lastError = err.Error()
}
