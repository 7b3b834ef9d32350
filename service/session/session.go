package session

import (
	"sync"
	"time"

	"clinical-trials-agent-backend/model"
	"clinical-trials-agent-backend/service/chat"
)

type State string

const (
	// 尚无数据集
	StateIdle State = "idle"
	// 筛选条件已修改，数据集过期
	StateStale State = "stale"
	// 数据集与当前条件一致
	StateLoaded State = "loaded"
	// 模型调用进行中
	StateChatting State = "chatting"
)

type View string

const (
	ViewList   View = "list"
	ViewDetail View = "detail"
)

func (v View) Valid() bool {
	return v == ViewList || v == ViewDetail
}

// workspace 单个视图的状态：筛选条件、数据集对应的对话以及导航标记
type workspace struct {
	state State

	// draft 为用户正在编辑的条件，applied 为产生当前数据集的条件
	draft   model.Query
	applied model.Query

	conversation *chat.Conversation

	// 每次重新播种或清空时递增，用于丢弃过期的模型回复
	generation uint64

	// 模型调用结束后恢复的状态
	resume State

	// 导航进入该视图后首次渲染需强制重新拉取
	navigated bool

	datasetStale bool
	lastError    string
}

func newWorkspace(prompt *chat.PromptTemplate) workspace {
	return workspace{
		state:        StateIdle,
		conversation: chat.NewConversation(prompt),
	}
}

func (w *workspace) reseed(datasetJSON string) {
	w.conversation.Reseed(datasetJSON)
	w.generation++
}

func (w *workspace) resetConversation() {
	w.conversation.Reset()
	w.generation++
}

type ListWorkspace struct {
	workspace
	Trials *model.TrialsResult
}

type DetailWorkspace struct {
	workspace
	Detail *model.StudyDetail
}

// Session 一个浏览会话的全部可变状态，仅通过 Orchestrator 修改
type Session struct {
	ID        string
	CreatedAt time.Time

	mu     sync.Mutex
	view   View
	list   *ListWorkspace
	detail *DetailWorkspace
}

func New(id string) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now(),
		view:      ViewList,
		list:      &ListWorkspace{workspace: newWorkspace(chat.TrialsPrompt)},
		detail:    &DetailWorkspace{workspace: newWorkspace(chat.StudyPrompt)},
	}
}

func (s *Session) current() *workspace {
	if s.view == ViewDetail {
		return &s.detail.workspace
	}
	return &s.list.workspace
}

func (s *Session) busy() bool {
	return s.list.state == StateChatting || s.detail.state == StateChatting
}

// studyOptions 详情页可选的 NCTID，取自列表页已加载的数据集
func (s *Session) studyOptions() []string {
	if s.list.Trials == nil {
		return []string{}
	}
	return s.list.Trials.NCTIDs()
}
