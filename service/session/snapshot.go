package session

import "clinical-trials-agent-backend/model"

// Snapshot 供 UI 渲染的只读视图
type Snapshot struct {
	SessionID string
	View      View
	State     State
	Welcome   bool
	Query     model.Query

	TotalCount   int
	RecordsShown int
	Rows         []model.TableRow

	StudyOptions []string
	Detail       *model.StudyDetail

	// 仅用于展示的用户/助手平行列表
	Past      []string
	Generated []string

	DatasetStale bool
	LastError    string
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() Snapshot {
	w := s.current()
	past, generated := w.conversation.Exchanges()

	return Snapshot{
		SessionID:    s.ID,
		View:         s.view,
		State:        w.state,
		Welcome:      s.view == ViewList && w.state == StateIdle && !w.draft.IsList(),
		Query:        w.draft,
		TotalCount:   totalCount(s.list.Trials),
		RecordsShown: s.list.Trials.RecordsShown(),
		Rows:         s.list.Trials.Table(),
		StudyOptions: s.studyOptions(),
		Detail:       s.detail.Detail,
		Past:         past,
		Generated:    generated,
		DatasetStale: w.datasetStale,
		LastError:    w.lastError,
	}
}

func totalCount(r *model.TrialsResult) int {
	if r == nil {
		return 0
	}
	return r.TotalCount
}
