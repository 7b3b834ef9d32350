package response

import (
	"clinical-trials-agent-backend/model"
	"clinical-trials-agent-backend/service/session"
)

type CreateSessionResponse struct {
	Token    string           `json:"token"`
	Snapshot SnapshotResponse `json:"snapshot"`
}

// TranscriptResponse 用户与助手消息的平行列表
type TranscriptResponse struct {
	Past      []string `json:"past"`
	Generated []string `json:"generated"`
}

type SnapshotResponse struct {
	SessionID    string             `json:"session_id"`
	View         string             `json:"view"`
	State        string             `json:"state"`
	Welcome      bool               `json:"welcome"`
	Query        model.Query        `json:"query"`
	TotalCount   int                `json:"total_count"`
	RecordsShown int                `json:"records_shown"`
	Columns      []string           `json:"columns"`
	Rows         []model.TableRow   `json:"rows"`
	StudyOptions []string           `json:"study_options"`
	Detail       *model.StudyDetail `json:"detail"`
	Transcript   TranscriptResponse `json:"transcript"`
	DatasetStale bool               `json:"dataset_stale"`
	LastError    string             `json:"last_error,omitempty"`
}

func NewSnapshotResponse(s session.Snapshot) SnapshotResponse {
	return SnapshotResponse{
		SessionID:    s.SessionID,
		View:         string(s.View),
		State:        string(s.State),
		Welcome:      s.Welcome,
		Query:        s.Query,
		TotalCount:   s.TotalCount,
		RecordsShown: s.RecordsShown,
		Columns:      model.TableColumns,
		Rows:         s.Rows,
		StudyOptions: s.StudyOptions,
		Detail:       s.Detail,
		Transcript: TranscriptResponse{
			Past:      s.Past,
			Generated: s.Generated,
		},
		DatasetStale: s.DatasetStale,
		LastError:    s.LastError,
	}
}

type ChatResponse struct {
	Reply    string           `json:"reply"`
	Snapshot SnapshotResponse `json:"snapshot"`
}

type GetStatusesResponse struct {
	Statuses []string `json:"statuses"`
}
