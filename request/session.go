package request

import "clinical-trials-agent-backend/model"

// FiltersRequest 列表页筛选条件
type FiltersRequest struct {
	Condition string   `json:"condition"`
	Treatment string   `json:"treatment"`
	Location  string   `json:"location"`
	Other     string   `json:"other"`
	Statuses  []string `json:"statuses"`
}

func (r FiltersRequest) Query() model.Query {
	statuses := make([]model.Status, 0, len(r.Statuses))
	for _, s := range r.Statuses {
		statuses = append(statuses, model.Status(s))
	}
	return model.Query{
		Condition: r.Condition,
		Treatment: r.Treatment,
		Location:  r.Location,
		Other:     r.Other,
		Statuses:  statuses,
	}
}

// SelectionRequest 详情页选择试验，study_id 为空表示取消选择
type SelectionRequest struct {
	StudyID string `json:"study_id"`
}

type ViewRequest struct {
	View string `json:"view" binding:"required,oneof=list detail"`
}

type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}
