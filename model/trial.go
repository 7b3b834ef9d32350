package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrSerialization = errors.New("failed to serialize dataset")

// Trial 单个试验的扁平记录
type Trial struct {
	NCTID          string   `json:"nctId"`
	Title          string   `json:"briefTitle"`
	OfficialTitle  string   `json:"officialTitle,omitempty"`
	Status         string   `json:"overallStatus"`
	Conditions     []string `json:"conditions"`
	Interventions  []string `json:"interventions"`
	Phases         []string `json:"phases"`
	StudyType      string   `json:"studyType,omitempty"`
	Sponsor        string   `json:"leadSponsor,omitempty"`
	StartDate      string   `json:"startDate,omitempty"`
	CompletionDate string   `json:"primaryCompletionDate,omitempty"`
	Enrollment     int64    `json:"enrollment,omitempty"`
	Locations      []string `json:"locations"`
	BriefSummary   string   `json:"briefSummary,omitempty"`
}

// TrialsResult 一次列表查询的结果。TotalCount 为服务端报告的匹配总数，
// 可能大于实际返回的 Studies 数量
type TrialsResult struct {
	Query      Query   `json:"-"`
	TotalCount int     `json:"totalCount"`
	Studies    []Trial `json:"studies"`
}

func (r *TrialsResult) RecordsShown() int {
	if r == nil {
		return 0
	}
	return len(r.Studies)
}

// NCTIDs 返回结果中的试验编号，用于详情页选择
func (r *TrialsResult) NCTIDs() []string {
	if r == nil {
		return nil
	}
	ids := make([]string, 0, len(r.Studies))
	for _, s := range r.Studies {
		ids = append(ids, s.NCTID)
	}
	return ids
}

// Publication PubMed 文献
type Publication struct {
	Title           string `json:"title"`
	PubMedID        string `json:"pubmed_id"`
	PublicationDate string `json:"publication_date"`
	Abstract        string `json:"abstract"`
	Methods         string `json:"methods"`
	Results         string `json:"results"`
	Conclusions     string `json:"conclusions"`
}

// StudyDetail 单个试验的完整记录及关联文献。Publications 永不为 nil
type StudyDetail struct {
	Trial
	DetailedDescription string        `json:"detailedDescription,omitempty"`
	EligibilityCriteria string        `json:"eligibilityCriteria,omitempty"`
	PrimaryOutcomes     []string      `json:"primaryOutcomes"`
	ReferencePMIDs      []string      `json:"-"`
	Publications        []Publication `json:"pubmedArticles"`
}

// EncodeJSON 将数据集序列化为紧凑 JSON，供 LLM 上下文使用
func EncodeJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return string(data), nil
}

// JSON 只序列化试验列表，不包含查询条件
func (r *TrialsResult) JSON() (string, error) {
	if r == nil || r.Studies == nil {
		return EncodeJSON([]Trial{})
	}
	return EncodeJSON(r.Studies)
}

func (d *StudyDetail) JSON() (string, error) {
	if d == nil {
		return EncodeJSON(nil)
	}
	out := *d
	if out.Publications == nil {
		out.Publications = []Publication{}
	}
	return EncodeJSON(&out)
}
