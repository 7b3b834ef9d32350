package model

import (
	"fmt"
	"regexp"
	"strings"
)

type Status string

// 注册中心试验状态词表
const (
	StatusActiveNotRecruiting     Status = "ACTIVE_NOT_RECRUITING"
	StatusCompleted               Status = "COMPLETED"
	StatusEnrollingByInvitation   Status = "ENROLLING_BY_INVITATION"
	StatusNotYetRecruiting        Status = "NOT_YET_RECRUITING"
	StatusRecruiting              Status = "RECRUITING"
	StatusSuspended               Status = "SUSPENDED"
	StatusTerminated              Status = "TERMINATED"
	StatusWithdrawn               Status = "WITHDRAWN"
	StatusAvailable               Status = "AVAILABLE"
	StatusNoLongerAvailable       Status = "NO_LONGER_AVAILABLE"
	StatusTemporarilyNotAvailable Status = "TEMPORARILY_NOT_AVAILABLE"
	StatusApprovedForMarketing    Status = "APPROVED_FOR_MARKETING"
	StatusWithheld                Status = "WITHHELD"
	StatusUnknown                 Status = "UNKNOWN"
)

var Statuses = []Status{
	StatusActiveNotRecruiting,
	StatusCompleted,
	StatusEnrollingByInvitation,
	StatusNotYetRecruiting,
	StatusRecruiting,
	StatusSuspended,
	StatusTerminated,
	StatusWithdrawn,
	StatusAvailable,
	StatusNoLongerAvailable,
	StatusTemporarilyNotAvailable,
	StatusApprovedForMarketing,
	StatusWithheld,
	StatusUnknown,
}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

var nctIDPattern = regexp.MustCompile(`^NCT\d{8}$`)

// NormalizeNCTID 去除空白并转为大写，格式非法时返回错误
func NormalizeNCTID(id string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(id))
	if !nctIDPattern.MatchString(normalized) {
		return "", fmt.Errorf("invalid NCTID %q", id)
	}
	return normalized, nil
}

// Query 用户筛选条件。StudyID 非空时为详情查询，其余字段被忽略
type Query struct {
	Condition string   `json:"condition"`
	Treatment string   `json:"treatment"`
	Location  string   `json:"location"`
	Other     string   `json:"other"`
	Statuses  []Status `json:"statuses"`
	StudyID   string   `json:"study_id,omitempty"`
}

func (q Query) IsDetail() bool {
	return q.StudyID != ""
}

// IsList 任一筛选字段非空即为列表查询
func (q Query) IsList() bool {
	if q.IsDetail() {
		return false
	}
	return q.Condition != "" || q.Treatment != "" || q.Location != "" || q.Other != "" || len(q.Statuses) > 0
}

// Normalize 去除首尾空白、状态去重，并校验状态取值
func (q Query) Normalize() (Query, error) {
	out := Query{
		Condition: strings.TrimSpace(q.Condition),
		Treatment: strings.TrimSpace(q.Treatment),
		Location:  strings.TrimSpace(q.Location),
		Other:     strings.TrimSpace(q.Other),
	}

	seen := make(map[Status]bool)
	for _, s := range q.Statuses {
		s = Status(strings.ToUpper(strings.TrimSpace(string(s))))
		if !s.Valid() {
			return Query{}, fmt.Errorf("unknown trial status %q", s)
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		out.Statuses = append(out.Statuses, s)
	}

	if strings.TrimSpace(q.StudyID) != "" {
		id, err := NormalizeNCTID(q.StudyID)
		if err != nil {
			return Query{}, err
		}
		out.StudyID = id
	}
	return out, nil
}

func (q Query) Equal(other Query) bool {
	if q.Condition != other.Condition || q.Treatment != other.Treatment ||
		q.Location != other.Location || q.Other != other.Other || q.StudyID != other.StudyID {
		return false
	}
	if len(q.Statuses) != len(other.Statuses) {
		return false
	}
	for i := range q.Statuses {
		if q.Statuses[i] != other.Statuses[i] {
			return false
		}
	}
	return true
}
