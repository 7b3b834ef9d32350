package model

import (
	"strconv"
	"strings"
)

const listSeparator = "; "

// TableColumns 表格列顺序
var TableColumns = []string{
	"Nctid",
	"Title",
	"Status",
	"Conditions",
	"Interventions",
	"Phases",
	"Sponsor",
	"StartDate",
	"CompletionDate",
	"Enrollment",
	"Locations",
}

// TableRow 每个试验一行，字段顺序与 TableColumns 一致
type TableRow struct {
	Nctid          string `json:"Nctid"`
	Title          string `json:"Title"`
	Status         string `json:"Status"`
	Conditions     string `json:"Conditions"`
	Interventions  string `json:"Interventions"`
	Phases         string `json:"Phases"`
	Sponsor        string `json:"Sponsor"`
	StartDate      string `json:"StartDate"`
	CompletionDate string `json:"CompletionDate"`
	Enrollment     string `json:"Enrollment"`
	Locations      string `json:"Locations"`
}

func (t Trial) Row() TableRow {
	enrollment := ""
	if t.Enrollment > 0 {
		enrollment = strconv.FormatInt(t.Enrollment, 10)
	}
	return TableRow{
		Nctid:          t.NCTID,
		Title:          t.Title,
		Status:         t.Status,
		Conditions:     strings.Join(t.Conditions, listSeparator),
		Interventions:  strings.Join(t.Interventions, listSeparator),
		Phases:         strings.Join(t.Phases, listSeparator),
		Sponsor:        t.Sponsor,
		StartDate:      t.StartDate,
		CompletionDate: t.CompletionDate,
		Enrollment:     enrollment,
		Locations:      strings.Join(t.Locations, listSeparator),
	}
}

// Table 按结果顺序生成表格行，空结果返回空切片
func (r *TrialsResult) Table() []TableRow {
	if r == nil {
		return []TableRow{}
	}
	rows := make([]TableRow, 0, len(r.Studies))
	for _, s := range r.Studies {
		rows = append(rows, s.Row())
	}
	return rows
}
