package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery_Kind(t *testing.T) {
	tests := []struct {
		name       string
		query      Query
		wantList   bool
		wantDetail bool
	}{
		{name: "empty", query: Query{}},
		{name: "condition only", query: Query{Condition: "Ovarian Cancer"}, wantList: true},
		{name: "status only", query: Query{Statuses: []Status{StatusRecruiting}}, wantList: true},
		{name: "study id", query: Query{StudyID: "NCT00000001"}, wantDetail: true},
		{name: "study id wins over filters", query: Query{Condition: "x", StudyID: "NCT00000001"}, wantDetail: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantList, tt.query.IsList())
			assert.Equal(t, tt.wantDetail, tt.query.IsDetail())
		})
	}
}

func TestQuery_Normalize(t *testing.T) {
	q, err := Query{
		Condition: "  Ovarian Cancer ",
		Statuses:  []Status{"recruiting", StatusRecruiting, StatusCompleted},
		StudyID:   " nct00000001",
	}.Normalize()
	require.NoError(t, err)

	assert.Equal(t, "Ovarian Cancer", q.Condition)
	assert.Equal(t, []Status{StatusRecruiting, StatusCompleted}, q.Statuses)
	assert.Equal(t, "NCT00000001", q.StudyID)

	_, err = Query{Statuses: []Status{"OPEN"}}.Normalize()
	assert.Error(t, err)

	_, err = Query{StudyID: "12345"}.Normalize()
	assert.Error(t, err)
}

func TestQuery_Equal(t *testing.T) {
	a := Query{Condition: "a", Statuses: []Status{StatusRecruiting}}
	assert.True(t, a.Equal(Query{Condition: "a", Statuses: []Status{StatusRecruiting}}))
	assert.False(t, a.Equal(Query{Condition: "a"}))
	assert.False(t, a.Equal(Query{Condition: "b", Statuses: []Status{StatusRecruiting}}))
}

func TestStatuses_ShouldContainFullVocabulary(t *testing.T) {
	assert.Len(t, Statuses, 14)
	assert.True(t, StatusWithdrawn.Valid())
	assert.True(t, StatusAvailable.Valid())
	assert.False(t, Status("WITHDRAWNAVAILABLE").Valid())
}

func TestTrialsResult_Table(t *testing.T) {
	r := &TrialsResult{
		TotalCount: 42,
		Studies: []Trial{
			{
				NCTID:         "NCT00000001",
				Title:         "A study",
				Status:        "RECRUITING",
				Conditions:    []string{"Ovarian Cancer", "Fallopian Tube Cancer"},
				Interventions: []string{"BLU-222"},
				Phases:        []string{"PHASE1", "PHASE2"},
				Enrollment:    120,
				Locations:     []string{"New York"},
			},
			{NCTID: "NCT00000002", Title: "Another"},
		},
	}

	rows := r.Table()
	require.Len(t, rows, 2)
	assert.Equal(t, "NCT00000001", rows[0].Nctid)
	assert.Equal(t, "Ovarian Cancer; Fallopian Tube Cancer", rows[0].Conditions)
	assert.Equal(t, "PHASE1; PHASE2", rows[0].Phases)
	assert.Equal(t, "120", rows[0].Enrollment)
	assert.Equal(t, "", rows[1].Enrollment)
	assert.Equal(t, 2, r.RecordsShown())
	assert.Equal(t, []string{"NCT00000001", "NCT00000002"}, r.NCTIDs())

	var nilResult *TrialsResult
	assert.Empty(t, nilResult.Table())
	assert.NotNil(t, nilResult.Table())
	assert.Equal(t, 0, nilResult.RecordsShown())
}

func TestTrialsResult_JSON_ShouldBeDeterministicAndExcludeQuery(t *testing.T) {
	r := &TrialsResult{
		Query:      Query{Condition: "secret filter"},
		TotalCount: 1,
		Studies:    []Trial{{NCTID: "NCT00000001", Title: "A study"}},
	}

	first, err := r.JSON()
	require.NoError(t, err)
	second, err := r.JSON()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, first, `"nctId":"NCT00000001"`)
	assert.NotContains(t, first, "secret filter")

	empty, err := (&TrialsResult{}).JSON()
	require.NoError(t, err)
	assert.Equal(t, "[]", empty)
}

func TestStudyDetail_JSON_ShouldRenderEmptyPublications(t *testing.T) {
	d := &StudyDetail{Trial: Trial{NCTID: "NCT00000001", Title: "A study", BriefSummary: "Summary"}}

	out, err := d.JSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "A study", decoded["briefTitle"])
	assert.Equal(t, "Summary", decoded["briefSummary"])
	assert.Equal(t, []any{}, decoded["pubmedArticles"])
	assert.Nil(t, d.Publications)
}

func TestEncodeJSON_WhenUnsupported_ShouldWrapSerializationError(t *testing.T) {
	_, err := EncodeJSON(map[string]any{"bad": make(chan int)})
	assert.ErrorIs(t, err, ErrSerialization)
}
