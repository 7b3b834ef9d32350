package registry

import (
	"strings"

	"clinical-trials-agent-backend/model"

	"github.com/tidwall/gjson"
)

// ClinicalTrials.gov v2 研究对象中的字段路径
const (
	pathNCTID          = "protocolSection.identificationModule.nctId"
	pathBriefTitle     = "protocolSection.identificationModule.briefTitle"
	pathOfficialTitle  = "protocolSection.identificationModule.officialTitle"
	pathOverallStatus  = "protocolSection.statusModule.overallStatus"
	pathStartDate      = "protocolSection.statusModule.startDateStruct.date"
	pathCompletionDate = "protocolSection.statusModule.primaryCompletionDateStruct.date"
	pathConditions     = "protocolSection.conditionsModule.conditions"
	pathInterventions  = "protocolSection.armsInterventionsModule.interventions.#.name"
	pathPhases         = "protocolSection.designModule.phases"
	pathStudyType      = "protocolSection.designModule.studyType"
	pathEnrollment     = "protocolSection.designModule.enrollmentInfo.count"
	pathSponsor        = "protocolSection.sponsorCollaboratorsModule.leadSponsor.name"
	pathLocations      = "protocolSection.contactsLocationsModule.locations"
	pathBriefSummary   = "protocolSection.descriptionModule.briefSummary"
	pathDescription    = "protocolSection.descriptionModule.detailedDescription"
	pathEligibility    = "protocolSection.eligibilityModule.eligibilityCriteria"
	pathOutcomes       = "protocolSection.outcomesModule.primaryOutcomes.#.measure"
	pathReferencePMIDs = "protocolSection.referencesModule.references.#.pmid"
)

func parseStudies(body []byte, limit int) (*model.TrialsResult, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrMalformedJSON
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, ErrMalformedJSON
	}
	studies := root.Get("studies")
	if !studies.IsArray() {
		return nil, ErrMalformedJSON
	}

	result := &model.TrialsResult{
		Studies: []model.Trial{},
	}
	for _, s := range studies.Array() {
		if limit > 0 && len(result.Studies) >= limit {
			break
		}
		result.Studies = append(result.Studies, parseTrial(s))
	}

	result.TotalCount = int(root.Get("totalCount").Int())
	if result.TotalCount < len(result.Studies) {
		result.TotalCount = len(result.Studies)
	}
	return result, nil
}

func parseStudyDetail(body []byte) (*model.StudyDetail, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrMalformedJSON
	}

	s := gjson.ParseBytes(body)
	if !s.IsObject() || !s.Get(pathNCTID).Exists() {
		return nil, ErrMalformedJSON
	}

	return &model.StudyDetail{
		Trial:               parseTrial(s),
		DetailedDescription: s.Get(pathDescription).String(),
		EligibilityCriteria: s.Get(pathEligibility).String(),
		PrimaryOutcomes:     stringsOf(s.Get(pathOutcomes)),
		ReferencePMIDs:      stringsOf(s.Get(pathReferencePMIDs)),
	}, nil
}

func parseTrial(s gjson.Result) model.Trial {
	return model.Trial{
		NCTID:          s.Get(pathNCTID).String(),
		Title:          s.Get(pathBriefTitle).String(),
		OfficialTitle:  s.Get(pathOfficialTitle).String(),
		Status:         s.Get(pathOverallStatus).String(),
		Conditions:     stringsOf(s.Get(pathConditions)),
		Interventions:  stringsOf(s.Get(pathInterventions)),
		Phases:         stringsOf(s.Get(pathPhases)),
		StudyType:      s.Get(pathStudyType).String(),
		Sponsor:        s.Get(pathSponsor).String(),
		StartDate:      s.Get(pathStartDate).String(),
		CompletionDate: s.Get(pathCompletionDate).String(),
		Enrollment:     s.Get(pathEnrollment).Int(),
		Locations:      parseLocations(s.Get(pathLocations)),
		BriefSummary:   s.Get(pathBriefSummary).String(),
	}
}

// parseLocations 按 "城市, 国家" 去重，保持原有顺序
func parseLocations(locations gjson.Result) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, loc := range locations.Array() {
		parts := make([]string, 0, 2)
		for _, key := range []string{"city", "country"} {
			if v := loc.Get(key).String(); v != "" {
				parts = append(parts, v)
			}
		}
		name := strings.Join(parts, ", ")
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

func stringsOf(r gjson.Result) []string {
	out := []string{}
	for _, v := range r.Array() {
		if s := v.String(); s != "" {
			out = append(out, s)
		}
	}
	return out
}
