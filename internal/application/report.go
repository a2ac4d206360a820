package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"rescue-bot/internal/domain/entity"
)

const (
	fenceOpen  = "```json\n"
	fenceClose = "\n```"
)

var (
	stepMarker = regexp.MustCompile(`Step \d+:`)

	errNotObject = errors.New("report is not a JSON object")
)

// ReportParser разбирает текст отчёта, который вернул ИИ.
type ReportParser struct{}

func NewReportParser() *ReportParser {
	return &ReportParser{}
}

// Build разбирает отчёт из ответа сервиса и дополняет его ID и координатами.
func (p *ReportParser) Build(report entity.RawReport) (*entity.AnalysisResult, error) {
	result, err := p.Parse(report.ReportData)
	if err != nil {
		return nil, err
	}
	result.ReportID = report.ReportID
	result.Coordinates = report.Coordinates()
	return result, nil
}

// Parse разбирает JSON отчёта, при необходимости сняв обёртку ```json.
// При любой ошибке возвращает *entity.ParseError и никакого частичного результата.
func (p *ReportParser) Parse(raw string) (*entity.AnalysisResult, error) {
	body := unfence(raw)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return nil, &entity.ParseError{Raw: raw, Err: err}
	}
	// json.Unmarshal принимает null как пустую map
	if fields == nil {
		return nil, &entity.ParseError{Raw: raw, Err: errNotObject}
	}

	result := &entity.AnalysisResult{
		AnimalType:         requiredString(fields, "animal_type", entity.UnknownAnimal),
		BreedGuess:         optionalString(fields, "breed_guess"),
		Injury:             requiredString(fields, "injury", entity.NoInjury),
		Severity:           entity.SeverityUnknown,
		PersonnelRequired:  optionalText(fields, "person_required"),
		EnvironmentFactors: optionalString(fields, "environment_factors"),
		Equipment:          stringList(fields, "equipments"),
		Procedure:          procedureSteps(fields, "procedure"),
		Suggestions:        optionalString(fields, "suggestions"),
	}
	if severity := optionalString(fields, "severity"); severity != nil {
		result.Severity = entity.ParseSeverity(*severity)
	}

	return result, nil
}

// unfence снимает ровно одну обёртку ```json ... ```, если она есть.
func unfence(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, fenceOpen) && strings.HasSuffix(s, fenceClose) && len(s) >= len(fenceOpen)+len(fenceClose) {
		return s[len(fenceOpen) : len(s)-len(fenceClose)]
	}
	return s
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// optionalString возвращает nil, если поля нет, оно пустое или не строка.
func optionalString(fields map[string]json.RawMessage, key string) *string {
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func requiredString(fields map[string]json.RawMessage, key, fallback string) string {
	if s := optionalString(fields, key); s != nil {
		return *s
	}
	return fallback
}

// optionalText принимает строку или число.
func optionalText(fields map[string]json.RawMessage, key string) *string {
	if s := optionalString(fields, key); s != nil {
		return s
	}
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil
	}
	s := strconv.FormatFloat(n, 'f', -1, 64)
	return &s
}

// stringList принимает массив строк или одну строку через запятую.
func stringList(fields map[string]json.RawMessage, key string) []string {
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return nil
	}

	var items []any
	if err := json.Unmarshal(raw, &items); err == nil {
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return emptyToNil(out)
	}

	s := optionalString(fields, key)
	if s == nil {
		return nil
	}
	parts := strings.Split(*s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return emptyToNil(out)
}

// procedureSteps режет текст процедуры по маркерам "Step N:".
func procedureSteps(fields map[string]json.RawMessage, key string) []string {
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return nil
	}

	var items []string
	if err := json.Unmarshal(raw, &items); err == nil {
		var out []string
		for _, item := range items {
			out = append(out, splitSteps(item)...)
		}
		return out
	}

	s := optionalString(fields, key)
	if s == nil {
		return nil
	}
	return splitSteps(*s)
}

func splitSteps(text string) []string {
	segments := stepMarker.Split(text, -1)
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg = strings.TrimSpace(seg); seg != "" {
			out = append(out, seg)
		}
	}
	return emptyToNil(out)
}

func emptyToNil(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}
