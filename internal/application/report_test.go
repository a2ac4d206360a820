package app

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rescue-bot/internal/domain/entity"
)

const fullReport = `{
  "animal_type": "Dog",
  "breed_guess": "Indian Pariah",
  "injury": "Deep cut on the front left leg",
  "severity": "Medium",
  "environment_factors": "Dusty roadside",
  "person_required": 2,
  "equipments": ["Gauze", "Antiseptic", "Muzzle"],
  "procedure": "Step 1: Approach calmly. Step 2: Clean the wound. Step 3: Apply gauze.",
  "suggestions": "Visit a vet within 24 hours"
}`

func TestReportParser_FencedEqualsBare(t *testing.T) {
	p := NewReportParser()
	payloads := []string{
		fullReport,
		`{"animal_type":"Cat"}`,
		`{}`,
	}
	for _, payload := range payloads {
		bare, err := p.Parse(payload)
		require.NoError(t, err)

		fenced, err := p.Parse("```json\n" + payload + "\n```")
		require.NoError(t, err)
		require.Equal(t, bare, fenced)
	}
}

func TestReportParser_FullReport(t *testing.T) {
	result, err := NewReportParser().Parse(fullReport)
	require.NoError(t, err)

	assert.Equal(t, "Dog", result.AnimalType)
	assert.Equal(t, "Indian Pariah", *result.BreedGuess)
	assert.Equal(t, "Deep cut on the front left leg", result.Injury)
	assert.Equal(t, entity.SeverityMedium, result.Severity)
	assert.Equal(t, "Dusty roadside", *result.EnvironmentFactors)
	assert.Equal(t, "2", *result.PersonnelRequired)
	assert.Equal(t, []string{"Gauze", "Antiseptic", "Muzzle"}, result.Equipment)
	assert.Equal(t, []string{"Approach calmly.", "Clean the wound.", "Apply gauze."}, result.Procedure)
	assert.Equal(t, "Visit a vet within 24 hours", *result.Suggestions)
}

func TestReportParser_MissingOptionalFields(t *testing.T) {
	result, err := NewReportParser().Parse(`{"animal_type":"Bird","injury":"Broken wing"}`)
	require.NoError(t, err)

	assert.Equal(t, "Bird", result.AnimalType)
	assert.Equal(t, "Broken wing", result.Injury)
	assert.Equal(t, entity.SeverityUnknown, result.Severity)
	assert.Nil(t, result.BreedGuess)
	assert.Nil(t, result.EnvironmentFactors)
	assert.Nil(t, result.PersonnelRequired)
	assert.Nil(t, result.Suggestions)
	assert.Nil(t, result.Equipment)
	assert.Nil(t, result.Procedure)
}

func TestReportParser_MandatorySentinels(t *testing.T) {
	result, err := NewReportParser().Parse(`{"severity":"low","animal_type":""}`)
	require.NoError(t, err)
	require.Equal(t, entity.UnknownAnimal, result.AnimalType)
	require.Equal(t, entity.NoInjury, result.Injury)
	require.Equal(t, entity.SeverityLow, result.Severity)
}

func TestReportParser_Severity(t *testing.T) {
	p := NewReportParser()
	cases := map[string]entity.Severity{
		`"HIGH"`:     entity.SeverityHigh,
		`"high"`:     entity.SeverityHigh,
		`"High"`:     entity.SeverityHigh,
		`"critical"`: entity.SeverityUnknown,
		`3`:          entity.SeverityUnknown,
		`null`:       entity.SeverityUnknown,
	}
	for raw, want := range cases {
		result, err := p.Parse(`{"severity":` + raw + `}`)
		require.NoError(t, err, raw)
		require.Equal(t, want, result.Severity, raw)
	}
}

func TestReportParser_MalformedJSON(t *testing.T) {
	p := NewReportParser()
	inputs := []string{
		`{"animal_type": "Dog"`,
		"```json\n{not json}\n```",
		`[1, 2, 3]`,
		`"just a string"`,
		`null`,
		``,
		"The dog looks hurt.",
	}
	for _, raw := range inputs {
		result, err := p.Parse(raw)
		require.Nil(t, result, raw)

		var parseErr *entity.ParseError
		require.True(t, errors.As(err, &parseErr), raw)
		require.Equal(t, raw, parseErr.Raw)
	}
}

func TestReportParser_OnlyExactFenceIsStripped(t *testing.T) {
	// Обёртка без тега json не снимается
	_, err := NewReportParser().Parse("```\n{\"animal_type\":\"Dog\"}\n```")
	var parseErr *entity.ParseError
	require.ErrorAs(t, err, &parseErr)

	// Пробелы вокруг обёртки допустимы
	result, err := NewReportParser().Parse("\n```json\n{\"animal_type\":\"Dog\"}\n```\n")
	require.NoError(t, err)
	require.Equal(t, "Dog", result.AnimalType)
}

func TestReportParser_ProcedureSegments(t *testing.T) {
	p := NewReportParser()

	result, err := p.Parse(`{"procedure":"Step 1: Calm the animal.Step 2:  Step 3: Call a rescuer."}`)
	require.NoError(t, err)
	require.Equal(t, []string{"Calm the animal.", "Call a rescuer."}, result.Procedure)

	result, err = p.Parse(`{"procedure":"Keep the cat warm."}`)
	require.NoError(t, err)
	require.Equal(t, []string{"Keep the cat warm."}, result.Procedure)

	result, err = p.Parse(`{"procedure":["Step 1: Muzzle the dog.", "Step 2: Bandage the leg."]}`)
	require.NoError(t, err)
	require.Equal(t, []string{"Muzzle the dog.", "Bandage the leg."}, result.Procedure)

	result, err = p.Parse(`{"procedure":"Step 1:   "}`)
	require.NoError(t, err)
	require.Nil(t, result.Procedure)
}

func TestReportParser_EquipmentAsString(t *testing.T) {
	result, err := NewReportParser().Parse(`{"equipments":"Gloves, blanket, ,carrier"}`)
	require.NoError(t, err)
	require.Equal(t, []string{"Gloves", "blanket", "carrier"}, result.Equipment)
}

func TestReportParser_WrongTypesAreAbsent(t *testing.T) {
	result, err := NewReportParser().Parse(`{"breed_guess":42,"equipments":{"a":1},"person_required":true,"suggestions":["x"]}`)
	require.NoError(t, err)
	require.Nil(t, result.BreedGuess)
	require.Nil(t, result.Equipment)
	require.Nil(t, result.PersonnelRequired)
	require.Nil(t, result.Suggestions)
}

func TestReportParser_Build(t *testing.T) {
	raw := entity.RawReport{
		ReportData: "```json\n{\"animal_type\":\"Dog\",\"injury\":\"Leg wound\",\"severity\":\"High\"}\n```",
		ReportID:   "3f9c",
		Latitude:   12.9,
		Longitude:  77.5,
	}

	result, err := NewReportParser().Build(raw)
	require.NoError(t, err)
	require.Equal(t, "Dog", result.AnimalType)
	require.Equal(t, "Leg wound", result.Injury)
	require.Equal(t, entity.SeverityHigh, result.Severity)
	require.Equal(t, "3f9c", result.ReportID)
	require.Equal(t, entity.Coordinates{Latitude: 12.9, Longitude: 77.5}, result.Coordinates)

	_, err = NewReportParser().Build(entity.RawReport{ReportData: "oops"})
	require.Equal(t, entity.KindParse, entity.KindOf(err))
}
