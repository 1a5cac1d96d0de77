package validation

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padraicbc/racingdb/apperr"
)

func body(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i].(string)] = kv[i+1]
	}
	return m
}

func TestAddRaceEachFieldRequired(t *testing.T) {
	full := body("raceId", "race37", "raceName", "Dubai Cup", "trackName", "Dubai", "raceDate", "2025-11-01", "raceTime", "14:00")
	require.True(t, Validate(AddRace, Input{Body: full}).OK())

	for _, name := range []string{"raceId", "raceName", "trackName", "raceDate", "raceTime"} {
		t.Run(name, func(t *testing.T) {
			b := make(map[string]any, len(full))
			for k, v := range full {
				if k != name {
					b[k] = v
				}
			}
			res := Validate(AddRace, Input{Body: b})
			assert.False(t, res.OK())
			assert.Equal(t, []string{name}, res.Missing)
			assert.Equal(t, "All fields are required: raceId, raceName, trackName, raceDate, raceTime", res.Message())
		})
	}
}

func TestFalsyValuesAreMissing(t *testing.T) {
	for _, v := range []any{nil, "", json.Number("0"), float64(0), false} {
		res := Validate(ApproveTrainer, Input{Body: body("trainerId", v, "stableId", "stable1")})
		assert.Equal(t, []string{"trainerId"}, res.Missing, "value %#v", v)
	}
	res := Validate(ApproveTrainer, Input{Body: body("trainerId", json.Number("9"), "stableId", "stable1")})
	assert.True(t, res.OK())
}

func TestAddRaceResultPrize(t *testing.T) {
	base := func(prize ...any) map[string]any {
		b := body("raceId", "race37", "horseId", "horse1", "result", "first")
		if len(prize) > 0 {
			b["prize"] = prize[0]
		}
		return b
	}

	tests := []struct {
		name    string
		body    map[string]any
		ok      bool
		missing []string
		invalid []string
	}{
		{name: "zero prize", body: base(json.Number("0")), ok: true},
		{name: "negative prize", body: base(json.Number("-500")), ok: true},
		{name: "numeric string", body: base(" 1500.50 "), ok: true},
		{name: "exponent string", body: base("1e5"), ok: true},
		{name: "leading point string", body: base(".5"), ok: true},
		{name: "trailing point string", body: base("5."), ok: true},
		{name: "exponent number", body: base(json.Number("1e5")), ok: true},
		{name: "null prize", body: base(nil), ok: true},
		{name: "absent prize", body: base(), missing: []string{"prize"}},
		{name: "text prize", body: base("lots"), invalid: []string{"prize"}},
		{name: "bool prize", body: base(true), invalid: []string{"prize"}},
		{name: "two points", body: base("1.2.3"), invalid: []string{"prize"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(AddRaceResult, Input{Body: tt.body})
			assert.Equal(t, tt.ok, res.OK())
			assert.Equal(t, tt.missing, res.Missing)
			assert.Equal(t, tt.invalid, res.Invalid)
		})
	}

	res := Validate(AddRaceResult, Input{Body: base("lots")})
	assert.Equal(t, "prize must be a number", res.Message())
}

func TestMoveHorseMessages(t *testing.T) {
	res := Validate(MoveHorseToStable, Input{Params: map[string]string{"horseId": ""}, Body: body("newStableId", "stable2")})
	assert.Equal(t, []string{"horseId"}, res.Missing)
	assert.Equal(t, "Horse ID is required", res.Message())

	res = Validate(MoveHorseToStable, Input{Params: map[string]string{"horseId": "horse1"}, Body: body()})
	assert.Equal(t, []string{"newStableId"}, res.Missing)
	assert.Equal(t, "New stable ID is required in request body (newStableId or toStableId)", res.Message())

	res = Validate(MoveHorseToStable, Input{Params: map[string]string{"horseId": "horse1"}, Body: body("newStableId", "stable2")})
	assert.True(t, res.OK())
}

func TestDeleteOwner(t *testing.T) {
	assert.True(t, Validate(DeleteOwner, Input{Params: map[string]string{"ownerId": "owner1"}}).OK())

	res := Validate(DeleteOwner, Input{})
	assert.Equal(t, []string{"ownerId"}, res.Missing)
	assert.Equal(t, "Owner ID is required", res.Message())
}

func TestHorseInfo(t *testing.T) {
	assert.True(t, Validate(HorseInfo, Input{Params: map[string]string{"horseId": "horse1"}}).OK())

	res := Validate(HorseInfo, Input{Params: map[string]string{"horseId": ""}})
	assert.Equal(t, []string{"horseId"}, res.Missing)
	assert.Equal(t, "Horse ID is required", res.Message())
}

func TestOwnerHorsesEmptyNameIsAFilter(t *testing.T) {
	assert.True(t, Validate(OwnerHorsesTrainers, Input{Params: map[string]string{"lname": ""}}).OK())
	assert.True(t, Validate(OwnerHorsesTrainers, Input{}).OK())
}

func TestErr(t *testing.T) {
	assert.NoError(t, Validate(DeleteOwner, Input{Params: map[string]string{"ownerId": "owner1"}}).Err())

	err := Validate(DeleteOwner, Input{}).Err()
	var verr *apperr.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"ownerId"}, verr.Missing)
	assert.Equal(t, 400, apperr.Classify(err).Status)
}

func TestUnknownOperation(t *testing.T) {
	res := Validate(Operation("dropTables"), Input{})
	assert.False(t, res.OK())
	assert.Equal(t, []string{"operation"}, res.Invalid)
}
