// Package validation checks that a request carries every field its stored
// procedure needs before anything is sent to the database.
//
// A required field must be present and truthy the way the browser UI treats
// it: absent, null, "", 0 and false all count as missing. Validation is pure
// and never panics; callers turn a failed Result into a 400.
package validation

import (
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/padraicbc/racingdb/apperr"
	"github.com/padraicbc/racingdb/procs"
)

// Operation names a validated API operation.
type Operation string

const (
	AddRace             Operation = "addRace"
	AddRaceResult       Operation = "addRaceResult"
	DeleteOwner         Operation = "deleteOwner"
	MoveHorseToStable   Operation = "moveHorseToStable"
	ApproveTrainer      Operation = "approveTrainer"
	OwnerHorsesTrainers Operation = "getOwnerHorsesTrainers"
	HorseInfo           Operation = "getHorseInfo"
)

// Input is a request's path parameters and decoded body.
type Input struct {
	Params map[string]string
	Body   map[string]any
}

type presence int

const (
	truthy   presence = iota // present and not a zero value
	defined                  // key present; zero and null are fine
	optional                 // anything, including absent
)

type field struct {
	name     string
	path     bool
	presence presence
	numeric  bool
	// message replaces the operation message when this is the first missing field.
	message string
}

type rule struct {
	fields  []field
	message string
}

var rules = map[Operation]rule{
	AddRace: {
		fields: []field{
			{name: "raceId"}, {name: "raceName"}, {name: "trackName"}, {name: "raceDate"}, {name: "raceTime"},
		},
		message: "All fields are required: raceId, raceName, trackName, raceDate, raceTime",
	},
	AddRaceResult: {
		fields: []field{
			{name: "raceId"}, {name: "horseId"}, {name: "result"},
			{name: "prize", presence: defined, numeric: true},
		},
		message: "All fields are required: raceId, horseId, result, prize",
	},
	DeleteOwner: {
		fields:  []field{{name: "ownerId", path: true}},
		message: "Owner ID is required",
	},
	MoveHorseToStable: {
		fields: []field{
			{name: "horseId", path: true, message: "Horse ID is required"},
			{name: "newStableId", message: "New stable ID is required in request body (newStableId or toStableId)"},
		},
	},
	ApproveTrainer: {
		fields:  []field{{name: "trainerId"}, {name: "stableId"}},
		message: "trainerId and stableId are required",
	},
	HorseInfo: {
		fields:  []field{{name: "horseId", path: true}},
		message: "Horse ID is required",
	},
	// An empty last name is a valid "match every owner" query.
	OwnerHorsesTrainers: {
		fields: []field{{name: "lname", path: true, presence: optional}},
	},
}

var validate = validator.New()

// Result lists what was wrong with an input. The zero value is a pass.
type Result struct {
	Missing []string
	Invalid []string
	message string
}

// OK reports whether the input passed.
func (r Result) OK() bool {
	return len(r.Missing) == 0 && len(r.Invalid) == 0
}

// Message is the user-facing explanation of a failed Result.
func (r Result) Message() string {
	return r.message
}

// Err returns nil for a pass, otherwise an *apperr.ValidationError.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return &apperr.ValidationError{Message: r.message, Missing: r.Missing, Invalid: r.Invalid}
}

// Validate checks in against the fixed field set of op.
func Validate(op Operation, in Input) Result {
	rl, ok := rules[op]
	if !ok {
		return Result{Invalid: []string{"operation"}, message: "unknown operation " + string(op)}
	}

	var res Result
	for _, f := range rl.fields {
		v, present := lookup(in, f)
		switch {
		case f.presence == truthy && !Truthy(v):
			if len(res.Missing) == 0 && f.message != "" {
				res.message = f.message
			}
			res.Missing = append(res.Missing, f.name)
			continue
		case f.presence == defined && !present:
			res.Missing = append(res.Missing, f.name)
			continue
		}
		if f.numeric && present && !isNumeric(v) {
			res.Invalid = append(res.Invalid, f.name)
		}
	}

	switch {
	case len(res.Missing) > 0 && res.message == "":
		res.message = rl.message
	case len(res.Missing) == 0 && len(res.Invalid) > 0:
		res.message = strings.Join(res.Invalid, ", ") + " must be a number"
	}
	return res
}

func lookup(in Input, f field) (any, bool) {
	if f.path {
		v, ok := in.Params[f.name]
		return v, ok
	}
	v, ok := in.Body[f.name]
	return v, ok
}

// Truthy reports whether v counts as supplied: not absent, null, "", 0 or false.
func Truthy(v any) bool {
	return validate.Var(jsValue(v), "required") == nil
}

// isNumeric accepts numbers and numeric strings in the grammar the prize is
// later parsed with, exponents and bare points included. null and "" read
// as 0.
func isNumeric(v any) bool {
	_, err := procs.ToDecimal(v)
	return err == nil
}

func jsValue(v any) any {
	if n, ok := v.(json.Number); ok {
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	}
	return v
}
