package procs

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/padraicbc/racingdb/apperr"
)

// Kind is the primitive type of a procedure parameter.
type Kind int

const (
	String Kind = iota
	Number
)

// Param is one positional procedure parameter.
type Param struct {
	Name string
	Kind Kind
}

// Procedure describes a stored procedure the API calls.
type Procedure struct {
	Name      string
	Params    []Param
	ResultSet bool
}

var (
	OwnerHorsesTrainers = Procedure{
		Name:      "get_owner_horses_trainers",
		Params:    []Param{{"lname", String}},
		ResultSet: true,
	}
	TrainersWithWins = Procedure{
		Name:      "get_trainers_with_wins",
		ResultSet: true,
	}
	TrainerTotalWinnings = Procedure{
		Name:      "get_trainer_total_winnings",
		ResultSet: true,
	}
	TrackStats = Procedure{
		Name:      "get_track_stats",
		ResultSet: true,
	}
	AddRace = Procedure{
		Name: "add_race",
		Params: []Param{
			{"raceId", String}, {"raceName", String}, {"trackName", String}, {"raceDate", String}, {"raceTime", String},
		},
	}
	AddRaceResult = Procedure{
		Name: "add_race_result",
		Params: []Param{
			{"raceId", String}, {"horseId", String}, {"result", String}, {"prize", Number},
		},
	}
	DeleteOwner = Procedure{
		Name:   "delete_owner_and_related",
		Params: []Param{{"ownerId", String}},
	}
	MoveHorseToStable = Procedure{
		Name:   "move_horse_to_stable",
		Params: []Param{{"horseId", String}, {"stableId", String}},
	}
	ApproveTrainer = Procedure{
		Name: "approve_trainer",
		Params: []Param{
			{"trainerId", String}, {"fname", String}, {"lname", String}, {"stableId", String},
		},
	}
)

// All lists every procedure the API depends on.
func All() []Procedure {
	return []Procedure{
		OwnerHorsesTrainers, TrainersWithWins, TrainerTotalWinnings, TrackStats,
		AddRace, AddRaceResult, DeleteOwner, MoveHorseToStable, ApproveTrainer,
	}
}

// Names returns the names of All.
func Names() []string {
	all := All()
	names := make([]string, len(all))
	for i, p := range all {
		names[i] = p.Name
	}
	return names
}

// Statement returns the CALL statement with one placeholder per parameter.
func (p Procedure) Statement() string {
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(p.Params)), ", ")
	return "CALL " + p.Name + "(" + marks + ")"
}

// Coerce converts args to the declared parameter kinds. Strings go through
// cast; numbers become exact decimals with null and blank read as 0.
func (p Procedure) Coerce(args []any) ([]any, error) {
	if len(args) != len(p.Params) {
		return nil, fmt.Errorf("%s takes %d arguments, got %d", p.Name, len(p.Params), len(args))
	}
	out := make([]any, len(args))
	for i, param := range p.Params {
		var err error
		switch param.Kind {
		case Number:
			out[i], err = ToDecimal(args[i])
		default:
			out[i], err = cast.ToStringE(args[i])
		}
		if err != nil {
			return nil, &apperr.ValidationError{
				Message: fmt.Sprintf("%s must be a %s", param.Name, param.Kind),
				Invalid: []string{param.Name},
			}
		}
	}
	return out, nil
}

func (k Kind) String() string {
	if k == Number {
		return "number"
	}
	return "string"
}

// ToDecimal reads a JSON or form value as an exact decimal.
func ToDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case nil:
		return decimal.Zero, nil
	case decimal.Decimal:
		return x, nil
	case json.Number:
		return decimal.NewFromString(x.String())
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(s)
	case float64:
		return decimal.NewFromFloat(x), nil
	case float32:
		return decimal.NewFromFloat32(x), nil
	case bool:
		return decimal.Zero, fmt.Errorf("unable to cast %#v to decimal", v)
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromInt(n), nil
}
