package models

import "encoding/json"

// RaceResult is the payload of add_race_result. Prize is the exact decimal
// text sent to the database, rendered as a JSON number.
type RaceResult struct {
	RaceID  string      `json:"raceId"`
	HorseID string      `json:"horseId"`
	Result  string      `json:"result"`
	Prize   json.Number `json:"prize"`
}
