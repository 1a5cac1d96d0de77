package models

// Race is the payload of add_race. Date and time are sent in the
// normalized "YYYY-M-D" and "HH:MM" forms.
type Race struct {
	RaceID    string `json:"raceId"`
	RaceName  string `json:"raceName"`
	TrackName string `json:"trackName"`
	RaceDate  string `json:"raceDate"`
	RaceTime  string `json:"raceTime"`
}
