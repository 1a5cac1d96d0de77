package models

// Trainer is the payload of approve_trainer. Status is echoed back but never
// reaches the database.
type Trainer struct {
	TrainerID string `json:"trainerId"`
	FName     string `json:"fname"`
	LName     string `json:"lname"`
	StableID  string `json:"stableId"`
	Status    string `json:"status"`
}
