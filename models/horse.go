package models

import "github.com/uptrace/bun"

// Horse is a row of the Horse table. Only horseId and stableId are read
// directly; everything else goes through stored procedures. A horse with
// no stable has a nil StableID and renders "stableId": null.
type Horse struct {
	bun.BaseModel `bun:"table:Horse,alias:h"`

	HorseID   string  `bun:"horseId,pk" json:"horseId"`
	HorseName string  `bun:"horseName" json:"horseName,omitempty"`
	Age       int     `bun:"age" json:"age,omitempty"`
	StableID  *string `bun:"stableId" json:"stableId"`
}
