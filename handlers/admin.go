package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/padraicbc/racingdb/apperr"
	"github.com/padraicbc/racingdb/models"
	"github.com/padraicbc/racingdb/procs"
	"github.com/padraicbc/racingdb/validation"
)

// AddRace creates a race on an existing track.
func (h *Handler) AddRace(c echo.Context) error {
	const failMsg = "Failed to add race"
	body, err := bindBody(c)
	if err != nil {
		return err
	}
	if err := validation.Validate(validation.AddRace, validation.Input{Body: body}).Err(); err != nil {
		return h.fail(c, err, failMsg)
	}

	args, err := procs.AddRace.Coerce(fields(body, "raceId", "raceName", "trackName", "raceDate", "raceTime"))
	if err != nil {
		return h.fail(c, err, failMsg)
	}
	if _, err := h.gw.Invoke(c.Request().Context(), procs.AddRace, args...); err != nil {
		return h.fail(c, err, failMsg)
	}

	s := strs(args)
	return c.JSON(http.StatusCreated, raceAdded{
		Success: true,
		Message: "Race added successfully",
		Race:    models.Race{RaceID: s[0], RaceName: s[1], TrackName: s[2], RaceDate: s[3], RaceTime: s[4]},
	})
}

// AddRaceResult records a horse's finish and prize in a race. Any numeric
// prize is accepted, including zero and negatives.
func (h *Handler) AddRaceResult(c echo.Context) error {
	const failMsg = "Failed to add race result"
	body, err := bindBody(c)
	if err != nil {
		return err
	}
	if err := validation.Validate(validation.AddRaceResult, validation.Input{Body: body}).Err(); err != nil {
		return h.fail(c, err, failMsg)
	}

	args, err := procs.AddRaceResult.Coerce(fields(body, "raceId", "horseId", "result", "prize"))
	if err != nil {
		return h.fail(c, err, failMsg)
	}
	if _, err := h.gw.Invoke(c.Request().Context(), procs.AddRaceResult, args...); err != nil {
		return h.fail(c, err, failMsg)
	}

	s := strs(args)
	return c.JSON(http.StatusCreated, resultAdded{
		Success: true,
		Message: "Race result added successfully",
		Result: models.RaceResult{
			RaceID:  s[0],
			HorseID: s[1],
			Result:  s[2],
			Prize:   json.Number(args[3].(decimal.Decimal).String()),
		},
	})
}

// DeleteOwner removes an owner and, inside the procedure, its ownership links.
func (h *Handler) DeleteOwner(c echo.Context) error {
	const failMsg = "Failed to delete owner"
	ownerID := pathParam(c, "ownerId")

	in := validation.Input{Params: map[string]string{"ownerId": ownerID}}
	if err := validation.Validate(validation.DeleteOwner, in).Err(); err != nil {
		return h.fail(c, err, failMsg)
	}
	if _, err := h.gw.Invoke(c.Request().Context(), procs.DeleteOwner, ownerID); err != nil {
		return h.fail(c, err, failMsg)
	}

	return c.JSON(http.StatusOK, ownerDeleted{
		Success:        true,
		Message:        fmt.Sprintf("Owner %s and all related records deleted successfully", ownerID),
		DeletedOwnerID: ownerID,
	})
}

// MoveHorseToStable moves a horse to another stable. The target may be sent
// as newStableId or toStableId; the first truthy one wins.
func (h *Handler) MoveHorseToStable(c echo.Context) error {
	const failMsg = "Failed to move horse"
	body, err := bindBody(c)
	if err != nil {
		return err
	}
	horseID := pathParam(c, "horseId")
	if !validation.Truthy(body["newStableId"]) {
		if v, ok := body["toStableId"]; ok {
			body["newStableId"] = v
		}
	}

	in := validation.Input{Params: map[string]string{"horseId": horseID}, Body: body}
	if err := validation.Validate(validation.MoveHorseToStable, in).Err(); err != nil {
		return h.fail(c, err, failMsg)
	}

	args, err := procs.MoveHorseToStable.Coerce([]any{horseID, body["newStableId"]})
	if err != nil {
		return h.fail(c, err, failMsg)
	}
	if _, err := h.gw.Invoke(c.Request().Context(), procs.MoveHorseToStable, args...); err != nil {
		return h.fail(c, err, failMsg)
	}

	s := strs(args)
	return c.JSON(http.StatusOK, horseMoved{
		Success:     true,
		Message:     fmt.Sprintf("Horse %s moved to stable %s successfully", s[0], s[1]),
		HorseID:     s[0],
		NewStableID: s[1],
	})
}

// ApproveTrainer assigns a trainer to a stable. Missing names default to
// "First" and "Last"; status defaults to "Approved" and is only echoed.
func (h *Handler) ApproveTrainer(c echo.Context) error {
	const failMsg = "Failed to approve trainer"
	body, err := bindBody(c)
	if err != nil {
		return err
	}
	if err := validation.Validate(validation.ApproveTrainer, validation.Input{Body: body}).Err(); err != nil {
		return h.fail(c, err, failMsg)
	}

	fname := orDefault(body["fname"], "First")
	lname := orDefault(body["lname"], "Last")
	status := orDefault(body["status"], "Approved")

	args, err := procs.ApproveTrainer.Coerce([]any{body["trainerId"], fname, lname, body["stableId"]})
	if err != nil {
		return h.fail(c, err, failMsg)
	}
	statusText, err := cast.ToStringE(status)
	if err != nil {
		return h.fail(c, &apperr.ValidationError{Message: "status must be a string", Invalid: []string{"status"}}, failMsg)
	}
	if _, err := h.gw.Invoke(c.Request().Context(), procs.ApproveTrainer, args...); err != nil {
		return h.fail(c, err, failMsg)
	}

	s := strs(args)
	return c.JSON(http.StatusCreated, trainerApproved{
		Success: true,
		Message: "Trainer approved successfully",
		Trainer: models.Trainer{
			TrainerID: s[0],
			FName:     s[1],
			LName:     s[2],
			StableID:  s[3],
			Status:    statusText,
		},
	})
}

// HorseInfo returns a horse's current stable, or 404.
func (h *Handler) HorseInfo(c echo.Context) error {
	const failMsg = "Failed to fetch horse"
	horseID := pathParam(c, "horseId")

	in := validation.Input{Params: map[string]string{"horseId": horseID}}
	if err := validation.Validate(validation.HorseInfo, in).Err(); err != nil {
		return h.fail(c, err, failMsg)
	}

	horse, err := h.gw.HorseByID(c.Request().Context(), horseID)
	if err != nil {
		return h.fail(c, err, failMsg)
	}
	return c.JSON(http.StatusOK, horseInfo{Success: true, Horse: horse})
}

func fields(body map[string]any, names ...string) []any {
	out := make([]any, len(names))
	for i, n := range names {
		out[i] = body[n]
	}
	return out
}

func strs(vals []any) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i], _ = v.(string)
	}
	return out
}

func orDefault(v any, def string) any {
	if validation.Truthy(v) {
		return v
	}
	return def
}
