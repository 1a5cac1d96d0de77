package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/padraicbc/racingdb/procs"
	"github.com/padraicbc/racingdb/validation"
)

// OwnerHorsesTrainers lists the horses and trainers of owners with the given
// last name. An empty name matches every owner.
func (h *Handler) OwnerHorsesTrainers(c echo.Context) error {
	const failMsg = "Failed to fetch horses"
	lname := pathParam(c, "lname")

	in := validation.Input{Params: map[string]string{"lname": lname}}
	if err := validation.Validate(validation.OwnerHorsesTrainers, in).Err(); err != nil {
		return h.fail(c, err, failMsg)
	}

	rows, err := h.gw.Invoke(c.Request().Context(), procs.OwnerHorsesTrainers, lname)
	if err != nil {
		return h.fail(c, err, failMsg)
	}
	return c.JSON(http.StatusOK, ownerHorses{
		Success:       true,
		OwnerLastName: lname,
		Horses:        rows,
		Count:         len(rows),
	})
}

// TrainersWithWins lists trainers with at least one win.
func (h *Handler) TrainersWithWins(c echo.Context) error {
	rows, err := h.gw.Invoke(c.Request().Context(), procs.TrainersWithWins)
	if err != nil {
		return h.fail(c, err, "Failed to fetch trainers with wins")
	}
	return c.JSON(http.StatusOK, trainerList{Success: true, Trainers: rows, Count: len(rows)})
}

// TrainerTotalWinnings lists each trainer's prize total.
func (h *Handler) TrainerTotalWinnings(c echo.Context) error {
	rows, err := h.gw.Invoke(c.Request().Context(), procs.TrainerTotalWinnings)
	if err != nil {
		return h.fail(c, err, "Failed to fetch trainer winnings")
	}
	return c.JSON(http.StatusOK, trainerList{Success: true, Trainers: rows, Count: len(rows)})
}

// TrackStats returns per-track race statistics.
func (h *Handler) TrackStats(c echo.Context) error {
	rows, err := h.gw.Invoke(c.Request().Context(), procs.TrackStats)
	if err != nil {
		return h.fail(c, err, "Failed to fetch track statistics")
	}
	return c.JSON(http.StatusOK, trackList{Success: true, Tracks: rows, Count: len(rows)})
}
