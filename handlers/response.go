package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/padraicbc/racingdb/apperr"
	"github.com/padraicbc/racingdb/models"
	"github.com/padraicbc/racingdb/procs"
)

// failure is the body of every unsuccessful response.
type failure struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	Code      string   `json:"code,omitempty"`
	Error     string   `json:"error,omitempty"`
	Missing   []string `json:"missing,omitempty"`
	Invalid   []string `json:"invalid,omitempty"`
	Path      string   `json:"path,omitempty"`
	Method    string   `json:"method,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"`
	Stack     string   `json:"stack,omitempty"`
}

type ownerHorses struct {
	Success       bool        `json:"success"`
	OwnerLastName string      `json:"ownerLastName"`
	Horses        []procs.Row `json:"horses"`
	Count         int         `json:"count"`
}

type trainerList struct {
	Success  bool        `json:"success"`
	Trainers []procs.Row `json:"trainers"`
	Count    int         `json:"count"`
}

type trackList struct {
	Success bool        `json:"success"`
	Tracks  []procs.Row `json:"tracks"`
	Count   int         `json:"count"`
}

type raceAdded struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Race    models.Race `json:"race"`
}

type resultAdded struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Result  models.RaceResult `json:"result"`
}

type ownerDeleted struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	DeletedOwnerID string `json:"deletedOwnerId"`
}

type horseMoved struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	HorseID     string `json:"horseId"`
	NewStableID string `json:"newStableId"`
}

type trainerApproved struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Trainer models.Trainer `json:"trainer"`
}

type horseInfo struct {
	Success bool          `json:"success"`
	Horse   *models.Horse `json:"horse"`
}

// fail renders err as a failure envelope. Classified business and
// validation errors keep their own message; anything else is reported as
// failMsg with the cause in "error".
func (h *Handler) fail(c echo.Context, err error, failMsg string) error {
	cl := apperr.Classify(err)
	resp := failure{Message: cl.Message, Code: cl.Code}

	var verr *apperr.ValidationError
	if errors.As(err, &verr) {
		resp.Missing = verr.Missing
		resp.Invalid = verr.Invalid
	}
	if cl.Internal() {
		resp.Message = failMsg
		resp.Error = cl.Message
		h.log.Error(failMsg,
			zap.Error(err),
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path))
	}
	return c.JSON(cl.Status, resp)
}

func routeNotFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, failure{
		Message: "Route not found",
		Code:    apperr.CodeNotFound,
		Path:    c.Request().URL.RequestURI(),
	})
}
