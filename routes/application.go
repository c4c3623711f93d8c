package routes

import (
	"errors"
	"net/http"

	"github.com/DevPar45/eventlinkd/models"
	"github.com/DevPar45/eventlinkd/services"
	"github.com/DevPar45/eventlinkd/storage"
	"github.com/DevPar45/eventlinkd/utils"

	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"
)

// ApplyToEvent creates the caller's pending application for the event.
func ApplyToEvent(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	eventID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StatusCode(iris.StatusBadRequest)
		return
	}

	var input ApplyInput
	if readErr := ctx.ReadJSON(&input); readErr != nil {
		utils.HandleValidationErrors(readErr, ctx)
		return
	}

	var volunteer models.User
	if dbErr := storage.DB.First(&volunteer, claims.ID).Error; dbErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	application, applyErr := services.Applications.Apply(eventID, volunteer.ID, volunteer.Name, volunteer.Email, input.Message)
	if applyErr != nil {
		switch {
		case errors.Is(applyErr, services.ErrEventNotFound):
			utils.CreateNotFound(ctx)
		case errors.Is(applyErr, services.ErrAlreadyApplied):
			utils.CreateError(iris.StatusConflict, "Conflict", "You have already applied to this event.", ctx)
		case errors.Is(applyErr, services.ErrEventCompleted):
			utils.CreateError(iris.StatusConflict, "Conflict", "This event is already completed.", ctx)
		default:
			utils.CreateError(iris.StatusInternalServerError, "Application Error", "Failed to apply.", ctx)
		}
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(application)
}

// ListApplications filters by eventId and/or volunteerId. Organisers see their
// events' applications; volunteers see their own.
func ListApplications(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	eventID, _ := ctx.URLParamInt("eventId")
	volunteerID, _ := ctx.URLParamInt("volunteerId")

	if eventID > 0 {
		var event models.Event
		if err := storage.DB.First(&event, eventID).Error; err != nil {
			utils.CreateNotFound(ctx)
			return
		}
		if event.OrganiserID != claims.ID && uint(volunteerID) != claims.ID {
			ctx.StopWithStatus(http.StatusForbidden)
			return
		}
	} else if uint(volunteerID) != claims.ID {
		ctx.StopWithStatus(http.StatusForbidden)
		return
	}

	applications, err := services.Applications.List(uint(eventID), uint(volunteerID))
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"applications": applications})
}

// SetApplicationStatus is the organiser accept/reject decision.
func SetApplicationStatus(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	applicationID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StatusCode(iris.StatusBadRequest)
		return
	}

	var input SetApplicationStatusInput
	if readErr := ctx.ReadJSON(&input); readErr != nil {
		utils.HandleValidationErrors(readErr, ctx)
		return
	}

	var event models.Event
	if dbErr := storage.DB.First(&event, input.EventID).Error; dbErr != nil {
		utils.CreateNotFound(ctx)
		return
	}
	if event.OrganiserID != claims.ID {
		ctx.StopWithStatus(http.StatusForbidden)
		return
	}

	application, statusErr := services.Applications.SetStatus(applicationID, event.ID, input.Status)
	if statusErr != nil {
		switch {
		case errors.Is(statusErr, services.ErrApplicationNotFound):
			utils.CreateNotFound(ctx)
		case errors.Is(statusErr, services.ErrAlreadyDecided):
			utils.CreateError(iris.StatusConflict, "Conflict", "Application has already been decided.", ctx)
		default:
			utils.CreateError(iris.StatusInternalServerError, "Application Error", "Failed to update application.", ctx)
		}
		return
	}
	utils.Audit(ctx, "application."+input.Status, "application", application.ID, nil, application)

	ctx.JSON(application)
}

type ApplyInput struct {
	Message string `json:"message" validate:"max=2000"`
}

type SetApplicationStatusInput struct {
	EventID uint   `json:"eventID" validate:"required"`
	Status  string `json:"status" validate:"required,oneof=accepted rejected"`
}
