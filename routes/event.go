package routes

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/DevPar45/eventlinkd/models"
	"github.com/DevPar45/eventlinkd/storage"
	"github.com/DevPar45/eventlinkd/utils"

	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"
	"gorm.io/datatypes"
)

func CreateEvent(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	var input CreateEventInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var organiser models.User
	if err := storage.DB.First(&organiser, claims.ID).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	event := models.Event{
		OrganiserID:        organiser.ID,
		OrganiserName:      organiser.Name,
		Title:              input.Title,
		Description:        input.Description,
		Category:           input.Category,
		Location:           input.Location,
		Date:               input.Date,
		EndDate:            input.EndDate,
		RequiredVolunteers: input.RequiredVolunteers,
		Status:             models.EventStatusOpen,
		Image:              input.Image,
	}
	if len(input.Requirements) > 0 {
		b, _ := json.Marshal(input.Requirements)
		event.Requirements = datatypes.JSON(b)
	}

	if err := storage.DB.Create(&event).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	event.PopulateVolunteers()
	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(event)
}

// GetEvents lists events with optional organiserId/status/category equality
// filters, most recent event date first.
func GetEvents(ctx iris.Context) {
	q := storage.DB.Model(&models.Event{}).Preload("Applications")

	if organiserID, err := ctx.URLParamInt("organiserId"); err == nil && organiserID > 0 {
		q = q.Where("organiser_id = ?", organiserID)
	}
	if status := ctx.URLParamDefault("status", ""); status != "" {
		q = q.Where("status = ?", status)
	}
	if category := ctx.URLParamDefault("category", ""); category != "" {
		q = q.Where("category = ?", category)
	}

	var events []models.Event
	if err := q.Find(&events).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.After(events[j].Date)
	})
	for i := range events {
		events[i].PopulateVolunteers()
	}

	ctx.JSON(iris.Map{"events": events})
}

func GetEvent(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StatusCode(iris.StatusBadRequest)
		return
	}

	var event models.Event
	if dbErr := storage.DB.Preload("Applications").First(&event, id).Error; dbErr != nil {
		utils.CreateNotFound(ctx)
		return
	}

	event.PopulateVolunteers()
	ctx.JSON(event)
}

func UpdateEvent(ctx iris.Context) {
	event, ok := loadOwnedEvent(ctx)
	if !ok {
		return
	}

	var input UpdateEventInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	updates := map[string]interface{}{}
	if input.Title != nil {
		updates["title"] = *input.Title
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Category != nil {
		updates["category"] = *input.Category
	}
	if input.Location != nil {
		updates["location"] = *input.Location
	}
	if input.Date != nil {
		updates["date"] = *input.Date
	}
	if input.EndDate != nil {
		updates["end_date"] = *input.EndDate
	}
	if input.RequiredVolunteers != nil {
		updates["required_volunteers"] = *input.RequiredVolunteers
	}
	if input.Image != nil {
		updates["image"] = *input.Image
	}
	if input.Requirements != nil {
		b, _ := json.Marshal(input.Requirements)
		updates["requirements"] = datatypes.JSON(b)
	}

	before := *event
	if len(updates) > 0 {
		if err := storage.DB.Model(event).Updates(updates).Error; err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
	}
	utils.Audit(ctx, "event.update", "event", event.ID, before, event)

	event.PopulateVolunteers()
	ctx.JSON(event)
}

// CloseEvent is the organiser's manual open -> closed transition. Completed
// events stay completed.
func CloseEvent(ctx iris.Context) {
	event, ok := loadOwnedEvent(ctx)
	if !ok {
		return
	}

	if event.Status == models.EventStatusCompleted {
		utils.CreateError(iris.StatusConflict, "Conflict", "Event is already completed.", ctx)
		return
	}

	if err := storage.DB.Model(event).Update("status", models.EventStatusClosed).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	utils.Audit(ctx, "event.close", "event", event.ID, nil, nil)

	event.PopulateVolunteers()
	ctx.JSON(event)
}

func DeleteEvent(ctx iris.Context) {
	event, ok := loadOwnedEvent(ctx)
	if !ok {
		return
	}

	if err := storage.DB.Delete(event).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	utils.Audit(ctx, "event.delete", "event", event.ID, event, nil)

	ctx.JSON(iris.Map{"deleted": true})
}

// loadOwnedEvent resolves the {id} event and enforces that the caller is the
// owning organiser. Writes the error response itself when it returns !ok.
func loadOwnedEvent(ctx iris.Context) (*models.Event, bool) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	id, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StatusCode(iris.StatusBadRequest)
		return nil, false
	}

	var event models.Event
	if dbErr := storage.DB.Preload("Applications").First(&event, id).Error; dbErr != nil {
		utils.CreateNotFound(ctx)
		return nil, false
	}

	if event.OrganiserID != claims.ID {
		ctx.StopWithStatus(http.StatusForbidden)
		return nil, false
	}

	return &event, true
}

type CreateEventInput struct {
	Title              string     `json:"title" validate:"required,max=256"`
	Description        string     `json:"description" validate:"required"`
	Category           string     `json:"category" validate:"required,max=64"`
	Location           string     `json:"location" validate:"required,max=256"`
	Date               time.Time  `json:"date" validate:"required"`
	EndDate            *time.Time `json:"endDate"`
	RequiredVolunteers int        `json:"requiredVolunteers" validate:"required,min=1"`
	Image              string     `json:"image"`
	Requirements       []string   `json:"requirements"`
}

type UpdateEventInput struct {
	Title              *string    `json:"title"`
	Description        *string    `json:"description"`
	Category           *string    `json:"category"`
	Location           *string    `json:"location"`
	Date               *time.Time `json:"date"`
	EndDate            *time.Time `json:"endDate"`
	RequiredVolunteers *int       `json:"requiredVolunteers"`
	Image              *string    `json:"image"`
	Requirements       []string   `json:"requirements"`
}
