package routes

import (
	"github.com/DevPar45/eventlinkd/models"
	"github.com/DevPar45/eventlinkd/services"
	"github.com/DevPar45/eventlinkd/storage"
	"github.com/DevPar45/eventlinkd/utils"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

// CreateMessage appends a message from the caller to the receiver, creating
// the chat on first contact.
func CreateMessage(ctx iris.Context) {
	var req CreateMessageInput

	err := ctx.ReadJSON(&req)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	claims := jwt.Get(ctx).(*utils.AccessToken)

	var sender, receiver models.User
	if dbErr := storage.DB.First(&sender, claims.ID).Error; dbErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if dbErr := storage.DB.First(&receiver, req.ReceiverID).Error; dbErr != nil {
		utils.CreateNotFound(ctx)
		return
	}

	message, sendErr := services.Messaging.SendMessage(sender.ID, receiver.ID, sender.Name, receiver.Name, req.Content)
	if sendErr != nil {
		utils.CreateError(iris.StatusInternalServerError, "Message Error", "Failed to send message.", ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(message)
}

// ListMessages: GET /api/messages?chatID=...
func ListMessages(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	chatID, err := ctx.URLParamInt("chatID")
	if err != nil || chatID <= 0 {
		ctx.StatusCode(iris.StatusBadRequest)
		return
	}

	member, memberErr := services.Messaging.IsParticipant(uint(chatID), claims.ID)
	if memberErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if !member {
		ctx.StatusCode(iris.StatusForbidden)
		return
	}

	messages, listErr := services.Messaging.Messages(uint(chatID))
	if listErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"messages": messages})
}

type CreateMessageInput struct {
	ReceiverID uint   `json:"receiverID" validate:"required"`
	Content    string `json:"content" validate:"required,lt=5000"`
}
