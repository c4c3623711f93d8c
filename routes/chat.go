package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/DevPar45/eventlinkd/models"
	"github.com/DevPar45/eventlinkd/services"
	"github.com/DevPar45/eventlinkd/storage"
	"github.com/DevPar45/eventlinkd/utils"

	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"
)

// StartChat finds or creates the direct chat between the caller and the other
// participant. Repeated calls return the same chat.
func StartChat(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	var input StartChatInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var caller, other models.User
	if err := storage.DB.First(&caller, claims.ID).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if err := storage.DB.First(&other, input.UserID).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	chat, err := services.Messaging.FindOrCreateChat(caller.ID, other.ID, caller.Name, other.Name)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(chat)
}

func ListChats(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	chats, err := services.Messaging.ChatsFor(claims.ID)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"chats": chats})
}

// MarkChatRead flags the caller's unread messages in the chat and zeroes the
// caller's counter. Idempotent.
func MarkChatRead(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	chatID, ok := chatMembership(ctx, claims.ID)
	if !ok {
		return
	}

	if err := services.Messaging.MarkRead(chatID, claims.ID); err != nil {
		if errors.Is(err, services.ErrChatNotFound) {
			utils.CreateNotFound(ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true})
}

// StreamChatMessages pushes full message snapshots for one chat over SSE. The
// first event is the current snapshot; each mutation pushes a fresh one.
func StreamChatMessages(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	chatID, ok := chatMembership(ctx, claims.ID)
	if !ok {
		return
	}

	updates := make(chan []byte, 8)
	cancel, err := services.Messaging.SubscribeMessages(chatID, func(messages []models.Message) {
		pushSnapshot(updates, messages)
	})
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	defer cancel()

	streamSSE(ctx, updates)
}

// StreamChats pushes the caller's chat list over SSE.
func StreamChats(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	updates := make(chan []byte, 8)
	cancel, err := services.Messaging.SubscribeChats(claims.ID, func(chats []models.Chat) {
		pushSnapshot(updates, chats)
	})
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	defer cancel()

	streamSSE(ctx, updates)
}

// Typing indicator: set a short-lived key in Redis for 5 seconds
func Typing(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	chatID, ok := chatMembership(ctx, claims.ID)
	if !ok {
		return
	}

	key := typingKey(chatID, claims.ID)
	storage.Redis.Set(ctx, key, "1", 5*time.Second)
	ctx.JSON(iris.Map{"success": true})
}

// ListTyping reports which other participants are currently typing.
func ListTyping(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	chatID, ok := chatMembership(ctx, claims.ID)
	if !ok {
		return
	}

	var participants []models.ChatUnread
	if err := storage.DB.Where("chat_id = ?", chatID).Find(&participants).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	typing := []uint{}
	for _, p := range participants {
		if p.UserID == claims.ID {
			continue
		}
		key := typingKey(chatID, p.UserID)
		if val, err := storage.Redis.Get(ctx, key).Result(); err == nil && val == "1" {
			typing = append(typing, p.UserID)
		}
	}
	ctx.JSON(iris.Map{"success": true, "typing": typing})
}

// chatMembership resolves the {id} chat and checks the caller belongs to it.
func chatMembership(ctx iris.Context, userID uint) (uint, bool) {
	chatID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StatusCode(iris.StatusBadRequest)
		return 0, false
	}

	member, err := services.Messaging.IsParticipant(chatID, userID)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return 0, false
	}
	if !member {
		ctx.StopWithStatus(http.StatusForbidden)
		return 0, false
	}
	return chatID, true
}

// pushSnapshot drops the oldest queued snapshot when the consumer lags; every
// payload is a full snapshot, so only the newest matters.
func pushSnapshot(updates chan []byte, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	for {
		select {
		case updates <- b:
			return
		default:
			select {
			case <-updates:
			default:
			}
		}
	}
}

func streamSSE(ctx iris.Context, updates <-chan []byte) {
	ctx.ContentType("text/event-stream")
	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")

	done := ctx.Request().Context().Done()
	for {
		select {
		case <-done:
			return
		case payload := <-updates:
			fmt.Fprintf(ctx.ResponseWriter(), "data: %s\n\n", payload)
			ctx.ResponseWriter().Flush()
		}
	}
}

func typingKey(chatID uint, userID uint) string {
	return fmt.Sprintf("typing:chat:%d:user:%d", chatID, userID)
}

type StartChatInput struct {
	UserID uint `json:"userID" validate:"required"`
}
