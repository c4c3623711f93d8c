package services

import (
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"github.com/DevPar45/eventlinkd/models"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrChatNotFound = errors.New("chat not found")

// MessagingService owns the two-party chats: find-or-create, message append,
// unread counters and realtime snapshot delivery to subscribers.
//
// Subscriber callbacks are invoked synchronously with a full snapshot and must
// not block. The initial snapshot is delivered outside the service lock, so a
// freshly registered callback may call back into the service.
type MessagingService struct {
	db  *gorm.DB
	log *zerolog.Logger

	mu       sync.Mutex
	nextSub  uint64
	chatSubs map[uint]map[uint64]*messageSubscriber
	listSubs map[uint]map[uint64]*chatListSubscriber
}

// ready flips once the initial snapshot has been delivered. pending records a
// mutation that landed before that; the subscriber then catches up with one
// fresh snapshot instead of losing the update.
type messageSubscriber struct {
	fn      func([]models.Message)
	ready   bool
	pending bool
}

type chatListSubscriber struct {
	fn      func([]models.Chat)
	ready   bool
	pending bool
}

func NewMessagingService(db *gorm.DB, log *zerolog.Logger) *MessagingService {
	return &MessagingService{
		db:       db,
		log:      log,
		chatSubs: make(map[uint]map[uint64]*messageSubscriber),
		listSubs: make(map[uint]map[uint64]*chatListSubscriber),
	}
}

// FindOrCreateChat returns the one chat for the unordered (userA, userB) pair,
// creating it on first contact. The insert goes through the pair-key unique
// index with an on-conflict no-op, so when both sides race the loser reuses
// the winner's chat.
func (s *MessagingService) FindOrCreateChat(userA, userB uint, nameA, nameB string) (*models.Chat, error) {
	key := models.ChatPairKey(userA, userB)

	var chat models.Chat
	err := s.db.Preload("Unreads").Where("pair_key = ?", key).First(&chat).Error
	if err == nil {
		return &chat, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	participants, _ := json.Marshal([]uint{userA, userB})
	names, _ := json.Marshal([]string{nameA, nameB})
	fresh := models.Chat{
		PairKey:          key,
		Participants:     datatypes.JSON(participants),
		ParticipantNames: datatypes.JSON(names),
	}

	created := false
	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pair_key"}},
			DoNothing: true,
		}).Omit("Unreads").Create(&fresh)
		if res.Error != nil {
			return res.Error
		}
		created = res.RowsAffected > 0

		if err := tx.Where("pair_key = ?", key).First(&chat).Error; err != nil {
			return err
		}
		for _, userID := range []uint{userA, userB} {
			unread := models.ChatUnread{ChatID: chat.ID, UserID: userID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&unread).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if err := s.db.Preload("Unreads").First(&chat, chat.ID).Error; err != nil {
		return nil, err
	}

	if created {
		s.publishChatLists(userA, userB)
	}
	return &chat, nil
}

// SendMessage resolves the chat, appends the message and, in the same
// transaction, refreshes the chat's denormalized last-message fields and
// atomically bumps the receiver's unread counter. A message is never visible
// without its counter update.
func (s *MessagingService) SendMessage(senderID, receiverID uint, senderName, receiverName, content string) (*models.Message, error) {
	chat, err := s.FindOrCreateChat(senderID, receiverID, senderName, receiverName)
	if err != nil {
		return nil, err
	}

	message := models.Message{
		ChatID:       chat.ID,
		SenderID:     senderID,
		ReceiverID:   receiverID,
		SenderName:   senderName,
		ReceiverName: receiverName,
		Content:      content,
		Read:         false,
	}

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&message).Error; err != nil {
			return err
		}
		// Timestamps come from the store write, not the submitting client.
		if err := tx.Model(&models.Chat{}).Where("id = ?", chat.ID).Updates(map[string]interface{}{
			"last_message":      content,
			"last_message_time": message.CreatedAt,
		}).Error; err != nil {
			return err
		}
		res := tx.Model(&models.ChatUnread{}).
			Where("chat_id = ? AND user_id = ?", chat.ID, receiverID).
			UpdateColumn("count", gorm.Expr("count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return tx.Create(&models.ChatUnread{ChatID: chat.ID, UserID: receiverID, Count: 1}).Error
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.publishMessages(chat.ID)
	s.publishChatLists(senderID, receiverID)

	return &message, nil
}

// MarkRead flags every unread message addressed to the user in the chat and
// resets the user's counter to zero. Safe to call repeatedly.
func (s *MessagingService) MarkRead(chatID, userID uint) error {
	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		var chat models.Chat
		if err := tx.Select("id").First(&chat, chatID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrChatNotFound
			}
			return err
		}
		if err := tx.Model(&models.Message{}).
			Where("chat_id = ? AND receiver_id = ? AND read = ?", chatID, userID, false).
			Update("read", true).Error; err != nil {
			return err
		}
		return tx.Model(&models.ChatUnread{}).
			Where("chat_id = ? AND user_id = ?", chatID, userID).
			Update("count", 0).Error
	})
	if txErr != nil {
		return txErr
	}

	s.publishMessages(chatID)
	s.publishChatLists(userID)
	return nil
}

// Messages returns the chat's messages in send order.
func (s *MessagingService) Messages(chatID uint) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.Where("chat_id = ?", chatID).Order("created_at ASC, id ASC").Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// ChatsFor returns the user's chats, most recent activity first; chats with no
// messages yet sort last.
func (s *MessagingService) ChatsFor(userID uint) ([]models.Chat, error) {
	var chats []models.Chat
	err := s.db.
		Joins("JOIN chat_unreads cu ON cu.chat_id = chats.id").
		Where("cu.user_id = ?", userID).
		Preload("Unreads").
		Find(&chats).Error
	if err != nil {
		return nil, err
	}

	sort.SliceStable(chats, func(i, j int) bool {
		ti, tj := chats[i].LastMessageTime, chats[j].LastMessageTime
		if ti == nil {
			return false
		}
		if tj == nil {
			return true
		}
		return ti.After(*tj)
	})
	return chats, nil
}

// IsParticipant reports whether the user belongs to the chat.
func (s *MessagingService) IsParticipant(chatID, userID uint) (bool, error) {
	var unread models.ChatUnread
	err := s.db.Where("chat_id = ? AND user_id = ?", chatID, userID).First(&unread).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// SubscribeMessages registers for full message snapshots of a chat. The
// current snapshot is delivered before any incremental update. The returned
// cancel revokes the subscription; no callback fires after it returns.
func (s *MessagingService) SubscribeMessages(chatID uint, fn func([]models.Message)) (func(), error) {
	snapshot, err := s.Messages(chatID)
	if err != nil {
		return nil, err
	}

	sub := &messageSubscriber{fn: fn}
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	if s.chatSubs[chatID] == nil {
		s.chatSubs[chatID] = make(map[uint64]*messageSubscriber)
	}
	s.chatSubs[chatID][id] = sub
	s.mu.Unlock()

	fn(snapshot)

	s.mu.Lock()
	sub.ready = true
	replay := sub.pending
	sub.pending = false
	s.mu.Unlock()
	if replay {
		if fresh, err := s.Messages(chatID); err == nil {
			fn(fresh)
		}
	}

	return func() {
		s.mu.Lock()
		if subs := s.chatSubs[chatID]; subs != nil {
			delete(subs, id)
			if len(subs) == 0 {
				delete(s.chatSubs, chatID)
			}
		}
		s.mu.Unlock()
	}, nil
}

// SubscribeChats registers for full chat-list snapshots of a user.
func (s *MessagingService) SubscribeChats(userID uint, fn func([]models.Chat)) (func(), error) {
	snapshot, err := s.ChatsFor(userID)
	if err != nil {
		return nil, err
	}

	sub := &chatListSubscriber{fn: fn}
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	if s.listSubs[userID] == nil {
		s.listSubs[userID] = make(map[uint64]*chatListSubscriber)
	}
	s.listSubs[userID][id] = sub
	s.mu.Unlock()

	fn(snapshot)

	s.mu.Lock()
	sub.ready = true
	replay := sub.pending
	sub.pending = false
	s.mu.Unlock()
	if replay {
		if fresh, err := s.ChatsFor(userID); err == nil {
			fn(fresh)
		}
	}

	return func() {
		s.mu.Lock()
		if subs := s.listSubs[userID]; subs != nil {
			delete(subs, id)
			if len(subs) == 0 {
				delete(s.listSubs, userID)
			}
		}
		s.mu.Unlock()
	}, nil
}

func (s *MessagingService) publishMessages(chatID uint) {
	s.mu.Lock()
	hasSubs := len(s.chatSubs[chatID]) > 0
	s.mu.Unlock()
	if !hasSubs {
		return
	}

	snapshot, err := s.Messages(chatID)
	if err != nil {
		s.log.Warn().Err(err).Uint("chatID", chatID).Msg("could not load message snapshot for subscribers")
		return
	}

	s.mu.Lock()
	for _, sub := range s.chatSubs[chatID] {
		if !sub.ready {
			sub.pending = true
			continue
		}
		sub.fn(snapshot)
	}
	s.mu.Unlock()
}

func (s *MessagingService) publishChatLists(userIDs ...uint) {
	for _, userID := range userIDs {
		s.mu.Lock()
		hasSubs := len(s.listSubs[userID]) > 0
		s.mu.Unlock()
		if !hasSubs {
			continue
		}

		snapshot, err := s.ChatsFor(userID)
		if err != nil {
			s.log.Warn().Err(err).Uint("userID", userID).Msg("could not load chat list snapshot for subscribers")
			continue
		}

		s.mu.Lock()
		for _, sub := range s.listSubs[userID] {
			if !sub.ready {
				sub.pending = true
				continue
			}
			sub.fn(snapshot)
		}
		s.mu.Unlock()
	}
}
