package session

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/syncroom/server/internal/domain"
)

type ChatMessageParams struct {
	IdentityId string
	RoomId     string
	Text       string
}

// SendChatMessage appends to the room's in-memory history ring and
// returns the message for broadcast. History is capped and not durable.
func (s *service) SendChatMessage(ctx context.Context, params *ChatMessageParams) (ChatMessageResponse, error) {
	ident, err := s.identities.ById(params.IdentityId)
	if err != nil {
		return ChatMessageResponse{}, err
	}
	if !ident.Permissions.SendMessages {
		return ChatMessageResponse{}, domain.ErrPermissionDenied
	}

	text := strings.TrimSpace(params.Text)
	if text == "" {
		return ChatMessageResponse{}, domain.NewError(domain.KindValidation, "message must not be empty")
	}

	msg := domain.ChatMessage{
		Id:          uuid.NewString(),
		IdentityId:  ident.Id,
		DisplayName: ident.DisplayName,
		Text:        text,
		SentAt:      time.Now(),
	}

	rs := s.lockRoom(params.RoomId)
	rs.chat = append(rs.chat, msg)
	if len(rs.chat) > s.cfg.ChatHistoryLimit {
		rs.chat = rs.chat[len(rs.chat)-s.cfg.ChatHistoryLimit:]
	}
	rs.mu.Unlock()

	return ChatMessageResponse{
		Message: msg,
		Conns:   s.connsForRoom(params.RoomId, ""),
	}, nil
}

type DeleteChatMessageParams struct {
	IdentityId string
	RoomId     string
	MessageId  string
}

func (s *service) DeleteChatMessage(ctx context.Context, params *DeleteChatMessageParams) (DeleteChatMessageResponse, error) {
	ident, err := s.identities.ById(params.IdentityId)
	if err != nil {
		return DeleteChatMessageResponse{}, err
	}
	if !ident.Permissions.DeleteMessages {
		return DeleteChatMessageResponse{}, domain.ErrPermissionDenied
	}

	rs := s.lockRoom(params.RoomId)
	defer rs.mu.Unlock()

	index := -1
	for i, msg := range rs.chat {
		if msg.Id == params.MessageId {
			index = i
			break
		}
	}
	if index == -1 {
		return DeleteChatMessageResponse{}, domain.ErrMessageNotFound
	}

	rs.chat = append(rs.chat[:index], rs.chat[index+1:]...)

	return DeleteChatMessageResponse{
		MessageId: params.MessageId,
		Conns:     s.connsForRoom(params.RoomId, ""),
	}, nil
}
