package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/yuvrajxx14mu/marketing-yard/internal/middleware"
	"github.com/yuvrajxx14mu/marketing-yard/internal/model"
	"github.com/yuvrajxx14mu/marketing-yard/internal/repository"
)

// MessageHandler serves farmer/trader chat. Opening a conversation marks
// the received half of it read.
type MessageHandler struct {
	Messages *repository.MessageRepo
}

type sendMessageReq struct {
	ReceiverID uint64  `json:"receiver_id"`
	Content    string  `json:"content"`
	Type       string  `json:"type"`       // chat | support | system, defaults to chat
	RelatedTo  *string `json:"related_to"` // optional product/bid anchor
}

type messageResp struct {
	ID         uint64    `json:"id"`
	SenderID   uint64    `json:"sender_id"`
	ReceiverID uint64    `json:"receiver_id"`
	Content    string    `json:"content"`
	Type       string    `json:"type"`
	Read       bool      `json:"read"`
	RelatedTo  *string   `json:"related_to,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func toMessageResp(m model.Message) messageResp {
	return messageResp{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Content:    m.Content,
		Type:       string(m.Type),
		Read:       m.Read,
		RelatedTo:  m.RelatedTo,
		CreatedAt:  m.CreatedAt,
	}
}

// Send delivers a message to another user.
func (h *MessageHandler) Send(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req sendMessageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.ReceiverID == 0 || req.Content == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "receiver_id and content required"})
	}
	if req.ReceiverID == uid {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot message yourself"})
	}
	msgType := model.MessageType(req.Type)
	switch msgType {
	case model.MessageChat, model.MessageSupport, model.MessageSystem:
	case "":
		msgType = model.MessageChat
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown message type"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Messages.Create(ctx, model.Message{
		SenderID:   uid,
		ReceiverID: req.ReceiverID,
		Content:    req.Content,
		Type:       msgType,
		RelatedTo:  req.RelatedTo,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "send failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// Conversations lists the caller's conversations, most recent first,
// with unread counts per peer.
func (h *MessageHandler) Conversations(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	convs, err := h.Messages.Conversations(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]echo.Map, 0, len(convs))
	for _, cv := range convs {
		out = append(out, echo.Map{
			"peer_id":      cv.PeerID,
			"peer_name":    cv.PeerName,
			"last_message": cv.LastMessage,
			"last_at":      cv.LastAt,
			"unread":       cv.Unread,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Conversation returns the full exchange with one peer and marks the
// received messages read.
func (h *MessageHandler) Conversation(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	peerID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || peerID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	msgs, err := h.Messages.Conversation(ctx, uid, peerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]messageResp, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResp(m))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// UnreadCount returns the caller's total unread message count, for the
// navigation badge.
func (h *MessageHandler) UnreadCount(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	n, err := h.Messages.UnreadCount(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"unread": n})
}
