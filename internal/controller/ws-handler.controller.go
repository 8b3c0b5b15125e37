package controller

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/sharetube/watchtogether/internal/domain"
	"github.com/sharetube/watchtogether/internal/service/room"
)

type SettingsInput struct {
	Password    *string             `json:"password"`
	AllowUpload *domain.AllowUpload `json:"allow_upload" validate:"omitempty,oneof=host all"`
}

func (i SettingsInput) toPatch() domain.SettingsPatch {
	return domain.SettingsPatch{
		Password:    i.Password,
		AllowUpload: i.AllowUpload,
	}
}

type PlaybackEventInput struct {
	Type   domain.PlaybackEventType `json:"type" validate:"required,oneof=play pause seek"`
	At     *float64                 `json:"at" validate:"required,min=0"`
	SentAt float64                  `json:"sent_at"`
}

// toEvent must only be called on a validated input.
func (i PlaybackEventInput) toEvent() domain.PlaybackEvent {
	return domain.PlaybackEvent{
		Type:   i.Type,
		At:     *i.At,
		SentAt: i.SentAt,
	}
}

type CreateRoomInput struct {
	RoomId   string        `json:"room_id" validate:"required,max=64"`
	Settings SettingsInput `json:"settings"`
}

func (c controller) handleCreateRoom(ctx context.Context, _ *websocket.Conn, input CreateRoomInput) error {
	sender := c.getClientFromCtx(ctx)

	createRoomResp, err := c.roomService.CreateRoom(ctx, &room.CreateRoomParams{
		RoomId:   input.RoomId,
		Settings: input.Settings.toPatch(),
		ConnId:   sender.Id(),
	})
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}

	if err := c.writeToConn(ctx, sender, &Output{Type: typeYouAreHost}); err != nil {
		return err
	}

	if err := c.writeToConn(ctx, sender, &Output{
		Type:    typeChatHistory,
		Payload: createRoomResp.ChatHistory,
	}); err != nil {
		return err
	}

	if err := c.broadcastParticipants(ctx, createRoomResp.Conns, createRoomResp.Participants); err != nil {
		return fmt.Errorf("failed to broadcast participants: %w", err)
	}

	if err := c.broadcast(ctx, createRoomResp.Conns, &Output{
		Type:    typeRoomSettings,
		Payload: newRoomSettingsOutput(createRoomResp.Settings),
	}); err != nil {
		return fmt.Errorf("failed to broadcast room settings: %w", err)
	}

	return nil
}

type JoinInput struct {
	RoomId   string  `json:"room_id" validate:"required,max=64"`
	Password *string `json:"password"`
}

func (c controller) handleJoin(ctx context.Context, _ *websocket.Conn, input JoinInput) error {
	sender := c.getClientFromCtx(ctx)

	joinRoomResp, err := c.roomService.JoinRoom(ctx, &room.JoinRoomParams{
		RoomId:   input.RoomId,
		Password: input.Password,
		ConnId:   sender.Id(),
	})
	if err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	if joinRoomResp.IsHost {
		if err := c.writeToConn(ctx, sender, &Output{Type: typeYouAreHost}); err != nil {
			return err
		}
	} else if joinRoomResp.HostConn != nil {
		if err := c.writeToConn(ctx, joinRoomResp.HostConn, &Output{
			Type:    typeRequestState,
			Payload: RequestStateOutput{To: sender.Id()},
		}); err != nil {
			c.logger.WarnContext(ctx, "failed to request state from host", "error", err)
		}
	}

	if err := c.writeToConn(ctx, sender, &Output{
		Type:    typeChatHistory,
		Payload: joinRoomResp.ChatHistory,
	}); err != nil {
		return err
	}

	if err := c.writeToConn(ctx, sender, &Output{
		Type:    typeRoomSettings,
		Payload: newRoomSettingsOutput(joinRoomResp.Settings),
	}); err != nil {
		return err
	}

	if joinRoomResp.CurrentSource != "" {
		if err := c.writeToConn(ctx, sender, &Output{
			Type:    typeSetSource,
			Payload: SetSourceOutput{URL: joinRoomResp.CurrentSource},
		}); err != nil {
			return err
		}
	}

	if joinRoomResp.LastControl != nil {
		if err := c.writeToConn(ctx, sender, &Output{
			Type:    typeControl,
			Payload: *joinRoomResp.LastControl,
		}); err != nil {
			return err
		}
	}

	if err := c.broadcastParticipants(ctx, joinRoomResp.Conns, joinRoomResp.Participants); err != nil {
		return fmt.Errorf("failed to broadcast participants: %w", err)
	}

	return nil
}

type RoomInput struct {
	RoomId string `json:"room_id" validate:"required,max=64"`
}

func (c controller) handleLeaveRoom(ctx context.Context, _ *websocket.Conn, input RoomInput) error {
	leaveRoomResp, err := c.roomService.LeaveRoom(ctx, &room.LeaveRoomParams{
		RoomId: input.RoomId,
		ConnId: c.getConnIdFromCtx(ctx),
	})
	if err != nil {
		return fmt.Errorf("failed to leave room: %w", err)
	}

	return c.notifyLeft(ctx, leaveRoomResp)
}

type AnnounceInput struct {
	RoomId string  `json:"room_id" validate:"required,max=64"`
	Name   string  `json:"name" validate:"max=64"`
	Avatar *string `json:"avatar"`
}

func (c controller) handleAnnounce(ctx context.Context, _ *websocket.Conn, input AnnounceInput) error {
	announceResp, err := c.roomService.Announce(ctx, &room.AnnounceParams{
		RoomId: input.RoomId,
		ConnId: c.getConnIdFromCtx(ctx),
		Name:   input.Name,
		Avatar: input.Avatar,
	})
	if err != nil {
		return fmt.Errorf("failed to announce: %w", err)
	}

	if err := c.broadcastParticipants(ctx, announceResp.Conns, announceResp.Participants); err != nil {
		return fmt.Errorf("failed to broadcast participants: %w", err)
	}

	return nil
}

type UpdateSettingsInput struct {
	RoomId   string        `json:"room_id" validate:"required,max=64"`
	Settings SettingsInput `json:"settings"`
}

func (c controller) handleUpdateSettings(ctx context.Context, _ *websocket.Conn, input UpdateSettingsInput) error {
	updateSettingsResp, err := c.roomService.UpdateSettings(ctx, &room.UpdateSettingsParams{
		RoomId: input.RoomId,
		ConnId: c.getConnIdFromCtx(ctx),
		Patch:  input.Settings.toPatch(),
	})
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}

	if err := c.broadcast(ctx, updateSettingsResp.Conns, &Output{
		Type:    typeRoomSettings,
		Payload: newRoomSettingsOutput(updateSettingsResp.Settings),
	}); err != nil {
		return fmt.Errorf("failed to broadcast room settings: %w", err)
	}

	if err := c.broadcastParticipants(ctx, updateSettingsResp.Conns, updateSettingsResp.Participants); err != nil {
		return fmt.Errorf("failed to broadcast participants: %w", err)
	}

	return nil
}

type SetSourceInput struct {
	RoomId string `json:"room_id" validate:"required,max=64"`
	URL    string `json:"url" validate:"required"`
}

func (c controller) handleSetSource(ctx context.Context, _ *websocket.Conn, input SetSourceInput) error {
	setSourceResp, err := c.roomService.SetSource(ctx, &room.SetSourceParams{
		RoomId: input.RoomId,
		ConnId: c.getConnIdFromCtx(ctx),
		URL:    input.URL,
	})
	if err != nil {
		return fmt.Errorf("failed to set source: %w", err)
	}

	if err := c.broadcast(ctx, setSourceResp.Conns, &Output{
		Type:    typeSetSource,
		Payload: SetSourceOutput{URL: setSourceResp.URL},
	}); err != nil {
		return fmt.Errorf("failed to broadcast set source: %w", err)
	}

	return nil
}

type ChatMessageInput struct {
	RoomId string  `json:"room_id" validate:"required,max=64"`
	Text   string  `json:"text" validate:"required,max=2000"`
	Name   string  `json:"name" validate:"max=64"`
	At     float64 `json:"at"`
	Avatar *string `json:"avatar"`
}

func (c controller) handleChatMessage(ctx context.Context, _ *websocket.Conn, input ChatMessageInput) error {
	chatResp, err := c.roomService.SendChatMessage(ctx, &room.SendChatMessageParams{
		RoomId: input.RoomId,
		ConnId: c.getConnIdFromCtx(ctx),
		Text:   input.Text,
		Name:   input.Name,
		At:     input.At,
		Avatar: input.Avatar,
	})
	if err != nil {
		return fmt.Errorf("failed to send chat message: %w", err)
	}

	if err := c.broadcast(ctx, chatResp.Conns, &Output{
		Type:    typeChatMessage,
		Payload: chatResp.Message,
	}); err != nil {
		return fmt.Errorf("failed to broadcast chat message: %w", err)
	}

	return nil
}

type QueueItemInput struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	UploadedBy string `json:"uploaded_by"`
}

type EnqueueInput struct {
	RoomId string         `json:"room_id" validate:"required,max=64"`
	Item   QueueItemInput `json:"item"`
}

func (c controller) handleEnqueue(ctx context.Context, _ *websocket.Conn, input EnqueueInput) error {
	enqueueResp, err := c.roomService.Enqueue(ctx, &room.EnqueueParams{
		RoomId:     input.RoomId,
		ConnId:     c.getConnIdFromCtx(ctx),
		URL:        input.Item.URL,
		Title:      input.Item.Title,
		UploadedBy: input.Item.UploadedBy,
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue: %w", err)
	}

	return c.broadcastQueue(ctx, enqueueResp.Conns, enqueueResp.Queue)
}

type ReorderQueueInput struct {
	RoomId   string             `json:"room_id" validate:"required,max=64"`
	NewOrder []domain.QueueItem `json:"new_order" validate:"required"`
}

func (c controller) handleReorderQueue(ctx context.Context, _ *websocket.Conn, input ReorderQueueInput) error {
	reorderResp, err := c.roomService.ReorderQueue(ctx, &room.ReorderQueueParams{
		RoomId:   input.RoomId,
		ConnId:   c.getConnIdFromCtx(ctx),
		NewOrder: input.NewOrder,
	})
	if err != nil {
		return fmt.Errorf("failed to reorder queue: %w", err)
	}

	return c.broadcastQueue(ctx, reorderResp.Conns, reorderResp.Queue)
}

type RemoveFromQueueInput struct {
	RoomId string `json:"room_id" validate:"required,max=64"`
	Index  *int   `json:"index" validate:"required,min=0"`
}

func (c controller) handleRemoveFromQueue(ctx context.Context, _ *websocket.Conn, input RemoveFromQueueInput) error {
	removeResp, err := c.roomService.RemoveFromQueue(ctx, &room.RemoveFromQueueParams{
		RoomId: input.RoomId,
		ConnId: c.getConnIdFromCtx(ctx),
		Index:  *input.Index,
	})
	if err != nil {
		return fmt.Errorf("failed to remove from queue: %w", err)
	}

	if !removeResp.Removed {
		return nil
	}

	return c.broadcastQueue(ctx, removeResp.Conns, removeResp.Queue)
}

type RequestQueueInput struct {
	RoomId string `json:"room_id"`
}

func (c controller) handleRequestQueue(ctx context.Context, _ *websocket.Conn, input RequestQueueInput) error {
	queue := c.roomService.RequestQueue(ctx, input.RoomId)

	return c.writeToConn(ctx, c.getClientFromCtx(ctx), &Output{
		Type:    typeQueueUpdated,
		Payload: queue,
	})
}

// handleNext serves both next and video_ended.
func (c controller) handleNext(ctx context.Context, _ *websocket.Conn, input RoomInput) error {
	advanceResp, err := c.roomService.Advance(ctx, &room.AdvanceParams{
		RoomId: input.RoomId,
		ConnId: c.getConnIdFromCtx(ctx),
	})
	if err != nil {
		return fmt.Errorf("failed to advance queue: %w", err)
	}

	if advanceResp.Advanced {
		if err := c.broadcast(ctx, advanceResp.Conns, &Output{
			Type:    typeSetSource,
			Payload: SetSourceOutput{URL: advanceResp.Source},
		}); err != nil {
			return fmt.Errorf("failed to broadcast set source: %w", err)
		}
	}

	return c.broadcastQueue(ctx, advanceResp.Conns, advanceResp.Queue)
}

type ControlInput struct {
	RoomId string             `json:"room_id" validate:"required,max=64"`
	Msg    PlaybackEventInput `json:"msg"`
}

func (c controller) handleControl(ctx context.Context, _ *websocket.Conn, input ControlInput) error {
	relayResp, err := c.roomService.RelayControl(ctx, &room.RelayControlParams{
		RoomId: input.RoomId,
		ConnId: c.getConnIdFromCtx(ctx),
		Event:  input.Msg.toEvent(),
	})
	if err != nil {
		return fmt.Errorf("failed to relay control: %w", err)
	}

	if err := c.broadcast(ctx, relayResp.Conns, &Output{
		Type:    typeControl,
		Payload: relayResp.Event,
	}); err != nil {
		return fmt.Errorf("failed to broadcast control: %w", err)
	}

	return nil
}

type SendStateToInput struct {
	To    string             `json:"to" validate:"required"`
	State PlaybackEventInput `json:"state"`
}

func (c controller) handleSendStateTo(ctx context.Context, _ *websocket.Conn, input SendStateToInput) error {
	relayResp, err := c.roomService.RelayDirectedState(ctx, &room.RelayDirectedStateParams{
		SenderId: c.getConnIdFromCtx(ctx),
		TargetId: input.To,
		State:    input.State.toEvent(),
	})
	if err != nil {
		return fmt.Errorf("failed to relay state: %w", err)
	}

	return c.writeToConn(ctx, relayResp.Conn, &Output{
		Type:    typeControl,
		Payload: relayResp.State,
	})
}

type TimeRequestInput struct {
	ClientSentAt float64 `json:"client_sent_at"`
}

func (c controller) handleTimeRequest(ctx context.Context, _ *websocket.Conn, input TimeRequestInput) error {
	return c.writeToConn(ctx, c.getClientFromCtx(ctx), &Output{
		Type: typeTimeResponse,
		Payload: TimeResponseOutput{
			ClientSentAt: input.ClientSentAt,
			ServerTime:   c.roomService.GetServerTime(),
		},
	})
}
