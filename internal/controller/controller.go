package controller

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sharetube/watchtogether/internal/domain"
	"github.com/sharetube/watchtogether/internal/service/room"
	"github.com/sharetube/watchtogether/pkg/validator"
	"github.com/sharetube/watchtogether/pkg/wsrouter"
)

type iRoomService interface {
	ConnectMember(context.Context, *room.ConnectMemberParams) error
	DisconnectMember(context.Context, *room.DisconnectMemberParams) (room.DisconnectMemberResponse, error)
	CreateRoom(context.Context, *room.CreateRoomParams) (room.CreateRoomResponse, error)
	JoinRoom(context.Context, *room.JoinRoomParams) (room.JoinRoomResponse, error)
	LeaveRoom(context.Context, *room.LeaveRoomParams) (room.LeaveRoomResponse, error)
	Announce(context.Context, *room.AnnounceParams) (room.AnnounceResponse, error)
	UpdateSettings(context.Context, *room.UpdateSettingsParams) (room.UpdateSettingsResponse, error)
	SetSource(context.Context, *room.SetSourceParams) (room.SetSourceResponse, error)
	SendChatMessage(context.Context, *room.SendChatMessageParams) (room.SendChatMessageResponse, error)
	Enqueue(context.Context, *room.EnqueueParams) (room.EnqueueResponse, error)
	ReorderQueue(context.Context, *room.ReorderQueueParams) (room.QueueResponse, error)
	RemoveFromQueue(context.Context, *room.RemoveFromQueueParams) (room.RemoveFromQueueResponse, error)
	Advance(context.Context, *room.AdvanceParams) (room.AdvanceResponse, error)
	RequestQueue(context.Context, string) []domain.QueueItem
	RelayControl(context.Context, *room.RelayControlParams) (room.RelayControlResponse, error)
	RelayDirectedState(context.Context, *room.RelayDirectedStateParams) (room.RelayDirectedStateResponse, error)
	GetServerTime() float64
	GetRoomsSummary(context.Context) []room.RoomSummary
	GenerateRoomId(context.Context) (string, error)
}

type controller struct {
	roomService iRoomService
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	wsmux       *wsrouter.WSRouter
	logger      *slog.Logger
	// dispatchMu makes each inbound message, broadcasts included, complete before the next.
	dispatchMu *sync.Mutex
}

func NewController(roomService iRoomService, logger *slog.Logger) *controller {
	c := controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		roomService: roomService,
		validate:    validator.NewValidator(),
		logger:      logger,
		dispatchMu:  &sync.Mutex{},
	}
	c.wsmux = c.getWSRouter()

	return &c
}
