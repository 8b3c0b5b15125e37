package controller

import (
	"reflect"

	"github.com/sharetube/watchtogether/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()
	mux.SetErrorHandler(c.handleWSError)
	mux.SetValidateFunc(func(payload any) error {
		if reflect.ValueOf(payload).Kind() != reflect.Struct {
			return nil
		}

		return c.validate.ValidateStruct(payload)
	})
	mux.Use(c.wsRequestIdWSMw(), c.loggerWSMw(), c.serializeWSMw())

	// room
	wsrouter.Handle(mux, "create_room", c.handleCreateRoom)
	wsrouter.Handle(mux, "join", c.handleJoin)
	wsrouter.Handle(mux, "leave_room", c.handleLeaveRoom)
	wsrouter.Handle(mux, "announce", c.handleAnnounce)
	wsrouter.Handle(mux, "update_settings", c.handleUpdateSettings)
	wsrouter.Handle(mux, "set_source", c.handleSetSource)
	wsrouter.Handle(mux, "chat_message", c.handleChatMessage)

	// queue
	wsrouter.Handle(mux, "enqueue", c.handleEnqueue)
	wsrouter.Handle(mux, "reorder_queue", c.handleReorderQueue)
	wsrouter.Handle(mux, "remove_from_queue", c.handleRemoveFromQueue)
	wsrouter.Handle(mux, "request_queue", c.handleRequestQueue)
	wsrouter.Handle(mux, "next", c.handleNext)
	wsrouter.Handle(mux, "video_ended", c.handleNext)

	// player
	wsrouter.Handle(mux, "control", c.handleControl)
	wsrouter.Handle(mux, "send_state_to", c.handleSendStateTo)
	wsrouter.Handle(mux, "time_request", c.handleTimeRequest)

	return mux
}
