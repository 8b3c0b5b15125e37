package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/sharetube/watchtogether/internal/domain"
	"github.com/sharetube/watchtogether/internal/repository/connection"
	"github.com/sharetube/watchtogether/internal/service/room"
)

func (c controller) writeToConn(ctx context.Context, conn connection.Conn, output *Output) error {
	if err := conn.WriteJSON(output); err != nil {
		c.logger.DebugContext(ctx, "failed to write to conn", "conn_id", conn.Id(), "type", output.Type, "error", err)
		return fmt.Errorf("failed to write %s to %s: %w", output.Type, conn.Id(), err)
	}

	return nil
}

// broadcast writes to every conn even when some writes fail. A failed conn is left to
// its own read loop to tear down.
func (c controller) broadcast(ctx context.Context, conns []connection.Conn, output *Output) error {
	var errs []error
	for _, conn := range conns {
		if err := c.writeToConn(ctx, conn, output); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (c controller) broadcastParticipants(ctx context.Context, conns []connection.Conn, participants room.Participants) error {
	return c.broadcast(ctx, conns, &Output{
		Type:    typeParticipants,
		Payload: participants,
	})
}

func (c controller) broadcastQueue(ctx context.Context, conns []connection.Conn, queue []domain.QueueItem) error {
	if err := c.broadcast(ctx, conns, &Output{
		Type:    typeQueueUpdated,
		Payload: queue,
	}); err != nil {
		return fmt.Errorf("failed to broadcast queue: %w", err)
	}

	return nil
}

// notifyLeft tells the room what a departure changed: a new host, if any, and the
// remaining participants.
func (c controller) notifyLeft(ctx context.Context, left room.LeaveRoomResponse) error {
	if left.Deleted {
		return nil
	}

	var errs []error
	if left.NewHostConn != nil {
		if err := c.writeToConn(ctx, left.NewHostConn, &Output{Type: typeYouAreHost}); err != nil {
			errs = append(errs, err)
		}
	}

	if err := c.broadcastParticipants(ctx, left.Conns, left.Participants); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
