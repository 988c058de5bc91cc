package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/apperror"
	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/usecase"
)

var (
	errMalformedMessage = fmt.Errorf("%w: malformed message", apperror.ErrInvalidArgument)
	errUnknownAction    = fmt.Errorf("%w: unknown action", apperror.ErrInvalidArgument)
	errMissingRoomID    = fmt.Errorf("%w: roomId is required", apperror.ErrInvalidArgument)
	errMissingCell      = fmt.Errorf("%w: cell is required", apperror.ErrInvalidArgument)
)

var requestErrors = []error{errMalformedMessage, errUnknownAction, errMissingRoomID, errMissingCell}

func (that *Server) handleCreateRoom(ctx context.Context, client *Client, msg *Message) error {
	var req createRoomRequest
	if err := decodePayload(msg, &req); err != nil {
		return that.reject(client, msg.Action, "", err)
	}

	if _, err := that.gameUseCase.CreateRoom(ctx, client.ID, req.Name); err != nil {
		return that.reject(client, msg.Action, "", err)
	}

	return nil
}

func (that *Server) handleJoinRoom(ctx context.Context, client *Client, msg *Message) error {
	var req joinRoomRequest
	if err := decodePayload(msg, &req); err != nil {
		return that.reject(client, msg.Action, "", err)
	}

	if req.RoomID == "" {
		return that.reject(client, msg.Action, "", errMissingRoomID)
	}

	if err := that.gameUseCase.JoinRoom(ctx, client.ID, req.RoomID, req.Name); err != nil {
		return that.reject(client, msg.Action, req.RoomID, err)
	}

	return nil
}

func (that *Server) handleRejoinRoom(ctx context.Context, client *Client, msg *Message) error {
	var req rejoinRoomRequest
	if err := decodePayload(msg, &req); err != nil {
		return that.reject(client, msg.Action, "", err)
	}

	if req.RoomID == "" {
		return that.reject(client, msg.Action, "", errMissingRoomID)
	}

	if err := that.gameUseCase.RejoinRoom(ctx, client.ID, req.RoomID, req.HostToken, req.Name); err != nil {
		return that.reject(client, msg.Action, req.RoomID, err)
	}

	return nil
}

func (that *Server) handleStartGame(ctx context.Context, client *Client, msg *Message) error {
	var req startGameRequest
	if err := decodePayload(msg, &req); err != nil {
		return that.reject(client, msg.Action, "", err)
	}

	if err := that.gameUseCase.StartGame(ctx, client.ID, req.RoomID, req.Rounds); err != nil {
		return that.reject(client, msg.Action, req.RoomID, err)
	}

	return nil
}

func (that *Server) handleMakeMove(ctx context.Context, client *Client, msg *Message) error {
	var req makeMoveRequest
	if err := decodePayload(msg, &req); err != nil {
		return that.reject(client, msg.Action, "", err)
	}

	if req.Cell == nil {
		return that.reject(client, msg.Action, req.RoomID, errMissingCell)
	}

	if err := that.gameUseCase.MakeMove(ctx, client.ID, req.RoomID, *req.Cell); err != nil {
		return that.reject(client, msg.Action, req.RoomID, err)
	}

	return nil
}

func (that *Server) handleReady(ctx context.Context, client *Client, msg *Message) error {
	var req readyRequest
	if err := decodePayload(msg, &req); err != nil {
		return that.reject(client, msg.Action, "", err)
	}

	if err := that.gameUseCase.MarkReady(ctx, client.ID, req.RoomID); err != nil {
		return that.reject(client, msg.Action, req.RoomID, err)
	}

	return nil
}

func decodePayload(msg *Message, dst any) error {
	if len(msg.Payload) == 0 {
		return nil
	}

	if err := json.Unmarshal(msg.Payload, dst); err != nil {
		return fmt.Errorf("%w: %w", errMalformedMessage, err)
	}

	return nil
}

// reject answers the requester only and hands the error back for logging.
func (that *Server) reject(client *Client, action, roomID string, err error) error {
	that.sendErrorResponse(client, action, roomID, err)

	return fmt.Errorf("failed to handle %s: %w", action, err)
}

// sendErrorResponse - sends a rejection privately to the requesting connection.
func (that *Server) sendErrorResponse(client *Client, action, roomID string, err error) {
	switch {
	case errors.Is(err, apperror.ErrRoomNotFound):
		that.hub.Send(client.ID, usecase.Event{Action: usecase.ActionRoomNotFound, Payload: roomRef{RoomID: roomID}})
	case errors.Is(err, apperror.ErrRoomFull):
		that.hub.Send(client.ID, usecase.Event{Action: usecase.ActionRoomFull, Payload: roomRef{RoomID: roomID}})
	default:
		reason := apperror.Message(err)
		for _, known := range requestErrors {
			if errors.Is(err, known) {
				reason = known.Error()
			}
		}

		that.hub.Send(client.ID, usecase.Event{
			Action: usecase.ActionError,
			Payload: usecase.ErrorPayload{
				Action: action,
				RoomID: roomID,
				Reason: reason,
				Code:   apperror.Code(err),
			},
		})
	}
}
