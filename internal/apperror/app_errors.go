package apperror

import (
	"errors"
	"fmt"
)

// Taxonomy of rejections. Every specific error below wraps exactly one of these.
var (
	ErrNotFound        = errors.New("not found")
	ErrFull            = errors.New("full")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidState    = errors.New("invalid state")
	ErrOccupiedCell    = errors.New("occupied cell")
	ErrOutOfTurn       = errors.New("out of turn")
	ErrInvalidArgument = errors.New("invalid argument")
)

var (
	ErrRoomNotFound = fmt.Errorf("%w: room does not exist", ErrNotFound)
	ErrRoomFull     = fmt.Errorf("%w: room already has two players", ErrFull)

	ErrNotHost        = fmt.Errorf("%w: only the host can do this", ErrUnauthorized)
	ErrNotParticipant = fmt.Errorf("%w: connection is not a participant of this room", ErrUnauthorized)
	ErrNotBound       = fmt.Errorf("%w: connection is not bound to a room", ErrUnauthorized)
	ErrAlreadyBound   = fmt.Errorf("%w: connection is already bound to a room", ErrUnauthorized)
	ErrInvalidToken   = fmt.Errorf("%w: invalid host token", ErrUnauthorized)

	ErrAlreadyInRoom    = fmt.Errorf("%w: connection already joined the room", ErrInvalidState)
	ErrAlreadyStarted   = fmt.Errorf("%w: game is already started", ErrInvalidState)
	ErrIncompleteRoster = fmt.Errorf("%w: waiting for the second player", ErrInvalidState)
	ErrNotStarted       = fmt.Errorf("%w: game is not started", ErrInvalidState)
	ErrRoundOver        = fmt.Errorf("%w: round is already resolved", ErrInvalidState)
	ErrRoundInProgress  = fmt.Errorf("%w: round is still in progress", ErrInvalidState)
	ErrGameConcluded    = fmt.Errorf("%w: game is already concluded", ErrInvalidState)
	ErrHostConnected    = fmt.Errorf("%w: host is still connected", ErrInvalidState)

	ErrCellOccupied = fmt.Errorf("%w: cell is already occupied", ErrOccupiedCell)
	ErrNotYourTurn  = fmt.Errorf("%w: it's not your turn", ErrOutOfTurn)

	ErrInvalidCell   = fmt.Errorf("%w: cell index must be within 0..8", ErrInvalidArgument)
	ErrInvalidRounds = fmt.Errorf("%w: rounds total is out of range", ErrInvalidArgument)
)

const (
	CodeNotFound        = "not_found"
	CodeFull            = "full"
	CodeUnauthorized    = "unauthorized"
	CodeInvalidState    = "invalid_state"
	CodeOccupiedCell    = "occupied_cell"
	CodeOutOfTurn       = "out_of_turn"
	CodeInvalidArgument = "invalid_argument"
	CodeInternal        = "internal"
)

// Code maps err to a stable machine readable code for clients.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrFull):
		return CodeFull
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrInvalidState):
		return CodeInvalidState
	case errors.Is(err, ErrOccupiedCell):
		return CodeOccupiedCell
	case errors.Is(err, ErrOutOfTurn):
		return CodeOutOfTurn
	case errors.Is(err, ErrInvalidArgument):
		return CodeInvalidArgument
	default:
		return CodeInternal
	}
}

var specific = []error{
	ErrRoomNotFound, ErrRoomFull,
	ErrNotHost, ErrNotParticipant, ErrNotBound, ErrAlreadyBound, ErrInvalidToken,
	ErrAlreadyInRoom, ErrAlreadyStarted, ErrIncompleteRoster, ErrNotStarted,
	ErrRoundOver, ErrRoundInProgress, ErrGameConcluded, ErrHostConnected,
	ErrCellOccupied, ErrNotYourTurn, ErrInvalidCell, ErrInvalidRounds,
}

// Message returns a text safe to show to a player. Internal details never leak.
func Message(err error) string {
	for _, known := range specific {
		if errors.Is(err, known) {
			return known.Error()
		}
	}

	return "something went wrong, please try again"
}
