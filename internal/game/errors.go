package game

import "errors"

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrNotInRoom        = errors.New("not in room")
	ErrNotHost          = errors.New("not host")
	ErrInvalidPhase     = errors.New("invalid phase for action")
	ErrGameInProgress   = errors.New("game already in progress")
	ErrNotEnoughPlayers = errors.New("not enough players")
	ErrAlreadySubmitted = errors.New("already submitted")
	ErrAlreadyVoted     = errors.New("already voted")
	ErrAnswerTooShort   = errors.New("answer too short")
	ErrAnswerTooLong    = errors.New("answer too long")
	ErrDebugDisabled    = errors.New("debug controls disabled")
	ErrBadReaction      = errors.New("invalid reaction")
)
