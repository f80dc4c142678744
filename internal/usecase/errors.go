package usecase

import (
	"context"
	"errors"

	drepo "FinBot/internal/domain/repository"
)

var (
	ErrNoData           = drepo.ErrNoData
	ErrNotEnoughHistory = errors.New("not enough history")
	ErrUnknownCommand   = errors.New("unknown command")
	ErrRateLimited      = errors.New("rate limited")
	ErrInvalidArgs      = errors.New("invalid arguments")
)

// UserMessage converts a command failure into the text sent back to the user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidArgs):
		return err.Error()
	case errors.Is(err, ErrNoData):
		return "No data found for that request. Check the ticker and try again."
	case errors.Is(err, ErrNotEnoughHistory):
		return "Not enough history to run that. Try a longer timeframe."
	case errors.Is(err, ErrRateLimited):
		return "Slow down! You're sending commands too fast."
	case errors.Is(err, ErrUnknownCommand):
		return "Unknown command. Type ?help for a list of commands."
	case errors.Is(err, context.DeadlineExceeded):
		return "That took too long. Please try again later."
	default:
		return "Something went wrong while processing your command."
	}
}
