package service

import (
	"errors"

	"pubg-tracker/internal/repository"
)

var (
	ErrNoMatchData     = errors.New("no match data available")
	ErrPlayerNotFound  = repository.ErrPlayerNotFound
	ErrInvalidStatsKey = errors.New("invalid stats key")
	ErrInvalidArgument = errors.New("invalid argument")
)
