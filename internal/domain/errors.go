package domain

import "errors"

// Domain errors
var (
	ErrLeagueNotFound  = errors.New("league not found")
	ErrPlayerNotFound  = errors.New("player not found in league")
	ErrGameNotFound    = errors.New("game record not found")
	ErrRuleExists      = errors.New("scoring rule already exists")
	ErrInvalidGameKind = errors.New("invalid game kind")
	ErrInvalidGame     = errors.New("invalid game submission")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrInternalError   = errors.New("internal server error")
)

// IsNotFoundError checks if an error is a not-found type error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrLeagueNotFound) || errors.Is(err, ErrPlayerNotFound) || errors.Is(err, ErrGameNotFound)
}
