package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed      = errors.New("validation failed")
	ErrPasswordTooShort      = errors.New("password is too short")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrUsernameRequired      = errors.New("username is required")
	ErrEmailInvalid          = errors.New("email address is invalid")
	ErrGameNameRequired      = errors.New("game name is required")
	ErrPlayerNameRequired    = errors.New("player name is required")
	ErrPlayersRangeInvalid   = errors.New("minimum players must not exceed maximum players")
	ErrScoresheetNameMissing = errors.New("scoresheet name is required")
	ErrScoresheetNoRounds    = errors.New("scoresheet needs at least one round")
	ErrScoresheetInvalid     = errors.New("scoresheet configuration is invalid")
	ErrTemplateInvalid       = errors.New("scoresheet template is invalid")
	ErrMatchNoPlayers        = errors.New("match needs at least one player")
	ErrMatchDuplicatePlayer  = errors.New("player is listed more than once")
	ErrMatchFinished         = errors.New("match is already finished")
	ErrRoundNotInScoresheet  = errors.New("round does not belong to the match scoresheet")
	ErrSeatNotInMatch        = errors.New("player seat does not belong to this match")
	ErrManualScoreOnly       = errors.New("scoresheet takes manual final scores, not round scores")
	ErrRoundScoresOnly       = errors.New("scoresheet aggregates round scores, manual final scores are not accepted")
	ErrPlacementsRequired    = errors.New("placements for every player are required for manually decided matches")
	ErrPlacementInvalid      = errors.New("placement must be a positive number")
	ErrImageTypeUnsupported  = errors.New("unsupported image content type")

	// Ошибки конфликтов
	ErrUserEmailConflict      = errors.New("email address is already in use")
	ErrUserUsernameConflict   = errors.New("username is already in use")
	ErrGameNameConflict       = errors.New("game with this name already exists")
	ErrPlayerNameConflict     = errors.New("player with this name already exists")
	ErrScoresheetNameConflict = errors.New("scoresheet with this name already exists for the game")
	ErrScoresheetInUse        = errors.New("scoresheet cannot be deleted as matches use it")
	ErrPlayerInUse            = errors.New("player cannot be deleted as matches reference it")

	// Ошибки аутентификации и авторизации
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound       = errors.New("user not found")
	ErrGameNotFound       = errors.New("game not found")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrScoresheetNotFound = errors.New("scoresheet not found")
	ErrMatchNotFound      = errors.New("match not found")

	ErrUploadsDisabled = errors.New("image uploads are not configured")
)
