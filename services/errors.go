package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed   = errors.New("validation failed")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrInvalidCredentials = errors.New("invalid email or password")

	// Ошибки конфликтов
	ErrUserEmailConflict      = errors.New("email address is already in use")
	ErrMemberNicknameConflict = errors.New("nickname is already in use within this game")
	ErrPlacementRankConflict  = errors.New("placement rank is already configured for this game")

	// Ошибки, специфичные для сущностей
	ErrGameNotFound          = errors.New("game not found")
	ErrMemberNotFound        = errors.New("member not found")
	ErrPlacementRuleNotFound = errors.New("placement payout rule not found")
	ErrGameConfigMissing     = errors.New("game configuration is missing and could not be defaulted")
	ErrGameSourceURLMissing  = errors.New("game has no kicktipp source url configured")

	// Ошибки конфигурации игры
	ErrConfigShareSumInvalid  = errors.New("victory and placement share percentages must sum to exactly 100")
	ErrConfigMatchdaysInvalid = errors.New("number of matchdays must be positive")

	// Ошибки входных данных игры
	ErrGameNameRequired = errors.New("game name is required")
	ErrGameStakeInvalid = errors.New("stake per person must be a non-negative number")
	ErrPlacementInvalid = errors.New("placement rule requires a positive rank and a non-negative percent")
)
