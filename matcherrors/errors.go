package matcherrors

import "errors"

// Sentinel errors shared by game, matchmaking and lobby. Callers wrap them with
// context and test with errors.Is.
var (
	ErrMalformedPayload     = errors.New("malformed payload")
	ErrIndexOutOfRange      = errors.New("card index out of range")
	ErrGuessOutOfRange      = errors.New("guessed value out of range")
	ErrNotYourTurn          = errors.New("not your turn")
	ErrNotPlaying           = errors.New("session is not in the playing phase")
	ErrNotReordering        = errors.New("session is not in the reorder phase")
	ErrPunishmentOwed       = errors.New("punishment owed before guessing again")
	ErrNoPunishmentOwed     = errors.New("no punishment owed")
	ErrCannotSkip           = errors.New("skip is only allowed after a correct guess")
	ErrAlreadyRevealed      = errors.New("card already revealed")
	ErrInvalidReorder       = errors.New("reorder is not a permutation of the dealt hand")
	ErrNoOpponent           = errors.New("opponent left the game")
	ErrDuplicateParticipant = errors.New("participant already registered")
	ErrInvalidName          = errors.New("invalid display name")
	ErrAlreadyDealt         = errors.New("session already dealt")
)
