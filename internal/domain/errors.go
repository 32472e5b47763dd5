package domain

import "errors"

var (
	// ErrRecordNotFound is returned by stores when a key holds no value.
	ErrRecordNotFound = errors.New("record not found")
	// ErrSessionNotFound is returned when no quiz session is running for a user.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionActive is returned when a user already has a running or loading session.
	ErrSessionActive = errors.New("quiz session already active")
	// ErrNotRegistered is returned when a quiz is started for an unknown user.
	ErrNotRegistered = errors.New("user not registered")
	// ErrUnknownOption indicates a selected answer is not one of the question's options.
	ErrUnknownOption = errors.New("answer is not an option of the current question")
	// ErrSessionClosed is returned when an intent reaches a session that already left Active.
	ErrSessionClosed = errors.New("quiz session closed")
	// ErrNoQuestions indicates a loaded batch was empty.
	ErrNoQuestions = errors.New("no questions available")
	// ErrQuestionOutOfRange indicates a jump target outside [1, N].
	ErrQuestionOutOfRange = errors.New("question number out of range")
	// ErrResultNotFound indicates no finished quiz result is stored for the user.
	ErrResultNotFound = errors.New("quiz result not found")
	// ErrInvalidName is returned when a registration name is shorter than two characters.
	ErrInvalidName = errors.New("please enter a name with at least 2 characters")
	// ErrInvalidEmail is returned when a registration email is malformed.
	ErrInvalidEmail = errors.New("please enter a valid email address")
	// ErrUnknownReason is returned when a termination reason is not one of the known reasons.
	ErrUnknownReason = errors.New("unknown termination reason")
	// ErrHistoryUnavailable is returned when no result archive with history is configured.
	ErrHistoryUnavailable = errors.New("result history unavailable")
)
