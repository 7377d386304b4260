package usecases

import "errors"

// Domain errors for the music player module.
var (
	// ErrUserNotConnected is returned when the invoking user is not in a voice channel.
	ErrUserNotConnected = errors.New("you must be in a voice channel")

	// ErrNoAccess is returned when the bot lacks permission to join the target channel.
	ErrNoAccess = errors.New("cannot connect to that voice channel")

	// ErrNotSameChannel is returned when the user is in a different voice channel than the bot.
	ErrNotSameChannel = errors.New("you must be in the same voice channel as the bot")

	// ErrNoTracksFound is returned when a query yields no playable tracks.
	ErrNoTracksFound = errors.New("no tracks found for that query")

	// ErrAlreadyConnected is returned when the bot is already in a voice channel of the guild.
	ErrAlreadyConnected = errors.New("already connected to a voice channel")

	// ErrNotConnected is returned when an operation requires the bot to be in a voice channel.
	ErrNotConnected = errors.New("not connected to a voice channel")

	// ErrNotPrivileged is returned when the invoker is neither the session owner nor elevated.
	ErrNotPrivileged = errors.New("only the session owner or an admin can do that")

	// ErrNotPlaying is returned when no track is currently playing.
	ErrNotPlaying = errors.New("nothing is currently playing")

	// ErrDisableLoopingFirst is returned when vote-skipping while looping is on.
	ErrDisableLoopingFirst = errors.New("disable looping before skipping")

	// ErrNoTracksLeft is returned when the queue has nothing to operate on.
	ErrNoTracksLeft = errors.New("the queue is empty")

	// ErrInvalidURL is returned for URLs no resolver route understands.
	ErrInvalidURL = errors.New("unsupported URL")

	// ErrFileNotFound is returned when a local media path does not exist or has
	// an unsupported extension.
	ErrFileNotFound = errors.New("no such media file")
)
