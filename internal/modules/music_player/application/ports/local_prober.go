package ports

import "time"

// LocalFileProber inspects local media files.
type LocalFileProber interface {
	// Probe returns the media duration of the file at path.
	Probe(path string) (time.Duration, error)
}
