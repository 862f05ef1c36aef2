package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an addressed age, season, topic or
	// message index does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a rename target title is already taken.
	ErrConflict = errors.New("already exists")

	// ErrCorrupt is returned when the menu document cannot be parsed.
	ErrCorrupt = errors.New("corrupt menu document")
)

// Level names a layer of the content tree.
type Level string

const (
	LevelAge     Level = "age"
	LevelSeason  Level = "season"
	LevelTopic   Level = "topic"
	LevelMessage Level = "message"
)

// NotFoundError reports which part of an address is missing.
type NotFoundError struct {
	Level Level
	Name  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q %s", e.Level, e.Name, ErrNotFound)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func notFound(level Level, name string) error {
	return &NotFoundError{Level: level, Name: name}
}

// CorruptStoreError reports a menu document that does not decode into the
// age → season → topic → record shape.
type CorruptStoreError struct {
	Path string
	Err  error
}

func (e *CorruptStoreError) Error() string {
	return fmt.Sprintf("%s %s: %v", ErrCorrupt, e.Path, e.Err)
}

func (e *CorruptStoreError) Unwrap() error {
	return e.Err
}

func (e *CorruptStoreError) Is(target error) bool {
	return target == ErrCorrupt
}
