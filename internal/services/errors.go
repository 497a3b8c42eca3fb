package services

import "errors"

var (
	// Dataset errors
	ErrNoDataset       = errors.New("no dataset loaded")
	ErrInvalidFileType = errors.New("invalid file type")

	// Chat errors
	ErrEmptyQuestion = errors.New("question is empty")
)
