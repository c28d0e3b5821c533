package upload

import "errors"

var (
	ErrUploadNotFound = errors.New("upload not found")
	ErrNotOwner       = errors.New("you do not own this upload")
	ErrFileTooLarge   = errors.New("file exceeds maximum allowed size")
	ErrNoFiles        = errors.New("no file provided")
	ErrDuplicatePath  = errors.New("an upload is already recorded for this path")
)
