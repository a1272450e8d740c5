package service

import "errors"

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrUserExists            = errors.New("user already exists")
	ErrInvalidInput          = errors.New("invalid input")
	ErrWrongPassword         = errors.New("current password is incorrect")
	ErrScanNotFound          = errors.New("receipt scan not found")
	ErrForbidden             = errors.New("forbidden")
	ErrAlreadyConfirmed      = errors.New("receipt scan already confirmed")
	ErrUnsupportedFormat     = errors.New("unsupported file format")
	ErrEmptyUpload           = errors.New("uploaded file is empty")
	ErrRecognizerUnavailable = errors.New("ocr provider unavailable")
)
