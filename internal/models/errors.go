package models

import (
	"errors"
)

var (
	ErrNoRecord           = errors.New("models: no matching record found")
	ErrInvalidCredentials = errors.New("models: invalid credentials")
	ErrDuplicateEmail     = errors.New("models: duplicate email")
	ErrDuplicateUsername  = errors.New("models: duplicate username")
	ErrEmailNotConfirmed  = errors.New("models: email not confirmed")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrForbidden          = errors.New("forbidden")
)

var (
	ErrAdNotFound       = errors.New("ad not found")
	ErrAdNotActive      = errors.New("ad is not active")
	ErrMediaLimit       = errors.New("too many media files")
	ErrVideoLimit       = errors.New("too many videos")
	ErrUnsupportedMedia = errors.New("unsupported media type")
	ErrMediaTooLarge    = errors.New("media file too large")
	ErrInvalidLocation  = errors.New("invalid location")
	ErrCategoryNotFound = errors.New("category not found")
	ErrLocationNotFound = errors.New("location not found")
)

var (
	ErrSelfRating         = errors.New("cannot rate your own ad")
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
	ErrCommentNotFound    = errors.New("comment not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrUnknownContact     = errors.New("unknown contact channel")
	ErrInvalidBoostAd     = errors.New("invalid ad id")
	ErrInvalidBoostPeriod = errors.New("invalid boost duration")
)
