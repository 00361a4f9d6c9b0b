package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"

	"marketBack/internal/models"
)

// sniffLen covers every signature mimetype knows about.
const sniffLen = 3072

// MediaUpload is one file from a multipart form. The caller owns Body and closes it.
type MediaUpload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

// MediaChanges describes what happens to an ad's media on save.
type MediaChanges struct {
	Add    []MediaUpload
	Remove []string
	// CoverID picks an existing medium as cover.
	CoverID string
	// CoverNew picks one of Add (by index) as cover.
	CoverNew *int
}

type sniffedUpload struct {
	body        io.Reader
	size        int64
	contentType string
	ext         string
	kind        models.MediaType
}

// sniff detects the real content type from the first bytes and keeps them for the upload.
func sniff(u MediaUpload, maxBytes int64) (sniffedUpload, error) {
	if maxBytes > 0 && u.Size > maxBytes {
		return sniffedUpload{}, fmt.Errorf("%w: %s is larger than %d MB", models.ErrMediaTooLarge, u.Filename, maxBytes>>20)
	}
	if u.Body == nil {
		return sniffedUpload{}, fmt.Errorf("%w: empty file %s", models.ErrUnsupportedMedia, u.Filename)
	}
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(u.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return sniffedUpload{}, err
	}
	if n == 0 {
		return sniffedUpload{}, fmt.Errorf("%w: empty file %s", models.ErrUnsupportedMedia, u.Filename)
	}
	head = head[:n]
	mt := mimetype.Detect(head)
	kind, err := models.MediaTypeFromMIME(mt.String())
	if err != nil {
		return sniffedUpload{}, err
	}

	var body io.Reader = io.MultiReader(bytes.NewReader(head), u.Body)
	if maxBytes > 0 {
		body = io.LimitReader(body, maxBytes)
	}
	return sniffedUpload{
		body:        body,
		size:        u.Size,
		contentType: mt.String(),
		ext:         mt.Extension(),
		kind:        kind,
	}, nil
}

// StepError reports which step of a multi-step save failed. Earlier steps stay applied.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return e.Step + ": " + e.Err.Error()
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func stepErr(step string, err error) error {
	if err == nil {
		return nil
	}
	return &StepError{Step: step, Err: err}
}
