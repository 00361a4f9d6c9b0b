package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"marketBack/internal/services"
)

const (
	mediaField       = "media"
	removeMediaField = "remove_media"
	coverField       = "cover"
	newCoverPrefix   = "new:"
)

// collectMediaFiles gathers every file under the given form keys.
func collectMediaFiles(form *multipart.Form, keys ...string) []*multipart.FileHeader {
	if form == nil {
		return nil
	}

	var result []*multipart.FileHeader
	for _, key := range keys {
		if headers, ok := form.File[key]; ok {
			result = append(result, headers...)
		}
	}
	return result
}

// gatherStringsFromForm reads plain or JSON-array values, skipping empty placeholders
// that some browsers and scripts send.
func gatherStringsFromForm(form *multipart.Form, keys ...string) ([]string, bool, error) {
	if form == nil {
		return nil, false, nil
	}

	var result []string
	for _, key := range keys {
		for _, raw := range form.Value[key] {
			raw = strings.TrimSpace(raw)
			if raw == "" || raw == "null" || raw == "undefined" {
				continue
			}
			if strings.HasPrefix(raw, "[") {
				var arr []string
				if err := json.Unmarshal([]byte(raw), &arr); err != nil {
					return nil, false, fmt.Errorf("failed to decode %s: %w", key, err)
				}
				for _, v := range arr {
					if v = strings.TrimSpace(v); v != "" && v != "null" {
						result = append(result, v)
					}
				}
				continue
			}
			result = append(result, raw)
		}
	}
	return result, len(result) > 0, nil
}

// mediaChangesFromForm turns the ad form's file inputs, remove checkboxes and cover radio
// into service input. The returned closer releases every opened file.
func mediaChangesFromForm(form *multipart.Form) (services.MediaChanges, func(), error) {
	var (
		changes services.MediaChanges
		opened  []io.Closer
	)
	closeAll := func() {
		for _, c := range opened {
			c.Close()
		}
	}

	for _, fh := range collectMediaFiles(form, mediaField, mediaField+"[]") {
		if fh.Size == 0 && fh.Filename == "" {
			continue
		}
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return services.MediaChanges{}, func() {}, err
		}
		opened = append(opened, f)
		changes.Add = append(changes.Add, services.MediaUpload{Filename: fh.Filename, Size: fh.Size, Body: f})
	}

	removed, _, err := gatherStringsFromForm(form, removeMediaField, removeMediaField+"[]")
	if err != nil {
		closeAll()
		return services.MediaChanges{}, func() {}, err
	}
	changes.Remove = removed

	if covers, ok, _ := gatherStringsFromForm(form, coverField); ok {
		cover := covers[len(covers)-1]
		if idx, found := strings.CutPrefix(cover, newCoverPrefix); found {
			if n, err := strconv.Atoi(idx); err == nil && n >= 0 {
				changes.CoverNew = &n
			}
		} else {
			changes.CoverID = cover
		}
	}
	return changes, closeAll, nil
}
