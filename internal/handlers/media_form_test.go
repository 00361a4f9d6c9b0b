package handlers

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"
)

func TestGatherStringsFromFormSkipsPlaceholders(t *testing.T) {
	form := &multipart.Form{
		Value: map[string][]string{
			"remove_media": {"[\"m1\", \"\", \"null\"]", "m2", "undefined", ""},
		},
	}

	values, ok, err := gatherStringsFromForm(form, "remove_media")
	if err != nil {
		t.Fatalf("gatherStringsFromForm returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true when valid values present")
	}
	if len(values) != 2 || values[0] != "m1" || values[1] != "m2" {
		t.Fatalf("unexpected values: %#v", values)
	}
}

func TestGatherStringsFromFormEmpty(t *testing.T) {
	form := &multipart.Form{
		Value: map[string][]string{
			"remove_media": {"", "null", "undefined"},
		},
	}

	values, ok, err := gatherStringsFromForm(form, "remove_media")
	if err != nil {
		t.Fatalf("gatherStringsFromForm returned error: %v", err)
	}
	if ok || len(values) != 0 {
		t.Fatalf("expected no values, got %#v", values)
	}
}

func TestMediaChangesFromForm(t *testing.T) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, name := range []string{"front.jpg", "back.jpg"} {
		part, err := writer.CreateFormFile("media", name)
		if err != nil {
			t.Fatalf("CreateFormFile failed: %v", err)
		}
		if _, err := part.Write([]byte("data-" + name)); err != nil {
			t.Fatalf("writing to form file failed: %v", err)
		}
	}
	_ = writer.WriteField("remove_media", "old-1")
	_ = writer.WriteField("cover", "new:1")
	if err := writer.Close(); err != nil {
		t.Fatalf("closing writer failed: %v", err)
	}

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatalf("ParseMultipartForm failed: %v", err)
	}

	changes, closeAll, err := mediaChangesFromForm(req.MultipartForm)
	if err != nil {
		t.Fatalf("mediaChangesFromForm returned error: %v", err)
	}
	defer closeAll()

	if len(changes.Add) != 2 {
		t.Fatalf("expected 2 uploads, got %d", len(changes.Add))
	}
	raw, err := io.ReadAll(changes.Add[1].Body)
	if err != nil || string(raw) != "data-back.jpg" {
		t.Fatalf("unexpected second upload body %q (%v)", raw, err)
	}
	if len(changes.Remove) != 1 || changes.Remove[0] != "old-1" {
		t.Fatalf("unexpected removals %#v", changes.Remove)
	}
	if changes.CoverNew == nil || *changes.CoverNew != 1 || changes.CoverID != "" {
		t.Fatalf("expected the second new file as cover, got %+v", changes)
	}
}

func TestMediaChangesFromFormExistingCover(t *testing.T) {
	form := &multipart.Form{Value: map[string][]string{"cover": {"media-7"}}}

	changes, closeAll, err := mediaChangesFromForm(form)
	if err != nil {
		t.Fatalf("mediaChangesFromForm returned error: %v", err)
	}
	closeAll()
	if changes.CoverID != "media-7" || changes.CoverNew != nil {
		t.Fatalf("unexpected cover selection %+v", changes)
	}
}
