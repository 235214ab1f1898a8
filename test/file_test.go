package test

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"planboard/internal/config"
)

func uploadFile(t *testing.T, app interface {
	Test(req *http.Request, msTimeout ...int) (*http.Response, error)
}, path, token, filename, contents string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", "image/png")
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("Error creating multipart: %v", err)
	}
	if _, err := io.WriteString(part, contents); err != nil {
		t.Fatalf("Error writing multipart: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	return resp
}

func createSimpleTask(t *testing.T, token, title string) int {
	t.Helper()
	app := CreateTestApp()
	resp := postJSON(t, app, "/tasks/", token, map[string]interface{}{"title": title})
	result := decodeBody(t, resp)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %v", resp.StatusCode, result)
	}
	return int(result["id"].(float64))
}

func TestAttachCollidingFilenames(t *testing.T) {
	requireBackend(t)
	app := CreateTestApp()
	token, _ := CreateTestUser(t, app)

	taskA := createSimpleTask(t, token, "First upload target")
	taskB := createSimpleTask(t, token, "Second upload target")

	resp := uploadFile(t, app, fmt.Sprintf("/tasks/%d/file", taskA), token, "evidence.png", "first-bytes")
	bodyA := decodeBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", resp.StatusCode, bodyA)
	}
	nameA := bodyA["data"].(map[string]interface{})["filename"].(string)

	resp = uploadFile(t, app, fmt.Sprintf("/tasks/%d/file", taskB), token, "evidence.png", "second-bytes")
	bodyB := decodeBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", resp.StatusCode, bodyB)
	}
	nameB := bodyB["data"].(map[string]interface{})["filename"].(string)

	if nameA == nameB {
		t.Fatalf("Expected distinct stored names, both were %q", nameA)
	}

	// Both stay independently retrievable with their own contents.
	for name, want := range map[string]string{nameA: "first-bytes", nameB: "second-bytes"} {
		resp := getJSON(t, app, "/files/"+name, token)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200 fetching %q, got %d", name, resp.StatusCode)
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			t.Fatalf("Error reading file body: %v", err)
		}
		if string(data) != want {
			t.Errorf("Expected %q for %q, got %q", want, name, string(data))
		}
	}
}

func TestUploadRejectsDisallowedType(t *testing.T) {
	requireBackend(t)
	app := CreateTestApp()
	token, _ := CreateTestUser(t, app)
	taskID := createSimpleTask(t, token, "Bad upload target")

	resp := uploadFile(t, app, fmt.Sprintf("/tasks/%d/file", taskID), token, "malware.exe", "nope")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for disallowed extension, got %d", resp.StatusCode)
	}
}

func TestGetFileLegacyFallback(t *testing.T) {
	requireBackend(t)
	app := CreateTestApp()
	token, _ := CreateTestUser(t, app)

	// A file saved under the previous upload layout still resolves.
	if err := os.WriteFile(filepath.Join(config.Uploads.LegacyDir, "archive.pdf"), []byte("old-bytes"), 0o644); err != nil {
		t.Fatalf("Error seeding legacy file: %v", err)
	}

	resp := getJSON(t, app, "/files/archive.pdf", token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 from legacy fallback, got %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("Error reading file body: %v", err)
	}
	if string(data) != "old-bytes" {
		t.Errorf("Expected legacy contents, got %q", string(data))
	}

	resp = getJSON(t, app, "/files/never-existed.pdf", token)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for missing file, got %d", resp.StatusCode)
	}
}
