package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"sync"

	"github.com/valyala/fasthttp"
)

// BlobStore accepts a binary upload and returns a durable public URL.
// Failures surface as a single error carrying the provider's diagnostic
// text; callers decide whether to retry.
type BlobStore interface {
	Upload(ctx context.Context, data []byte, filename string) (string, error)
}

// HTTPBlobStore uploads to an unsigned-preset endpoint (Cloudinary-style):
// a multipart POST with the file and the preset name, answered with JSON
// containing the secure URL.
type HTTPBlobStore struct {
	UploadURL string
	Preset    string

	client *fasthttp.Client
}

func NewHTTPBlobStore(uploadURL, preset string) *HTTPBlobStore {
	return &HTTPBlobStore{
		UploadURL: uploadURL,
		Preset:    preset,
		client:    &fasthttp.Client{},
	}
}

func (b *HTTPBlobStore) Upload(ctx context.Context, data []byte, filename string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to build upload body: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to build upload body: %v", err)
	}
	if err := writer.WriteField("upload_preset", b.Preset); err != nil {
		return "", fmt.Errorf("failed to build upload body: %v", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to build upload body: %v", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(b.UploadURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType(writer.FormDataContentType())
	req.SetBody(body.Bytes())

	// fasthttp has no context plumbing; honor a caller deadline when set.
	var doErr error
	if deadline, ok := ctx.Deadline(); ok {
		doErr = b.client.DoDeadline(req, resp, deadline)
	} else {
		doErr = b.client.Do(req, resp)
	}
	if doErr != nil {
		return "", fmt.Errorf("upload request failed: %v", doErr)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return "", fmt.Errorf("upload rejected (%d): %s", resp.StatusCode(), resp.Body())
	}

	var parsed struct {
		SecureURL string `json:"secure_url"`
		URL       string `json:"url"`
	}
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", fmt.Errorf("unreadable upload response: %v", err)
	}
	if parsed.SecureURL != "" {
		return parsed.SecureURL, nil
	}
	if parsed.URL != "" {
		return parsed.URL, nil
	}
	return "", fmt.Errorf("upload response missing URL: %s", resp.Body())
}

// MemoryBlobs is the in-process BlobStore for tests and the simulator.
type MemoryBlobs struct {
	mu      sync.Mutex
	nextID  int
	blobs   map[string][]byte
	failure error
}

func NewMemoryBlobs() *MemoryBlobs {
	return &MemoryBlobs{blobs: make(map[string][]byte)}
}

// Fail makes every subsequent upload return err. Fail(nil) restores normal
// operation.
func (m *MemoryBlobs) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failure = err
}

func (m *MemoryBlobs) Upload(ctx context.Context, data []byte, filename string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failure != nil {
		return "", m.failure
	}
	m.nextID++
	url := fmt.Sprintf("memory://blobs/%d/%s", m.nextID, filename)
	m.blobs[url] = append([]byte(nil), data...)
	return url, nil
}
