package frontend

import (
	"bytes"
	"context"
	"errors"
	"io"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jo-hoe/setupguide/internal/common"
	"github.com/jo-hoe/setupguide/internal/core"
	"github.com/jo-hoe/setupguide/internal/imagelink"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, config *core.ServiceConfig) *echo.Echo {
	t.Helper()
	coreService, err := core.NewCoreService(config)
	require.NoError(t, err)
	t.Cleanup(func() { _ = coreService.Close() })

	e := echo.New()
	e.Validator = common.NewGenericEchoValidator()
	NewFrontendService(config, coreService).SetRoutes(e)
	return e
}

func redSwatchPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for x := 0; x < 2; x++ {
		for y := 0; y < 2; y++ {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// uploadRequest builds a multipart request; nil image and empty fields are omitted
func uploadRequest(t *testing.T, imageData []byte, fields map[string]string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if imageData != nil {
		part, err := writer.CreateFormFile("image", "upload.png")
		require.NoError(t, err)
		_, err = part.Write(imageData)
		require.NoError(t, err)
	}
	for name, value := range fields {
		require.NoError(t, writer.WriteField(name, value))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/htmx/download-link", body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return req
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRootRedirect(t *testing.T) {
	e := newTestServer(t, core.DefaultConfig())

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/"+MainPageName, rec.Header().Get(echo.HeaderLocation))
}

func TestIndexHandler(t *testing.T) {
	e := newTestServer(t, core.DefaultConfig())

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/"+MainPageName, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMETextHTML)
	assert.Contains(t, rec.Body.String(), "<title>Python Setup Guide for Beginners</title>")
	assert.Contains(t, rec.Body.String(), "pip install notebook")
}

func TestProbeHandler(t *testing.T) {
	e := newTestServer(t, core.DefaultConfig())

	rec := serve(e, httptest.NewRequest(http.MethodGet, ProbePath, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestIconHandler(t *testing.T) {
	e := newTestServer(t, core.DefaultConfig())

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/icon.svg", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get("Cache-Control"), "max-age=604800")
	assert.Contains(t, rec.Body.String(), "<svg")
}

func TestDownloadLinkPage(t *testing.T) {
	e := newTestServer(t, core.DefaultConfig())

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/"+DownloadLinkPageName, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `hx-post="/htmx/download-link"`)
	assert.Contains(t, rec.Body.String(), `value="image.png"`)
}

func TestHtmxDownloadLink(t *testing.T) {
	e := newTestServer(t, core.DefaultConfig())

	rec := serve(e, uploadRequest(t, redSwatchPNG(t), map[string]string{
		"filename": "red.png",
		"label":    "Download red",
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<a href="data:file/png;base64,`)
	assert.Contains(t, body, `download="red.png">Download red</a>`)
}

func TestHtmxDownloadLink_EscapesUserInput(t *testing.T) {
	e := newTestServer(t, core.DefaultConfig())

	rec := serve(e, uploadRequest(t, redSwatchPNG(t), map[string]string{
		"filename": `a"b.png`,
		"label":    "<script>alert(1)</script>",
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;alert(1)&lt;/script&gt;")
	assert.Contains(t, body, `download="a&#34;b.png"`)
}

func TestHtmxDownloadLink_BadRequests(t *testing.T) {
	valid := map[string]string{"filename": "x.png", "label": "x"}

	tests := []struct {
		name      string
		imageData []byte
		fields    map[string]string
	}{
		{name: "missing image", imageData: nil, fields: valid},
		{name: "missing filename", imageData: redSwatchPNG(t), fields: map[string]string{"label": "x"}},
		{name: "missing label", imageData: redSwatchPNG(t), fields: map[string]string{"filename": "x.png"}},
		{name: "not an image", imageData: []byte("definitely not an image"), fields: valid},
		{name: "huge declared dimensions", imageData: []byte(`<svg width="3000000000" height="3000000000"></svg>`), fields: valid},
		{name: "dimensions above pixel limit", imageData: []byte(`<svg width="50000" height="50000"></svg>`), fields: valid},
	}

	e := newTestServer(t, core.DefaultConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(e, uploadRequest(t, tt.imageData, tt.fields))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHtmxDownloadLink_UploadTooLarge(t *testing.T) {
	config := core.DefaultConfig()
	config.MaxUploadBytes = 16
	e := newTestServer(t, config)

	rec := serve(e, uploadRequest(t, redSwatchPNG(t), map[string]string{
		"filename": "red.png",
		"label":    "Download red",
	}))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

// countingReader records how many bytes the server pulled from the request body.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// oversizedUpload builds an 8 MiB upload. Without knownLength the body is sent with an unknown Content-Length.
func oversizedUpload(t *testing.T, knownLength bool) (*http.Request, *countingReader, int) {
	t.Helper()
	req := uploadRequest(t, bytes.Repeat([]byte{0x42}, 8<<20), map[string]string{
		"filename": "big.png",
		"label":    "Download big",
	})
	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)

	counter := &countingReader{r: bytes.NewReader(body)}
	req.Body = io.NopCloser(counter)
	req.ContentLength = -1
	if knownLength {
		req.ContentLength = int64(len(body))
	}
	return req, counter, len(body)
}

func TestHtmxDownloadLink_RejectsDeclaredLengthBeforeReading(t *testing.T) {
	config := core.DefaultConfig()
	config.MaxUploadBytes = 16
	e := newTestServer(t, config)

	req, counter, _ := oversizedUpload(t, true)

	rec := serve(e, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Zero(t, counter.n, "body should not be read when Content-Length exceeds the limit")
}

func TestHtmxDownloadLink_StopsReadingUnknownLengthBody(t *testing.T) {
	config := core.DefaultConfig()
	config.MaxUploadBytes = 16
	e := newTestServer(t, config)

	req, counter, size := oversizedUpload(t, false)

	rec := serve(e, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.LessOrEqual(t, counter.n, config.MaxUploadBytes+multipartOverheadBytes+1)
	assert.Less(t, counter.n, int64(size))
}

// stubGuideService returns fixed results in place of the core service.
type stubGuideService struct {
	page []byte
	link string
	err  error
}

func (s stubGuideService) RenderPage(context.Context) ([]byte, error) {
	return s.page, s.err
}

func (s stubGuideService) BuildDownloadLink([]byte, string, string) (string, error) {
	return s.link, s.err
}

func newStubServer(stub stubGuideService) *echo.Echo {
	e := echo.New()
	e.Validator = common.NewGenericEchoValidator()
	service := &FrontendService{coreService: stub, config: core.DefaultConfig()}
	service.SetRoutes(e)
	return e
}

func TestHtmxDownloadLink_EncodingErrorIsUnprocessable(t *testing.T) {
	e := newStubServer(stubGuideService{err: &imagelink.EncodingError{Err: errors.New("png: invalid format")}})

	rec := serve(e, uploadRequest(t, redSwatchPNG(t), map[string]string{
		"filename": "red.png",
		"label":    "Download red",
	}))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Image could not be encoded as PNG", rec.Body.String())
}

func TestIndexHandler_RenderError(t *testing.T) {
	e := newStubServer(stubGuideService{err: errors.New("template exploded")})

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/"+MainPageName, nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
