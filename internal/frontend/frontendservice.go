package frontend

import (
	"context"
	"errors"
	"fmt"
	"html"
	"html/template"
	"io"
	"log/slog"
	"net/http"

	"github.com/jo-hoe/setupguide/internal/core"
	"github.com/jo-hoe/setupguide/internal/imagelink"
	"github.com/labstack/echo/v4"
)

const (
	MainPageName         = "index.html"
	DownloadLinkPageName = "download-link.html"
	ProbePath            = "/probe"

	// multipartOverheadBytes covers boundaries, part headers and the text fields of an upload.
	multipartOverheadBytes = 64 << 10
)

// guideService is the part of core.CoreService the routes depend on.
type guideService interface {
	RenderPage(ctx context.Context) ([]byte, error)
	BuildDownloadLink(imageData []byte, filename, label string) (string, error)
}

type FrontendService struct {
	coreService guideService
	config      *core.ServiceConfig
}

type downloadLinkRequest struct {
	Filename string `form:"filename" validate:"required"`
	Label    string `form:"label" validate:"required"`
}

type downloadLinkPage struct {
	DefaultFilename string
	DefaultLabel    string
}

func NewFrontendService(config *core.ServiceConfig, coreService *core.CoreService) *FrontendService {
	return &FrontendService{
		coreService: coreService,
		config:      config,
	}
}

// rootRedirectHandler redirects root path to index.html
func (service *FrontendService) rootRedirectHandler(ctx echo.Context) error {
	return ctx.Redirect(http.StatusMovedPermanently, "/"+MainPageName)
}

func (service *FrontendService) SetRoutes(e *echo.Echo) {
	e.Renderer = &Template{
		templates: template.Must(template.New("").ParseFS(templateFS, viewsPattern)),
	}

	e.GET("/", service.rootRedirectHandler)
	e.GET("/"+MainPageName, service.indexHandler)
	e.GET(ProbePath, service.probeHandler)

	// Standalone image-to-link tool, not part of the guide itself
	e.GET("/"+DownloadLinkPageName, service.downloadLinkPageHandler)
	e.POST("/htmx/download-link", service.htmxDownloadLinkHandler)

	e.GET("/icon.svg", service.iconHandler)
}

func (service *FrontendService) indexHandler(ctx echo.Context) error {
	page, err := service.coreService.RenderPage(ctx.Request().Context())
	if err != nil {
		slog.Error("indexHandler: failed to render guide",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to render page")
	}
	return ctx.HTMLBlob(http.StatusOK, page)
}

func (service *FrontendService) probeHandler(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "ok")
}

func (service *FrontendService) downloadLinkPageHandler(ctx echo.Context) error {
	return ctx.Render(http.StatusOK, DownloadLinkPageName, downloadLinkPage{
		DefaultFilename: "image.png",
		DefaultLabel:    "Download image",
	})
}

func (service *FrontendService) htmxDownloadLinkHandler(ctx echo.Context) error {
	bodyLimit := service.config.MaxUploadBytes + multipartOverheadBytes
	httpRequest := ctx.Request()
	if httpRequest.ContentLength > bodyLimit {
		slog.Warn("htmxDownloadLinkHandler: request body too large",
			"status", http.StatusRequestEntityTooLarge, "content_length", httpRequest.ContentLength, "limit_bytes", bodyLimit)
		return service.uploadTooLarge(ctx)
	}
	httpRequest.Body = http.MaxBytesReader(ctx.Response(), httpRequest.Body, bodyLimit)

	var request downloadLinkRequest
	if err := ctx.Bind(&request); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			slog.Warn("htmxDownloadLinkHandler: request body too large",
				"status", http.StatusRequestEntityTooLarge, "limit_bytes", maxBytesErr.Limit)
			return service.uploadTooLarge(ctx)
		}
		slog.Warn("htmxDownloadLinkHandler: failed to bind form",
			"status", http.StatusBadRequest, "error", err)
		return ctx.String(http.StatusBadRequest, "Invalid form data")
	}
	if err := ctx.Validate(&request); err != nil {
		slog.Warn("htmxDownloadLinkHandler: invalid form",
			"status", http.StatusBadRequest, "error", err)
		return ctx.String(http.StatusBadRequest, "File name and link text are required")
	}

	file, err := ctx.FormFile("image")
	if err != nil {
		slog.Warn("htmxDownloadLinkHandler: failed to get uploaded file",
			"status", http.StatusBadRequest, "error", err)
		return ctx.String(http.StatusBadRequest, "Failed to get uploaded file")
	}
	if file.Size > service.config.MaxUploadBytes {
		slog.Warn("htmxDownloadLinkHandler: upload too large",
			"status", http.StatusRequestEntityTooLarge, "size_bytes", file.Size, "limit_bytes", service.config.MaxUploadBytes)
		return service.uploadTooLarge(ctx)
	}

	src, err := file.Open()
	if err != nil {
		slog.Error("htmxDownloadLinkHandler: failed to open uploaded file",
			"status", http.StatusInternalServerError, "error", err, "filename", file.Filename)
		return ctx.String(http.StatusInternalServerError, "Failed to open uploaded file")
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			slog.Error("htmxDownloadLinkHandler: failed to close uploaded file reader", "error", cerr, "filename", file.Filename)
		}
	}()

	imageData, err := io.ReadAll(src)
	if err != nil {
		slog.Error("htmxDownloadLinkHandler: failed to read uploaded file",
			"status", http.StatusInternalServerError, "error", err, "filename", file.Filename)
		return ctx.String(http.StatusInternalServerError, "Failed to read uploaded file")
	}

	// the encoder inserts both values verbatim, so escape user input here
	link, err := service.coreService.BuildDownloadLink(imageData, html.EscapeString(request.Filename), html.EscapeString(request.Label))
	if err != nil {
		var encErr *imagelink.EncodingError
		if errors.As(err, &encErr) {
			slog.Error("htmxDownloadLinkHandler: failed to encode image",
				"status", http.StatusUnprocessableEntity, "error", err, "filename", file.Filename)
			return ctx.String(http.StatusUnprocessableEntity, "Image could not be encoded as PNG")
		}
		slog.Warn("htmxDownloadLinkHandler: failed to decode image",
			"status", http.StatusBadRequest, "error", err, "filename", file.Filename)
		return ctx.String(http.StatusBadRequest, "Uploaded file is not a supported image")
	}

	return ctx.HTML(http.StatusOK, fmt.Sprintf(`<div id="download-link">%s</div>`, link))
}

func (service *FrontendService) uploadTooLarge(ctx echo.Context) error {
	return ctx.String(http.StatusRequestEntityTooLarge, fmt.Sprintf("Image exceeds %d bytes", service.config.MaxUploadBytes))
}

func (service *FrontendService) iconHandler(ctx echo.Context) error {
	data, err := assetsFS.ReadFile("views/icon.svg")
	if err != nil {
		slog.Error("iconHandler: failed to read icon.svg", "status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to load icon")
	}
	// Cache for 7 days
	ctx.Response().Header().Set("Cache-Control", "public, max-age=604800, immutable")
	return ctx.Blob(http.StatusOK, "image/svg+xml", data)
}
