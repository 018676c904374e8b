package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jo-hoe/setupguide/internal/cache"
	"github.com/jo-hoe/setupguide/internal/content"
	"github.com/jo-hoe/setupguide/internal/imagelink"
	"github.com/jo-hoe/setupguide/internal/page"
	"github.com/jo-hoe/setupguide/internal/render"
)

const indexPageName = "index"

type CoreService struct {
	config   *ServiceConfig
	guide    *content.Guide
	renderer *render.HTMLRenderer
	cache    cache.PageCache
}

func NewCoreService(config *ServiceConfig) (*CoreService, error) {
	guide, err := loadGuide(config.ContentPath)
	if err != nil {
		return nil, err
	}

	pageCache, err := cache.NewCache(config.Cache.Type, config.Cache.ConnectionString, config.Cache.TTL)
	if err != nil {
		return nil, err
	}

	return &CoreService{
		config:   config,
		guide:    guide,
		renderer: render.NewHTMLRenderer(),
		cache:    pageCache,
	}, nil
}

func loadGuide(contentPath string) (*content.Guide, error) {
	if contentPath == "" {
		guide, err := content.Default()
		if err != nil {
			return nil, fmt.Errorf("failed to load embedded guide: %w", err)
		}
		return guide, nil
	}

	guide, err := content.Load(contentPath)
	if err != nil {
		return nil, err
	}
	slog.Info("guide loaded from file", "path", contentPath, "sections", len(guide.Sections))
	return guide, nil
}

// Document builds the page tree for the configured guide.
func (service *CoreService) Document() *page.Document {
	return page.FromGuide(service.guide)
}

// RenderPage returns the guide as HTML, served from the cache when possible.
// Cache failures are logged and never fail the render.
func (service *CoreService) RenderPage(ctx context.Context) ([]byte, error) {
	key := cache.PageKey(indexPageName, service.guide.Source)

	cached, found, err := service.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("RenderPage: cache read failed; rendering directly", "key", key, "error", err)
	} else if found {
		slog.Debug("RenderPage: cache hit", "key", key, "size_bytes", len(cached))
		return cached, nil
	}

	rendered, err := service.renderer.Render(service.Document())
	if err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}

	if err := service.cache.Set(ctx, key, rendered); err != nil {
		slog.Warn("RenderPage: cache write failed", "key", key, "error", err)
	}
	slog.Debug("RenderPage: rendered page", "key", key, "size_bytes", len(rendered))
	return rendered, nil
}

// BuildDownloadLink decodes uploaded image bytes and returns a data URI anchor.
// Decode failures are plain errors; encoding failures are *imagelink.EncodingError.
func (service *CoreService) BuildDownloadLink(imageData []byte, filename, label string) (string, error) {
	img, format, err := imagelink.DecodeImage(imageData, imagelink.DecodeOptions{
		SVGFallbackWidth:  service.config.SVGFallbackWidth,
		SVGFallbackHeight: service.config.SVGFallbackHeight,
		MaxPixels:         service.config.MaxImagePixels,
	})
	if err != nil {
		return "", err
	}

	link, err := imagelink.BuildDownloadLink(img, filename, label)
	if err != nil {
		return "", err
	}
	slog.Debug("BuildDownloadLink: link created",
		"source_format", format,
		"filename", filename,
		"link_size_bytes", len(link))
	return link, nil
}

func (service *CoreService) Close() error {
	return service.cache.Close()
}
