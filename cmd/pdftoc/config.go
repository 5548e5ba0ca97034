// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/pdiddy/pdftoc/internal/secrets"
	"github.com/pdiddy/pdftoc/pkg/types"
)

// Config keys. Render keys apply to both the chapter and the ToC renderer;
// header and footer keys apply to chapters only.
const (
	keyBackend      = "render.backend"
	keyPaperSize    = "render.paper_size"
	keyOrientation  = "render.orientation"
	keyMarginTop    = "render.margin_top"
	keyMarginBottom = "render.margin_bottom"
	keyMarginLeft   = "render.margin_left"
	keyMarginRight  = "render.margin_right"
	keyMediaType    = "render.css_media_type"
	keyJavaScript   = "render.enable_javascript"
	keyRenderDelay  = "render.render_delay"
	keyFont         = "render.font_family"
	keyImage        = "render.image"

	keyHeaderLeft   = "chapter.header.left"
	keyHeaderCenter = "chapter.header.center"
	keyHeaderRight  = "chapter.header.right"
	keyFooterLeft   = "chapter.footer.left"
	keyFooterCenter = "chapter.footer.center"
	keyFooterRight  = "chapter.footer.right"

	keyWorkDir   = "catalog.work_dir"
	keyNoCache   = "catalog.disabled"
	keyTimeout   = "http.timeout"
	keyUserAgent = "http.user_agent"
	keyRetries   = "http.max_retries"
)

// loadConfig layers config file, environment and bound flag values from v
// over the defaults, and takes PDF passwords from the loaded secrets.
// configFile returns the first existing default config file:
// ./pdftoc.yaml, then <home>/.config/pdftoc/config.yaml. It returns "" when
// neither exists.
func configFile(home string) string {
	candidates := []string{"pdftoc.yaml"}
	if home != "" {
		candidates = append(candidates, filepath.Join(home, ".config", "pdftoc", "config.yaml"))
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}

func loadConfig(v *viper.Viper, s map[string]string) types.BuildConfig {
	cfg := types.DefaultBuildConfig()

	for _, rc := range []*types.RenderConfig{&cfg.Chapter, &cfg.Toc} {
		if v.IsSet(keyBackend) {
			rc.Backend = types.RenderBackend(v.GetString(keyBackend))
		}
		if v.IsSet(keyPaperSize) {
			rc.PaperSize = v.GetString(keyPaperSize)
		}
		if v.IsSet(keyOrientation) {
			rc.Orientation = v.GetString(keyOrientation)
		}
		if v.IsSet(keyMarginTop) {
			rc.MarginTop = v.GetFloat64(keyMarginTop)
		}
		if v.IsSet(keyMarginBottom) {
			rc.MarginBottom = v.GetFloat64(keyMarginBottom)
		}
		if v.IsSet(keyMarginLeft) {
			rc.MarginLeft = v.GetFloat64(keyMarginLeft)
		}
		if v.IsSet(keyMarginRight) {
			rc.MarginRight = v.GetFloat64(keyMarginRight)
		}
		if v.IsSet(keyMediaType) {
			rc.CSSMediaType = types.CSSMediaType(v.GetString(keyMediaType))
		}
		if v.IsSet(keyJavaScript) {
			rc.EnableJavaScript = v.GetBool(keyJavaScript)
		}
		if v.IsSet(keyRenderDelay) {
			rc.RenderDelay = v.GetDuration(keyRenderDelay)
		}
		if v.IsSet(keyFont) {
			rc.FontFamily = v.GetString(keyFont)
		}
		if v.IsSet(keyImage) {
			rc.Image = v.GetString(keyImage)
		}
	}

	setText(v, keyHeaderLeft, &cfg.Chapter.Header.LeftText)
	setText(v, keyHeaderCenter, &cfg.Chapter.Header.CenterText)
	setText(v, keyHeaderRight, &cfg.Chapter.Header.RightText)
	setText(v, keyFooterLeft, &cfg.Chapter.Footer.LeftText)
	setText(v, keyFooterCenter, &cfg.Chapter.Footer.CenterText)
	setText(v, keyFooterRight, &cfg.Chapter.Footer.RightText)

	if v.IsSet(keyWorkDir) {
		cfg.Catalog.WorkDir = v.GetString(keyWorkDir)
	}
	cfg.Catalog.Disabled = v.GetBool(keyNoCache)

	if v.IsSet(keyTimeout) {
		cfg.HTTP.Timeout = v.GetDuration(keyTimeout)
	}
	if v.IsSet(keyUserAgent) {
		cfg.HTTP.UserAgent = v.GetString(keyUserAgent)
	}
	if v.IsSet(keyRetries) {
		cfg.HTTP.MaxRetries = v.GetInt(keyRetries)
	}

	cfg.Protection = secrets.Protection(s)
	return cfg
}

func setText(v *viper.Viper, key string, dst *string) {
	if v.IsSet(key) {
		*dst = v.GetString(key)
	}
}
