package handler

import (
	"github.com/groupfun/internal/locale"
	"github.com/groupfun/internal/logger"
	"github.com/groupfun/internal/service"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"gorm.io/gorm"
)

// Options 为 HTTP 层的可选配置。
type Options struct {
	// Language 为未显式指定语言时的回复语言。
	Language string
	// IngestTokenHash 为采集方 token 的 bcrypt 哈希，为空时不校验。
	IngestTokenHash string
	Logger          *logger.Logger
}

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db              *gorm.DB
	engine          *service.Engine
	log             *logger.Logger
	language        string
	ingestTokenHash string
	markdown        goldmark.Markdown
	sanitizer       *bluemonday.Policy
}

// NewAPI constructs a handler set around an engine.
func NewAPI(gdb *gorm.DB, engine *service.Engine, opts Options) *API {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &API{
		db:              gdb,
		engine:          engine,
		log:             log.With("component", "http"),
		language:        locale.Resolve(opts.Language),
		ingestTokenHash: opts.IngestTokenHash,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Table),
			goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
		),
		sanitizer: bluemonday.UGCPolicy(),
	}
}
