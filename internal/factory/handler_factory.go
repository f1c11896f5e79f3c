package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tropical-362827/futaba-shieldgemma/internal/adapters/handler"
	"github.com/tropical-362827/futaba-shieldgemma/internal/config"
	"github.com/tropical-362827/futaba-shieldgemma/internal/core"
	"github.com/tropical-362827/futaba-shieldgemma/internal/utils"
	"go.uber.org/zap"
)

// HandlerFactory creates result handlers based on configuration
type HandlerFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewHandlerFactory creates a new handler factory
func NewHandlerFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *HandlerFactory {
	return &HandlerFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateResultHandler assembles the configured sinks. Several enabled sinks
// fan out through a MultiHandler; with nothing enabled the console handler
// is used so reports are never dropped silently.
func (f *HandlerFactory) CreateResultHandler() (core.ResultHandler, error) {
	var handlers []core.ResultHandler

	if f.cfg.GetBool("handlers.console.enabled") {
		verbose := f.cfg.GetBool("handlers.console.verbose")
		handlers = append(handlers, handler.NewConsoleHandler(f.logger, f.textProcessor, verbose))
	}

	if f.cfg.GetBool("handlers.sqlite.enabled") {
		path := f.cfg.GetString("handlers.sqlite.path")
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create report sink directory: %w", err)
		}
		sink, err := handler.NewSQLiteSink(path, f.cfg.GetString("futaba.thread"), f.logger)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, sink)
	}

	if f.cfg.GetBool("handlers.smtp.enabled") {
		futabaCfg := f.cfg.GetFutaba()
		threadURL := fmt.Sprintf("https://%s/%s/res/%s.htm", futabaCfg.Domain, futabaCfg.Board, futabaCfg.Thread)
		handlers = append(handlers, handler.NewSMTPNotifier(
			f.cfg.GetString("handlers.smtp.addr"),
			f.cfg.GetString("handlers.smtp.from"),
			f.cfg.GetStringSlice("handlers.smtp.to"),
			f.cfg.GetString("handlers.smtp.username"),
			f.cfg.GetString("handlers.smtp.password"),
			threadURL,
			f.logger,
		))
	}

	if len(handlers) == 0 {
		f.logger.Warn("No result handlers enabled, falling back to console")
		handlers = append(handlers, handler.NewConsoleHandler(f.logger, f.textProcessor, false))
	}
	if len(handlers) == 1 {
		return handlers[0], nil
	}
	return handler.NewMultiHandler(handlers...), nil
}
