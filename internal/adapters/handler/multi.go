package handler

import (
	"context"
	"errors"

	"github.com/tropical-362827/futaba-shieldgemma/internal/core"
)

// MultiHandler fans one report out to several sinks. Every sink sees every
// report even if an earlier sink fails; failures are joined into one error.
type MultiHandler struct {
	handlers []core.ResultHandler
}

// NewMultiHandler creates a fan-out handler.
func NewMultiHandler(handlers ...core.ResultHandler) *MultiHandler {
	return &MultiHandler{handlers: handlers}
}

// Handle delivers the report to each configured handler.
func (h *MultiHandler) Handle(ctx context.Context, report *core.PostReport) error {
	var errs []error
	for _, handler := range h.handlers {
		if err := handler.Handle(ctx, report); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every wrapped handler that supports closing.
func (h *MultiHandler) Close() error {
	var errs []error
	for _, handler := range h.handlers {
		if closer, ok := handler.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
