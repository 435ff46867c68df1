package entity

import (
	"context"

	"hublink/internal/message"
)

// APIHandler serves hub-forwarded REST requests under a package name.
type APIHandler interface {
	PackageName() string
	HandleRequest(ctx context.Context, req message.APIRequest) (message.APIResponse, error)
	Unload(ctx context.Context) error
}

// APIHandlerFunc adapts a function to the APIHandler interface for simple
// handlers with no unload work.
type APIHandlerFunc struct {
	Package string
	Handler func(ctx context.Context, req message.APIRequest) (message.APIResponse, error)
}

func (h APIHandlerFunc) PackageName() string { return h.Package }

func (h APIHandlerFunc) HandleRequest(ctx context.Context, req message.APIRequest) (message.APIResponse, error) {
	return h.Handler(ctx, req)
}

func (h APIHandlerFunc) Unload(context.Context) error { return nil }
