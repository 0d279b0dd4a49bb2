package registry

import (
	"context"
	"fmt"

	"github.com/aretw0/concierge/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// TypedFunction is a tool implementation that receives decoded parameters.
type TypedFunction[T any] func(ctx context.Context, tc domain.ToolContext, params T) (domain.ToolResult, error)

// Typed adapts a function with a struct parameter into a domain.Tool.
// Params are decoded with mapstructure (weakly typed, "mapstructure" tags).
func Typed[T any](name string, fn TypedFunction[T]) domain.Tool {
	return Func(name, func(ctx context.Context, tc domain.ToolContext, raw map[string]any) (domain.ToolResult, error) {
		var params T
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &params,
			WeaklyTypedInput: true,
			TagName:          "mapstructure",
		})
		if err != nil {
			return domain.ToolResult{}, err
		}
		if err := decoder.Decode(raw); err != nil {
			// Bad params will not improve on retry.
			return domain.ErrorResult(name, fmt.Sprintf("invalid params: %v", err)), nil
		}
		return fn(ctx, tc, params)
	})
}
