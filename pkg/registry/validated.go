package registry

import (
	"context"
	"fmt"

	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/schema"
)

// Described is implemented by tools that declare their parameters.
type Described interface {
	ParamSchema() schema.Schema
}

type validatedTool struct {
	domain.Tool
	params schema.Schema
}

// Validated checks params against s before calling tool. Invalid params fail the
// call without reaching the tool and are not retried.
func Validated(tool domain.Tool, s schema.Schema) domain.Tool {
	return &validatedTool{Tool: tool, params: s}
}

func (v *validatedTool) ParamSchema() schema.Schema {
	return v.params
}

func (v *validatedTool) Invoke(ctx context.Context, tc domain.ToolContext, params map[string]any) (domain.ToolResult, error) {
	if err := schema.Validate(v.params, params); err != nil {
		return domain.ErrorResult(v.Name(), fmt.Sprintf("invalid params: %v", err)), nil
	}
	return v.Tool.Invoke(ctx, tc, params)
}
