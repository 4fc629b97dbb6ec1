package toolprovider

import (
	"context"
	"encoding/json"

	"github.com/lashdev/lash/internal/store"
	"github.com/lashdev/lash/pkg/types"
)

// NewViewMessage returns a tool that retrieves the original content of a
// pruned or summarized message part by its archive hash, bridging the
// Store into the sandboxed interpreter. Grounded on
// original_source/lash/src/tools/view_message.rs.
func NewViewMessage(st *store.Store) Provider {
	def := types.ToolDefinition{
		Name:        "view_message",
		Description: "Retrieve the original content of a pruned or summarized message part by its archive hash.",
		Params:      []types.ToolParam{types.TypedParam("hash", "str")},
		Returns:     "str",
	}
	return NewStatic(def, func(ctx context.Context, args []byte) types.ToolResult {
		var in struct {
			Hash string `json:"hash"`
		}
		if err := json.Unmarshal(args, &in); err != nil || in.Hash == "" {
			return types.Err("missing 'hash' argument")
		}
		content, ok := st.GetArchive(in.Hash)
		if !ok {
			return types.Err("no archived content for hash")
		}
		return types.OK(content)
	})
}
