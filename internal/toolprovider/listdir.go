package toolprovider

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/lashdev/lash/pkg/types"
)

// DirEntry is one entry returned by list_dir.
type DirEntry struct {
	Name  string `json:"name"`
	IsDir bool   `json:"isDir"`
	Size  int64  `json:"size"`
}

// NewListDir returns a tool that lists one directory's immediate children
// relative to workDir. Grounded on
// _examples/telnet2-opencode/go-opencode/internal/tool/list.go's ListTool,
// trimmed to a single non-recursive directory listing.
func NewListDir(workDir string) Provider {
	def := types.ToolDefinition{
		Name:        "list_dir",
		Description: "List the immediate entries of a directory.",
		Params:      []types.ToolParam{types.OptionalParam("path", "str")},
		Returns:     "list",
	}
	return NewStatic(def, func(ctx context.Context, args []byte) types.ToolResult {
		var in struct {
			Path string `json:"path"`
		}
		if len(args) > 0 {
			if err := json.Unmarshal(args, &in); err != nil {
				return types.Err("invalid arguments")
			}
		}

		full := workDir
		if in.Path != "" {
			full = in.Path
			if !filepath.IsAbs(full) {
				full = filepath.Join(workDir, full)
			}
		}

		entries, err := os.ReadDir(full)
		if err != nil {
			return types.Err("cannot list directory: " + in.Path)
		}

		out := make([]DirEntry, 0, len(entries))
		for _, e := range entries {
			info, err := e.Info()
			var size int64
			if err == nil {
				size = info.Size()
			}
			out = append(out, DirEntry{Name: e.Name(), IsDir: e.IsDir(), Size: size})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return types.OK(out)
	})
}
