package toolprovider

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/lashdev/lash/pkg/types"
)

const defaultReadLimit = 2000

// NewReadFile returns a tool that reads a text file relative to workDir and
// returns its lines as plain text (no line numbers), starting at offset and
// truncated to limit lines.
// Grounded on
// _examples/telnet2-opencode/go-opencode/internal/tool/read.go's ReadTool,
// trimmed to the plain-text path — image/binary handling is out of this
// illustrative set's scope.
func NewReadFile(workDir string) Provider {
	def := types.ToolDefinition{
		Name:        "read_file",
		Description: "Read a text file's contents, optionally offset and limited by line.",
		Params: []types.ToolParam{
			types.TypedParam("path", "str"),
			types.OptionalParam("offset", "int"),
			types.OptionalParam("limit", "int"),
		},
		Returns: "str",
	}
	return NewStatic(def, func(ctx context.Context, args []byte) types.ToolResult {
		var in struct {
			Path   string `json:"path"`
			Offset int    `json:"offset"`
			Limit  int    `json:"limit"`
		}
		if err := json.Unmarshal(args, &in); err != nil || in.Path == "" {
			return types.Err("missing 'path' argument")
		}
		if in.Limit <= 0 {
			in.Limit = defaultReadLimit
		}

		full := in.Path
		if !filepath.IsAbs(full) {
			full = filepath.Join(workDir, full)
		}

		f, err := os.Open(full)
		if err != nil {
			return types.Err("file not found: " + in.Path)
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)

		var out string
		lineNum := 0
		kept := 0
		for scanner.Scan() {
			lineNum++
			if in.Offset > 0 && lineNum < in.Offset {
				continue
			}
			if kept >= in.Limit {
				break
			}
			kept++
			out += scanner.Text() + "\n"
		}
		return types.OK(out)
	})
}
