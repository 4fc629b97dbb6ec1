package agent

import "strings"

// fenceBlock is one complete ```...``` code fence found in raw model output.
type fenceBlock struct {
	// Prose is the text preceding this fence, since the previous fence (or
	// the start of the buffer).
	Prose string
	Code  string
}

// extractFences splits raw model output into the ordered list of complete
// code fences it contains, plus the trailing prose after the last fence (or
// the whole string, if there are none). A fence's opening line may carry a
// language tag (```python) which is discarded; an unterminated trailing
// fence is left in the tail rather than treated as code, since a stream
// that dies mid-fence produced no complete CodeBlock.
func extractFences(raw string) (blocks []fenceBlock, tail string) {
	const marker = "```"
	cursor := 0
	proseStart := 0
	for {
		openIdx := strings.Index(raw[cursor:], marker)
		if openIdx < 0 {
			break
		}
		openIdx += cursor
		afterOpen := openIdx + len(marker)

		lineEnd := strings.IndexByte(raw[afterOpen:], '\n')
		bodyStart := afterOpen
		if lineEnd >= 0 {
			tag := raw[afterOpen : afterOpen+lineEnd]
			if !strings.Contains(tag, marker) && len(tag) < 32 {
				bodyStart = afterOpen + lineEnd + 1
			}
		}

		closeRel := strings.Index(raw[bodyStart:], marker)
		if closeRel < 0 {
			break
		}
		closeIdx := bodyStart + closeRel

		blocks = append(blocks, fenceBlock{
			Prose: raw[proseStart:openIdx],
			Code:  strings.TrimSuffix(raw[bodyStart:closeIdx], "\n"),
		})
		cursor = closeIdx + len(marker)
		proseStart = cursor
	}
	return blocks, raw[proseStart:]
}
