// Package template renders output file names from a token template and a
// per-item context. Rendering is pure: identical input always produces an
// identical, filesystem-safe name.
package template

import (
	"fmt"
	"strings"
)

// DefaultTemplate is applied when the configured template is empty.
const DefaultTemplate = "{index} - {sequence}"

// Context carries the per-item values the tokens resolve against.
// Index is zero-based; the {index} token renders it 1-based.
type Context struct {
	Index        int
	SequenceName string
	ClipName     string
	MarkerName   string
}

// knownExtensions are stripped from name segments before sanitizing so a
// clip named "shot_04.mov" does not render as "shot_04.mov.mp4".
var knownExtensions = []string{
	".mov", ".mp4", ".mxf", ".avi", ".mkv", ".m4v", ".webm",
	".wav", ".mp3", ".aac", ".aiff", ".m4a",
	".prproj", ".psd", ".ai", ".png", ".jpg", ".jpeg", ".tif", ".tiff",
}

const illegalChars = `\/:*?"<>|`

// Render expands the template tokens against ctx and guarantees the result
// ends with extension exactly once. An empty or whitespace-only template
// falls back to DefaultTemplate.
func Render(tmpl string, ctx Context, extension string) string {
	if strings.TrimSpace(tmpl) == "" {
		tmpl = DefaultTemplate
	}

	index := fmt.Sprintf("%03d", ctx.Index+1)
	clip := ctx.ClipName
	if clip == "" {
		clip = ctx.SequenceName
	}

	result := tmpl
	result = strings.ReplaceAll(result, "{index}", index)
	result = strings.ReplaceAll(result, "{sequence}", SanitizeSegment(ctx.SequenceName))
	result = strings.ReplaceAll(result, "{clip}", SanitizeSegment(clip))
	result = strings.ReplaceAll(result, "{marker}", SanitizeSegment(ctx.MarkerName))

	if !strings.HasSuffix(strings.ToLower(result), strings.ToLower(extension)) {
		result += extension
	}

	return result
}

// SanitizeSegment strips a trailing known media/document extension from the
// segment, then replaces characters that are illegal in file names with "_".
func SanitizeSegment(value string) string {
	lower := strings.ToLower(value)
	for _, ext := range knownExtensions {
		if strings.HasSuffix(lower, ext) {
			value = value[:len(value)-len(ext)]
			break
		}
	}

	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if strings.ContainsRune(illegalChars, r) {
			b.WriteRune('_')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
