// Package preset maps encoder preset identifiers to output container
// extensions. Presets are opaque paths or display names; the container is
// inferred from substrings of the identifier.
package preset

import "strings"

// DefaultExtension is returned when no rule matches the identifier.
const DefaultExtension = ".mp4"

// extensionRules are checked in order against the lower-cased identifier;
// the first matching rule wins. Order matters: a preset named
// "H.264 QuickTime" must resolve to .mov, so wrapper formats come first.
var extensionRules = []struct {
	substrings []string
	extension  string
}{
	{[]string{"quicktime", "prores", "apple prores"}, ".mov"},
	{[]string{"dnxhd", "dnxhr", "dnx"}, ".mxf"},
	{[]string{"mxf"}, ".mxf"},
	{[]string{"avi"}, ".avi"},
	{[]string{"hevc", "h.265", "h265"}, ".mp4"},
	{[]string{"h.264", "h264", "avc"}, ".mp4"},
	{[]string{"mp4"}, ".mp4"},
	{[]string{"mov"}, ".mov"},
	{[]string{"cineform", "gopro"}, ".mov"},
	{[]string{"wav", "wave"}, ".wav"},
	{[]string{"mp3"}, ".mp3"},
	{[]string{"aac"}, ".m4a"},
}

// ResolveExtension infers the output container extension from a preset
// path or display name.
func ResolveExtension(identifier string) string {
	if identifier == "" {
		return DefaultExtension
	}

	lower := strings.ToLower(identifier)
	for _, rule := range extensionRules {
		for _, s := range rule.substrings {
			if strings.Contains(lower, s) {
				return rule.extension
			}
		}
	}

	return DefaultExtension
}
