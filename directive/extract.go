package directive

import (
	"regexp"
	"strings"
)

var (
	fileWritePattern = regexp.MustCompile(`(?is)###ARQUIVO:[ \t]*([^\r\n]+)[\r\n]+(.*?)###FIM_ARQUIVO`)
	commandPattern   = regexp.MustCompile(`(?is)###CMD:\s*([^\r\n]+)[\r\n]+(.*?)###FIM_CMD`)

	openingFence = regexp.MustCompile("^```[\\w.+#-]*[ \\t]*\\r?\\n")
)

// ExtractFileWrites returns every file-write block in text, in order.
// Blocks whose name is empty after trimming and quote removal are dropped.
func ExtractFileWrites(text string) []FileWrite {
	var out []FileWrite
	for _, m := range fileWritePattern.FindAllStringSubmatch(text, -1) {
		name := sanitizeName(m[1])
		if name == "" {
			continue
		}
		out = append(out, FileWrite{Name: name, Content: trimCodeFence(m[2])})
	}
	return out
}

// ExtractFirstCommand returns the first command block in text. Later blocks
// in the same reply are ignored; the operator reviews one command per turn.
// The returned command carries Normal risk; callers classify it.
func ExtractFirstCommand(text string) (Command, bool) {
	m := commandPattern.FindStringSubmatch(text)
	if m == nil {
		return Command{}, false
	}
	cmd := strings.TrimSpace(m[1])
	if cmd == "" {
		return Command{}, false
	}
	return Command{Command: cmd, Explanation: strings.TrimSpace(m[2])}, true
}

// Extract returns the file writes in order followed by the first command,
// classified with c. A nil classifier leaves every command Normal.
func Extract(text string, c *Classifier) []Directive {
	var out []Directive
	for _, fw := range ExtractFileWrites(text) {
		out = append(out, fw)
	}
	if cmd, ok := ExtractFirstCommand(text); ok {
		if c != nil {
			cmd.Risk = c.Classify(cmd.Command)
		}
		out = append(out, cmd)
	}
	return out
}

func sanitizeName(raw string) string {
	name := strings.TrimSpace(raw)
	name = strings.NewReplacer(`'`, "", `"`, "", "`", "").Replace(name)
	return strings.TrimSpace(name)
}

// trimCodeFence drops a leading ```lang line and its closing ``` line when
// a model wraps a whole file body. A closing fence without an opening one
// belongs to the file.
func trimCodeFence(content string) string {
	lead := strings.TrimLeft(content, " \t\r\n")
	loc := openingFence.FindStringIndex(lead)
	if loc == nil {
		return content
	}
	content = lead[loc[1]:]

	body := strings.TrimRight(content, " \t\r\n")
	if body == "```" {
		return ""
	}
	if strings.HasSuffix(body, "\n```") {
		return strings.TrimSuffix(body, "```")
	}
	return content
}
