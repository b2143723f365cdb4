// Package directive parses the tagged blocks a model embeds in its replies to
// propose file writes and shell commands.
//
// The wire format is fixed:
//
//	###ARQUIVO: <name>
//	<content>
//	###FIM_ARQUIVO
//
//	###CMD: <command>
//	<optional explanation>
//	###FIM_CMD
//
// Parsing happens once, at the boundary; everything downstream works on the
// typed Directive values.
package directive

// Kind tags the Directive variants.
type Kind int

const (
	KindFileWrite Kind = iota
	KindCommand
)

func (k Kind) String() string {
	switch k {
	case KindFileWrite:
		return "file_write"
	case KindCommand:
		return "command"
	default:
		return "unknown"
	}
}

// Directive is implemented by FileWrite and Command only.
type Directive interface {
	Kind() Kind
	directive()
}

// FileWrite proposes replacing the content of a file relative to the working
// directory.
type FileWrite struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

func (FileWrite) Kind() Kind { return KindFileWrite }
func (FileWrite) directive() {}

// Risk is the severity attached to a command proposal.
type Risk int

const (
	Normal Risk = iota
	Critical
)

func (r Risk) String() string {
	if r == Critical {
		return "critical"
	}
	return "normal"
}

// Command proposes running a shell command.
type Command struct {
	Command     string `json:"command"`
	Explanation string `json:"explanation,omitempty"`
	Risk        Risk   `json:"-"`
}

func (Command) Kind() Kind { return KindCommand }
func (Command) directive() {}
