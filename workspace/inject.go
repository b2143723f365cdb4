package workspace

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"unicode/utf8"

	"github.com/m4xw311/gemini-agent/errors"
	"go.uber.org/zap"
)

var (
	ErrTooLarge = errors.Sentinel("file too large")
	ErrBinary   = errors.Sentinel("binary file")
)

var referencePattern = regexp.MustCompile(`@([\w.\-]+)`)

// ResolvedFile is one successful @name lookup.
type ResolvedFile struct {
	AbsolutePath string
	RelativePath string
	Content      string
}

// Injector rewrites operator input, replacing @name tokens with file blocks
// or inline error markers. It performs no network I/O.
type Injector struct {
	resolver *Resolver
	maxChars int
	root     func() (string, error)
	notify   func(string)
	logger   *zap.Logger
}

type InjectorOption func(*Injector)

// WithRoot overrides how the search root is obtained. The default is the
// process working directory at call time, so a previous "cd" is honored.
func WithRoot(root func() (string, error)) InjectorOption {
	return func(in *Injector) { in.root = root }
}

// WithNotifier receives one human-readable line per resolved reference.
func WithNotifier(notify func(string)) InjectorOption {
	return func(in *Injector) { in.notify = notify }
}

func WithLogger(logger *zap.Logger) InjectorOption {
	return func(in *Injector) { in.logger = logger }
}

func NewInjector(resolver *Resolver, maxChars int, opts ...InjectorOption) *Injector {
	in := &Injector{
		resolver: resolver,
		maxChars: maxChars,
		root:     os.Getwd,
		notify:   func(string) {},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Inject returns text with every @name token substituted.
func (in *Injector) Inject(text string) string {
	return referencePattern.ReplaceAllStringFunc(text, func(token string) string {
		name := token[1:]
		f, err := in.Load(name)
		if err != nil {
			in.logger.Debug("reference not injected", zap.String("file", name), zap.Error(err))
			return Marker(name, err)
		}
		in.notify(fmt.Sprintf("[Sistema] Encontrado: %s...", f.RelativePath))
		in.logger.Debug("reference injected",
			zap.String("file", name),
			zap.String("path", f.RelativePath),
			zap.Int("chars", utf8.RuneCountInString(f.Content)))
		return FormatBlock(f)
	})
}

// References lists the distinct names referenced in text, in order.
func References(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range referencePattern.FindAllStringSubmatch(text, -1) {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		out = append(out, m[1])
	}
	return out
}

// Load resolves name from the current root and reads it, enforcing the size
// and text-only limits.
func (in *Injector) Load(name string) (*ResolvedFile, error) {
	root, err := in.root()
	if err != nil {
		return nil, errors.Wrapf(err, "determining working directory")
	}
	path, err := in.resolver.Resolve(root, name)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", name)
	}
	// A file with more bytes than maxChars*UTFMax cannot fit; skip reading it.
	if in.maxChars > 0 && info.Size() > int64(in.maxChars)*utf8.UTFMax {
		return nil, errors.Wrapf(ErrTooLarge, "%s has %d bytes", name, info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", name)
	}
	if in.maxChars > 0 && utf8.RuneCount(data) > in.maxChars {
		return nil, errors.Wrapf(ErrTooLarge, "%s exceeds %d characters", name, in.maxChars)
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return nil, errors.Wrapf(ErrBinary, "%s contains a null byte", name)
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	return &ResolvedFile{AbsolutePath: path, RelativePath: rel, Content: string(data)}, nil
}

// FormatBlock renders a resolved file the way the model is told to expect it.
func FormatBlock(f *ResolvedFile) string {
	return fmt.Sprintf("\n--- INÍCIO ARQUIVO: %s ---\n%s\n--- FIM ARQUIVO ---\n", f.RelativePath, f.Content)
}

// Marker renders the inline error placed where a reference could not be
// injected.
func Marker(name string, err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return fmt.Sprintf("(ERRO: O arquivo %s não foi encontrado em nenhuma subpasta do projeto)", name)
	case errors.Is(err, ErrTooLarge):
		return fmt.Sprintf("(ERRO: O arquivo %s é grande demais para ser incluído)", name)
	case errors.Is(err, ErrBinary):
		return fmt.Sprintf("(ERRO: O arquivo %s é binário e não foi incluído)", name)
	default:
		return fmt.Sprintf("(ERRO FATAL: Leitura de %s falhou: %v)", name, err)
	}
}
