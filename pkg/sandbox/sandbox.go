// Package sandbox executes rewriter definitions against staged source
// files. A Sandbox admits one session at a time; every session starts with
// an empty rewriter table and file overlay and leaves nothing behind.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/Sumatoshi-tech/snipgen/pkg/ast"
)

// Sentinel errors.
var (
	ErrUnknownCall       = errors.New("unknown call")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrDuplicateRewriter = errors.New("rewriter already registered")
	ErrConflictLimit     = errors.New("conflicting actions did not settle")
	ErrFileNotFound      = errors.New("file not staged")
	ErrFileTooLarge      = errors.New("file exceeds size limit")
	ErrReleased          = errors.New("session already released")
)

const (
	defaultMaxRounds   = 10
	defaultMaxFileSize = 4 << 20
)

// Sandbox serializes sessions.
type Sandbox struct {
	parser      *ast.Parser
	logger      *slog.Logger
	sem         chan struct{}
	maxRounds   int
	maxFileSize int64
}

// Option configures a Sandbox.
type Option func(*Sandbox)

// WithLogger sets the logger used for conflict and round diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sandbox) { s.logger = l }
}

// WithMaxRounds bounds how often a file is re-processed after conflicts.
func WithMaxRounds(n int) Option {
	return func(s *Sandbox) {
		if n > 0 {
			s.maxRounds = n
		}
	}
}

// WithMaxFileSize bounds the size of staged files.
func WithMaxFileSize(n int64) Option {
	return func(s *Sandbox) {
		if n > 0 {
			s.maxFileSize = n
		}
	}
}

// WithParser sets the parser backend.
func WithParser(p *ast.Parser) Option {
	return func(s *Sandbox) { s.parser = p }
}

// New creates a sandbox.
func New(opts ...Option) *Sandbox {
	s := &Sandbox{
		logger:      slog.Default(),
		sem:         make(chan struct{}, 1),
		maxRounds:   defaultMaxRounds,
		maxFileSize: defaultMaxFileSize,
	}

	for _, o := range opts {
		o(s)
	}

	if s.parser == nil {
		s.parser = ast.NewParser()
	}

	return s
}

// Default is the process-wide sandbox.
var Default = sync.OnceValue(func() *Sandbox { return New() })

// Acquire waits for exclusive use of the sandbox.
func (s *Sandbox) Acquire(ctx context.Context) (*Session, error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("acquire sandbox: %w", ctx.Err())
	}

	return &Session{sandbox: s, files: map[string]string{}, processed: map[string]bool{}}, nil
}

// Run executes definition against input staged as the variant's file and
// returns the file's resulting content.
func (s *Sandbox) Run(ctx context.Context, v ast.Variant, definition, input string) (string, error) {
	return s.RunFile(ctx, v.StagedFile(), definition, input)
}

// RunFile executes definition against input staged at name and returns the
// file's resulting content. A definition whose file scopes never select name
// leaves the input unchanged and is reported as a warning.
func (s *Sandbox) RunFile(ctx context.Context, name, definition, input string) (string, error) {
	sess, err := s.Acquire(ctx)
	if err != nil {
		return "", err
	}
	defer sess.Release()

	err = sess.Stage(name, input)
	if err != nil {
		return "", err
	}

	err = sess.Run(ctx, definition)
	if err != nil {
		return "", err
	}

	if !sess.Processed(name) {
		s.logger.WarnContext(ctx, "no withinFiles scope matched the staged file", "file", name)
	}

	return sess.ReadFile(name)
}

// RewriterInfo describes a registered rewriter.
type RewriterInfo struct {
	Group       string
	Name        string
	Description string
}

// Session is one exclusive use of a sandbox.
type Session struct {
	sandbox   *Sandbox
	files     map[string]string
	processed map[string]bool
	rewriters []*rewriter
	released  bool
}

// Release clears the rewriter table and the overlay and frees the sandbox.
// It is safe to call more than once.
func (s *Session) Release() {
	if s.released {
		return
	}

	s.released = true
	s.files = nil
	s.processed = nil
	s.rewriters = nil

	<-s.sandbox.sem
}

// Stage places content at path in the overlay.
func (s *Session) Stage(path, content string) error {
	if s.released {
		return ErrReleased
	}

	if int64(len(content)) > s.sandbox.maxFileSize {
		return fmt.Errorf("%w: %s (%d bytes)", ErrFileTooLarge, path, len(content))
	}

	s.files[path] = content

	return nil
}

// ReadFile returns the overlay content of path.
func (s *Session) ReadFile(path string) (string, error) {
	if s.released {
		return "", ErrReleased
	}

	content, ok := s.files[path]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	return content, nil
}

// Files lists staged paths in sorted order.
func (s *Session) Files() []string {
	paths := make([]string, 0, len(s.files))
	for p := range s.files {
		paths = append(paths, p)
	}

	slices.Sort(paths)

	return paths
}

// Processed reports whether a file scope of any rewriter run so far
// selected path.
func (s *Session) Processed(path string) bool {
	return s.processed[path]
}

// Rewriters lists the rewriters registered so far.
func (s *Session) Rewriters() []RewriterInfo {
	out := make([]RewriterInfo, 0, len(s.rewriters))
	for _, rw := range s.rewriters {
		out = append(out, RewriterInfo{Group: rw.group, Name: rw.name, Description: rw.description})
	}

	return out
}

// Run registers the rewriters of definition and processes them against the
// staged files.
func (s *Session) Run(ctx context.Context, definition string) error {
	if s.released {
		return ErrReleased
	}

	program, err := s.sandbox.parser.Parse(ctx, ast.Light, definition)
	if err != nil {
		return fmt.Errorf("parse definition: %w", err)
	}

	added, err := s.register(program)
	if err != nil {
		return err
	}

	for _, rw := range added {
		err = s.process(ctx, rw)
		if err != nil {
			return fmt.Errorf("rewriter %s/%s: %w", rw.group, rw.name, err)
		}
	}

	return nil
}
