// Package loader turns a document source into plain text for the model.
//
// A source is a local path, an http(s) URL, an s3://bucket/key URI, or "-" for stdin.
// Plain text files are returned verbatim. DOCX, PDF and HTML are extracted and
// whitespace-normalized.
package loader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/jonathan/resume-tools/internal/fetch"
	"github.com/jonathan/resume-tools/internal/storage"
	"go.uber.org/zap"
)

// StdinSource is the source name that reads standard input.
const StdinSource = "-"

var (
	// ErrNotFound matches any NotFoundError via errors.Is
	ErrNotFound = errors.New("document not found")
	// ErrEmptyDocument is returned when a source yields no text
	ErrEmptyDocument = errors.New("document is empty")
)

// NotFoundError reports a local path that does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s", e.Path)
}

// Is makes errors.Is(err, ErrNotFound) true for any NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Document is the text of one loaded source.
type Document struct {
	Source string `json:"source"`
	Format Format `json:"format"`
	Text   string `json:"text"`
}

// Hash returns the SHA-256 hex digest of the document text.
func (d *Document) Hash() string {
	sum := sha256.Sum256([]byte(d.Text))
	return hex.EncodeToString(sum[:])
}

// Loader resolves sources into documents.
type Loader struct {
	store      *storage.Store
	stdin      io.Reader
	fetchOpts  *fetch.Options
	useBrowser bool
	logger     *zap.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithStore sets the store used for s3:// sources.
func WithStore(store *storage.Store) Option {
	return func(l *Loader) { l.store = store }
}

// WithStdin sets the reader used for the "-" source.
func WithStdin(r io.Reader) Option {
	return func(l *Loader) { l.stdin = r }
}

// WithFetchOptions sets HTTP options for URL sources.
func WithFetchOptions(opts *fetch.Options) Option {
	return func(l *Loader) { l.fetchOpts = opts }
}

// WithBrowser enables headless rendering of URL sources whose text is too short.
func WithBrowser(enabled bool) Option {
	return func(l *Loader) { l.useBrowser = enabled }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// New creates a Loader.
func New(opts ...Option) *Loader {
	l := &Loader{
		stdin:  os.Stdin,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.store == nil {
		l.store = storage.New(storage.WithLogger(l.logger))
	}
	return l
}

// Load reads source and returns its text.
func (l *Loader) Load(ctx context.Context, source string) (*Document, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, fmt.Errorf("no document source given")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		doc *Document
		err error
	)
	switch {
	case source == StdinSource:
		doc, err = l.loadStdin()
	case isURL(source):
		doc, err = l.loadURL(ctx, source)
	case storage.IsS3URI(source):
		doc, err = l.loadObject(ctx, source)
	default:
		doc, err = l.loadFile(ctx, source)
	}
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(doc.Text) == "" {
		return nil, fmt.Errorf("%s: %w", source, ErrEmptyDocument)
	}

	l.logger.Debug("loaded document",
		zap.String("source", source),
		zap.String("format", string(doc.Format)),
		zap.Int("chars", len(doc.Text)))
	return doc, nil
}

func (l *Loader) loadStdin() (*Document, error) {
	data, err := io.ReadAll(l.stdin)
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return &Document{Source: StdinSource, Format: FormatText, Text: string(data)}, nil
}

func (l *Loader) loadURL(ctx context.Context, source string) (*Document, error) {
	text, err := fetch.Page(ctx, source, fetch.PageOptions{
		Fetch:      l.fetchOpts,
		UseBrowser: l.useBrowser,
		Logger:     l.logger,
	})
	if err != nil {
		return nil, err
	}
	return &Document{Source: source, Format: FormatHTML, Text: CleanText(text)}, nil
}

func (l *Loader) loadObject(ctx context.Context, source string) (*Document, error) {
	loc, err := storage.Parse(source)
	if err != nil {
		return nil, err
	}
	data, err := l.store.ReadAll(ctx, source)
	if err != nil {
		return nil, err
	}
	return decode(source, FormatFromExt(loc.Ext()), data)
}

func (l *Loader) loadFile(ctx context.Context, path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Path: path}
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	data, err := l.store.ReadAll(ctx, path)
	if err != nil {
		return nil, err
	}
	loc := storage.Location{Path: path}
	return decode(path, FormatFromExt(loc.Ext()), data)
}

func isURL(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
