// Package ops is the application controller: the only place where the
// current image, the generation settings, the caption session and the
// persistence store meet. The web UI, the CLI and the MCP server all drive
// the same Controller.
package ops

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hpungsan/captiongenius/internal/caption"
	"github.com/hpungsan/captiongenius/internal/config"
	"github.com/hpungsan/captiongenius/internal/logging"
	"github.com/hpungsan/captiongenius/internal/settings"
)

// Store is the persistence the controller depends on. *store.Store implements it.
type Store interface {
	RecordHistory(ctx context.Context, image caption.Image, captions []caption.GeneratedCaption, s settings.Settings) (caption.HistoryItem, error)
	ClearHistory(ctx context.Context) error
	SaveFavorite(ctx context.Context, c caption.GeneratedCaption, s settings.Settings) (caption.CollectionItem, bool, error)
	RemoveFavorite(ctx context.Context, id string) (bool, error)
	History() []caption.HistoryItem
	Favorites() []caption.CollectionItem
	HistoryItem(id string) (caption.HistoryItem, bool)
	Favorite(id string) (caption.CollectionItem, bool)
}

// Generator produces caption texts for an image. *generate.Client implements it.
type Generator interface {
	Generate(ctx context.Context, img caption.Image, s settings.Settings) ([]string, error)
}

// Options wires a Controller.
type Options struct {
	Store     Store
	Generator Generator
	Config    *config.Config
	Logger    *slog.Logger

	// BaseDir is the data directory (~/.captiongenius). Favorite exports
	// default to BaseDir/exports.
	BaseDir string
}

// Controller holds per-process application state. It is safe for concurrent
// use; the lock is released while a generation is in flight.
type Controller struct {
	store   Store
	gen     Generator
	cfg     *config.Config
	logger  *slog.Logger
	baseDir string

	mu       sync.Mutex
	image    caption.Image
	settings settings.Settings
	session  *caption.Session
}

// New returns a controller with default settings, no image and an empty session.
func New(opts Options) *Controller {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Controller{
		store:    opts.Store,
		gen:      opts.Generator,
		cfg:      cfg,
		logger:   logger,
		baseDir:  opts.BaseDir,
		settings: settings.Default(),
		session:  caption.NewSession(),
	}
}

// Config returns the controller's configuration.
func (c *Controller) Config() *config.Config {
	return c.cfg
}

// State is a point-in-time snapshot used for rendering.
type State struct {
	HasImage   bool                       `json:"has_image"`
	ImageMime  string                     `json:"image_mime,omitempty"`
	ImageBytes int                        `json:"image_bytes,omitempty"`
	Settings   settings.Settings          `json:"settings"`
	Captions   []caption.GeneratedCaption `json:"captions"`
	Generating bool                       `json:"generating"`
	Notice     string                     `json:"notice,omitempty"`

	// CanGenerate is false when no image is loaded or a generation is running.
	CanGenerate  bool `json:"can_generate"`
	HistoryCount int  `json:"history_count"`
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	st := State{
		HasImage:   !c.image.IsZero(),
		Settings:   c.settings,
		Captions:   c.session.Captions(),
		Generating: c.session.Generating(),
		Notice:     c.session.Notice(),
	}
	if st.Captions == nil {
		st.Captions = []caption.GeneratedCaption{}
	}
	if st.HasImage {
		st.ImageMime = c.image.MimeType
		st.ImageBytes = len(c.image.Data)
	}
	st.CanGenerate = st.HasImage && !st.Generating
	st.HistoryCount = len(c.store.History())
	return st
}
