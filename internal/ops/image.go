package ops

import (
	stderrors "errors"
	"fmt"
	"io"

	"github.com/hpungsan/captiongenius/internal/caption"
	"github.com/hpungsan/captiongenius/internal/errors"
)

// SetImageInput carries an image from any intake: file picker, drag-drop,
// clipboard paste, CLI path or MCP argument. Exactly one of Data or DataURL
// is used; DataURL wins when both are set.
type SetImageInput struct {
	Data     []byte
	MimeType string // declared type, used only when sniffing fails
	DataURL  string
}

// SetImageOutput reports whether the payload was taken.
type SetImageOutput struct {
	// Accepted is false when the payload was not an image and was ignored.
	Accepted  bool   `json:"accepted"`
	MimeType  string `json:"mime_type,omitempty"`
	SizeBytes int    `json:"size_bytes,omitempty"`
}

// SetImage replaces the current image. Non-image payloads are ignored
// (Accepted=false, nil error) and leave the current image in place.
// Current captions are kept until the next generation.
func (c *Controller) SetImage(input SetImageInput) (*SetImageOutput, error) {
	var (
		img caption.Image
		err error
	)
	if input.DataURL != "" {
		img, err = caption.ParseDataURL(input.DataURL)
	} else {
		img, err = caption.NewImage(input.Data, input.MimeType)
	}
	if err != nil {
		if stderrors.Is(err, caption.ErrNotAnImage) || stderrors.Is(err, caption.ErrEmptyImage) {
			c.logger.Debug("ignoring non-image payload", "declared", input.MimeType, "error", err)
			return &SetImageOutput{Accepted: false}, nil
		}
		return nil, errors.NewInternal(err)
	}

	if max := c.cfg.MaxImageBytes; max > 0 && len(img.Data) > max {
		return nil, errors.NewImageTooLarge(max, len(img.Data))
	}

	c.mu.Lock()
	c.image = img
	c.mu.Unlock()

	c.logger.Info("image loaded", "mime", img.MimeType, "bytes", len(img.Data))
	return &SetImageOutput{Accepted: true, MimeType: img.MimeType, SizeBytes: len(img.Data)}, nil
}

// SetImageFromFile loads an image from a local path.
func (c *Controller) SetImageFromFile(path string) (*SetImageOutput, error) {
	if path == "" {
		return nil, errors.NewInvalidRequest("image path is required")
	}

	f, err := openImageFile(path)
	if err != nil {
		var cErr *errors.CaptionError
		if stderrors.As(err, &cErr) {
			return nil, cErr
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open image: %w", err))
	}
	defer f.Close()

	max := c.cfg.MaxImageBytes
	var r io.Reader = f
	if max > 0 {
		// One extra byte distinguishes "exactly max" from "too large".
		r = io.LimitReader(f, int64(max)+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to read image: %w", err))
	}
	if max > 0 && len(data) > max {
		return nil, errors.NewImageTooLarge(max, len(data))
	}

	out, err := c.SetImage(SetImageInput{Data: data})
	if err != nil {
		return nil, err
	}
	if !out.Accepted {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("not an image: %s", path))
	}
	return out, nil
}

// ClearImage removes the current image and discards the captions.
func (c *Controller) ClearImage() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.image = caption.Image{}
	c.session.Clear()
}

// Image returns a copy of the current image and whether one is set.
func (c *Controller) Image() (caption.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.image.IsZero() {
		return caption.Image{}, false
	}
	return c.image.Clone(), true
}
