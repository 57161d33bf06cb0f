package web

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hpungsan/captiongenius/internal/caption"
	"github.com/hpungsan/captiongenius/internal/errors"
	"github.com/hpungsan/captiongenius/internal/ops"
	"github.com/hpungsan/captiongenius/internal/settings"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	ctrl     *ops.Controller
	renderer *Renderer
	logger   *slog.Logger
}

// HandleStudio handles GET /, the upload, settings and captions page.
func (h *Handlers) HandleStudio(w http.ResponseWriter, r *http.Request) {
	h.renderer.renderPage(w, r, "studio", h.studioData())
}

// HandleState handles GET /state: the current state as JSON.
func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, h.ctrl.State())
}

func (h *Handlers) studioData() StudioPageData {
	st := h.ctrl.State()

	saved := make(map[string]bool)
	for _, f := range h.ctrl.ListFavorites().Items {
		saved[f.Text] = true
	}

	views := make([]CaptionView, 0, len(st.Captions))
	for _, c := range st.Captions {
		views = append(views, CaptionView{
			GeneratedCaption: c,
			HTML:             renderMarkdown(c.Text),
			Saved:            saved[c.Text],
		})
	}

	return StudioPageData{
		PageData: PageData{
			Title:   "Studio",
			Version: h.renderer.version,
			Nav:     "studio",
		},
		State:    st,
		Captions: views,
		Options: SettingsOptions{
			Platforms: settings.Platforms,
			Lengths:   settings.Lengths,
			Styles:    settings.Styles,
			Tones:     settings.Tones,
		},
	}
}

// HandleImage handles GET /image: the current image bytes.
func (h *Handlers) HandleImage(w http.ResponseWriter, r *http.Request) {
	img, ok := h.ctrl.Image()
	if !ok {
		h.renderer.renderError(w, r, errors.NewNotFound("image", "current"))
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeImage(w, img)
}

// HandleSetImage handles POST /image: a multipart "image" file or a
// "data_url" field (clipboard paste). Non-image payloads are ignored.
func (h *Handlers) HandleSetImage(w http.ResponseWriter, r *http.Request) {
	maxBytes := h.ctrl.Config().MaxImageBytes
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes)+uploadOverhead)
	}

	input, err := readImageInput(r, maxBytes)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			err = errors.NewImageTooLarge(maxBytes, int(tooLarge.Limit))
		}
		h.renderer.renderError(w, r, err)
		return
	}

	out, err := h.ctrl.SetImage(input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.finish(w, r, out, "/")
}

func readImageInput(r *http.Request, maxBytes int) (ops.SetImageInput, error) {
	var input ops.SetImageInput

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseForm(); err != nil {
			return input, err
		}
		input.DataURL = r.FormValue("data_url")
		return input, nil
	}

	memory := int64(32 << 20)
	if maxBytes > 0 {
		memory = int64(maxBytes) + uploadOverhead
	}
	if err := r.ParseMultipartForm(memory); err != nil {
		return input, err
	}

	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return input, err
		}
		input.Data = data
		input.MimeType = header.Header.Get("Content-Type")
	case !stderrors.Is(err, http.ErrMissingFile):
		return input, err
	}
	input.DataURL = r.FormValue("data_url")
	return input, nil
}

// HandleClearImage handles POST /image/clear.
func (h *Handlers) HandleClearImage(w http.ResponseWriter, r *http.Request) {
	h.ctrl.ClearImage()
	h.finish(w, r, map[string]any{"cleared": true}, "/")
}

// HandleSettings handles POST /settings. Only submitted fields change.
func (h *Handlers) HandleSettings(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("malformed form"))
		return
	}

	override, err := parseOverride(r.PostForm)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	st, err := h.ctrl.UpdateSettings(override)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.finish(w, r, st, "/")
}

// parseOverride reads the settings form. For repeated keys the last value
// wins, so a hidden "false" input followed by a checkbox behaves as a toggle.
func parseOverride(form url.Values) (settings.Override, error) {
	var o settings.Override

	if v, ok := lastValue(form, "platform"); ok {
		p, err := settings.ParsePlatform(v)
		if err != nil {
			return o, errors.NewInvalidRequest(err.Error())
		}
		o.Platform = &p
	}
	if v, ok := lastValue(form, "length"); ok {
		l, err := settings.ParseLength(v)
		if err != nil {
			return o, errors.NewInvalidRequest(err.Error())
		}
		o.Length = &l
	}
	if v, ok := lastValue(form, "style"); ok {
		s, err := settings.ParseStyle(v)
		if err != nil {
			return o, errors.NewInvalidRequest(err.Error())
		}
		o.Style = &s
	}
	if v, ok := lastValue(form, "tone"); ok {
		t, err := settings.ParseTone(v)
		if err != nil {
			return o, errors.NewInvalidRequest(err.Error())
		}
		o.Tone = &t
	}
	if v, ok := lastValue(form, "use_emojis"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return o, errors.NewInvalidRequest("use_emojis must be true or false")
		}
		o.UseEmojis = &b
	}
	if v, ok := lastValue(form, "use_hashtags"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return o, errors.NewInvalidRequest("use_hashtags must be true or false")
		}
		o.UseHashtags = &b
	}
	return o, nil
}

func lastValue(form url.Values, key string) (string, bool) {
	vs := form[key]
	if len(vs) == 0 {
		return "", false
	}
	return vs[len(vs)-1], true
}

// HandleGenerate handles POST /generate.
func (h *Handlers) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	h.runGeneration(w, r, h.ctrl.Generate)
}

// HandleRegenerate handles POST /regenerate.
func (h *Handlers) HandleRegenerate(w http.ResponseWriter, r *http.Request) {
	h.runGeneration(w, r, h.ctrl.Regenerate)
}

func (h *Handlers) runGeneration(w http.ResponseWriter, r *http.Request, run func(context.Context) (*ops.GenerateOutput, error)) {
	// A closed tab or reload must not abort the backend call; the client
	// timeout still bounds it.
	out, err := run(context.WithoutCancel(r.Context()))
	if err != nil {
		// Browsers see the failure notice on the studio page.
		if !wantsJSON(r) && isGenerationError(err) {
			h.finish(w, r, nil, "/")
			return
		}
		h.renderer.renderError(w, r, err)
		return
	}
	h.finish(w, r, out, "/")
}

func isGenerationError(err error) bool {
	return errors.Is(err, errors.ErrGenerationFailed) ||
		errors.Is(err, errors.ErrGenerationTimeout) ||
		errors.Is(err, errors.ErrGenerationInProgress)
}

// HandleEdit handles POST /captions/{id}/edit. An "editing" field sets the
// flag; without it the flag is toggled.
func (h *Handlers) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	var c caption.GeneratedCaption
	if v := r.FormValue("editing"); v != "" {
		editing, perr := strconv.ParseBool(v)
		if perr != nil {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("editing must be true or false"))
			return
		}
		c, err = h.ctrl.SetEditing(id, editing)
	} else {
		c, err = h.ctrl.ToggleEditing(id)
	}
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.finish(w, r, c, "/")
}

// HandleCaptionText handles POST /captions/{id}/text. With close=true the
// caption also leaves edit mode.
func (h *Handlers) HandleCaptionText(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("malformed form"))
		return
	}
	if _, ok := r.PostForm["text"]; !ok {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("text is required"))
		return
	}

	c, err := h.ctrl.SetCaptionText(id, r.PostForm.Get("text"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if parseBoolParam(r, "close") {
		if c, err = h.ctrl.SetEditing(id, false); err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
	}
	h.finish(w, r, c, "/")
}

// HandleSaveFavorite handles POST /captions/{id}/favorite.
func (h *Handlers) HandleSaveFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	out, err := h.ctrl.SaveFavorite(r.Context(), id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.finish(w, r, out, "/")
}

// HandleLibrary handles GET /library?tab=history|favorites.
func (h *Handlers) HandleLibrary(w http.ResponseWriter, r *http.Request) {
	tab := r.URL.Query().Get("tab")
	if tab != "favorites" {
		tab = "history"
	}

	history := h.ctrl.ListHistory()
	favorites := h.ctrl.ListFavorites().Items

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, map[string]any{
			"history":   history.Items,
			"favorites": favorites,
		})
		return
	}

	views := make([]FavoriteView, 0, len(favorites))
	for _, f := range favorites {
		views = append(views, FavoriteView{CollectionItem: f, HTML: renderMarkdown(f.Text)})
	}

	h.renderer.renderPage(w, r, "library", LibraryPageData{
		PageData: PageData{
			Title:   "Library",
			Version: h.renderer.version,
			Nav:     "library",
		},
		Tab:          tab,
		History:      history.Items,
		HistoryLimit: history.Limit,
		Favorites:    views,
	})
}

// HandleHistoryImage handles GET /history/{id}/image.
func (h *Handlers) HandleHistoryImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	item, err := h.ctrl.HistoryItem(id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	// History entries never change under the same id
	w.Header().Set("Cache-Control", "private, max-age=86400")
	writeImage(w, item.OriginalImage)
}

// HandleRestore handles POST /history/{id}/restore.
func (h *Handlers) HandleRestore(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	out, err := h.ctrl.RestoreHistoryItem(id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.finish(w, r, out, "/")
}

// HandleClearHistory handles POST /history/clear.
func (h *Handlers) HandleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.ClearHistory(r.Context()); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.finish(w, r, map[string]any{"cleared": true}, "/library?tab=history")
}

// HandleDownloadFavorite handles GET /favorites/{id}/download: the caption
// as caption-<id>.txt.
func (h *Handlers) HandleDownloadFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	file, err := h.ctrl.FavoriteText(id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Filename}))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, file.Text)
}

// HandleRemoveFavorite handles DELETE /favorites/{id} and its form variant.
func (h *Handlers) HandleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if err := h.ctrl.RemoveFavorite(r.Context(), id); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.finish(w, r, map[string]any{"removed": true, "id": id}, "/library?tab=favorites")
}

// finish completes a mutating request: JSON clients get the payload, HTMX
// gets a client-side redirect, browsers get 303 See Other.
func (h *Handlers) finish(w http.ResponseWriter, r *http.Request, payload any, redirectTo string) {
	switch {
	case wantsJSON(r):
		if payload == nil {
			payload = h.ctrl.State()
		}
		renderJSON(w, http.StatusOK, payload)
	case isHTMX(r):
		w.Header().Set("HX-Redirect", redirectTo)
		w.WriteHeader(http.StatusOK)
	default:
		http.Redirect(w, r, redirectTo, http.StatusSeeOther)
	}
}

func writeImage(w http.ResponseWriter, img caption.Image) {
	w.Header().Set("Content-Type", img.MimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Data)
}

func pathID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		return "", errors.NewInvalidRequest("id is required")
	}
	return id, nil
}

// parseBoolParam reads a boolean form or query value; anything other than
// "true" or "1" is false.
func parseBoolParam(r *http.Request, name string) bool {
	v := r.FormValue(name)
	return v == "true" || v == "1"
}
