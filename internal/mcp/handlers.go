package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/captiongenius/internal/errors"
	"github.com/hpungsan/captiongenius/internal/logging"
	"github.com/hpungsan/captiongenius/internal/ops"
	"github.com/hpungsan/captiongenius/internal/settings"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	ctrl   *ops.Controller
	logger *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(ctrl *ops.Controller, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Handlers{ctrl: ctrl, logger: logger}
}

// Request types for each tool

// SettingsArgs are the optional settings fields shared by several tools.
type SettingsArgs struct {
	Platform    *string `json:"platform,omitempty"`
	Length      *string `json:"length,omitempty"`
	Style       *string `json:"style,omitempty"`
	Tone        *string `json:"tone,omitempty"`
	UseEmojis   *bool   `json:"use_emojis,omitempty"`
	UseHashtags *bool   `json:"use_hashtags,omitempty"`
}

// Override converts the arguments to a settings override, validating enum values.
func (a SettingsArgs) Override() (settings.Override, error) {
	var o settings.Override
	if a.Platform != nil {
		p, err := settings.ParsePlatform(*a.Platform)
		if err != nil {
			return o, errors.NewInvalidRequest(err.Error())
		}
		o.Platform = &p
	}
	if a.Length != nil {
		l, err := settings.ParseLength(*a.Length)
		if err != nil {
			return o, errors.NewInvalidRequest(err.Error())
		}
		o.Length = &l
	}
	if a.Style != nil {
		s, err := settings.ParseStyle(*a.Style)
		if err != nil {
			return o, errors.NewInvalidRequest(err.Error())
		}
		o.Style = &s
	}
	if a.Tone != nil {
		t, err := settings.ParseTone(*a.Tone)
		if err != nil {
			return o, errors.NewInvalidRequest(err.Error())
		}
		o.Tone = &t
	}
	o.UseEmojis = a.UseEmojis
	o.UseHashtags = a.UseHashtags
	return o, nil
}

// GenerateRequest represents the arguments for caption_generate.
type GenerateRequest struct {
	ImagePath    string `json:"image_path,omitempty"`
	ImageDataURL string `json:"image_data_url,omitempty"`
	SettingsArgs
}

// EditRequest represents the arguments for caption_edit.
type EditRequest struct {
	ID      string `json:"id"`
	Editing *bool  `json:"editing,omitempty"`
}

// SetTextRequest represents the arguments for caption_set_text.
type SetTextRequest struct {
	ID   string  `json:"id"`
	Text *string `json:"text"`
	Done bool    `json:"done,omitempty"`
}

// IDRequest is used by tools that take a single id.
type IDRequest struct {
	ID string `json:"id"`
}

// ClearRequest represents the arguments for history_clear.
type ClearRequest struct {
	Confirm bool `json:"confirm"`
}

// FavoriteSaveRequest represents the arguments for favorite_save.
type FavoriteSaveRequest struct {
	CaptionID string  `json:"caption_id,omitempty"`
	Text      string  `json:"text,omitempty"`
	Platform  *string `json:"platform,omitempty"`
	Style     *string `json:"style,omitempty"`
}

// FavoriteExportRequest represents the arguments for favorite_export.
type FavoriteExportRequest struct {
	ID   string `json:"id"`
	Path string `json:"path,omitempty"`
}

// HandleGenerate handles the caption_generate tool call.
func (h *Handlers) HandleGenerate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GenerateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ImagePath != "" && input.ImageDataURL != "" {
		return errorResult(errors.NewInvalidRequest("give image_path or image_data_url, not both")), nil
	}

	override, err := input.Override()
	if err != nil {
		return h.fail(err), nil
	}

	// Refuse before touching the image or settings the running generation uses.
	if h.ctrl.State().Generating {
		return errorResult(errors.NewGenerationInProgress()), nil
	}

	switch {
	case input.ImagePath != "":
		if _, err := h.ctrl.SetImageFromFile(input.ImagePath); err != nil {
			return h.fail(err), nil
		}
	case input.ImageDataURL != "":
		out, err := h.ctrl.SetImage(ops.SetImageInput{DataURL: input.ImageDataURL})
		if err != nil {
			return h.fail(err), nil
		}
		if !out.Accepted {
			return errorResult(errors.NewInvalidRequest("image_data_url is not an image")), nil
		}
	}

	if !override.IsEmpty() {
		if _, err := h.ctrl.UpdateSettings(override); err != nil {
			return h.fail(err), nil
		}
	}

	result, err := h.ctrl.Generate(context.WithoutCancel(ctx))
	if err != nil {
		return h.fail(err), nil
	}
	// A caller asking to generate needs an image; a silent no-op would look like success.
	if result.Skipped {
		return errorResult(errors.NewNoImage()), nil
	}

	return successResult(result)
}

// HandleList handles the caption_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(h.ctrl.State())
}

// HandleEdit handles the caption_edit tool call.
func (h *Handlers) HandleEdit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[EditRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if strings.TrimSpace(input.ID) == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}

	var result any
	if input.Editing != nil {
		result, err = h.ctrl.SetEditing(input.ID, *input.Editing)
	} else {
		result, err = h.ctrl.ToggleEditing(input.ID)
	}
	if err != nil {
		return h.fail(err), nil
	}

	return successResult(result)
}

// HandleSetText handles the caption_set_text tool call.
func (h *Handlers) HandleSetText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SetTextRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if strings.TrimSpace(input.ID) == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}
	if input.Text == nil {
		return errorResult(errors.NewInvalidRequest("text is required")), nil
	}

	result, err := h.ctrl.SetCaptionText(input.ID, *input.Text)
	if err != nil {
		return h.fail(err), nil
	}
	if input.Done {
		if result, err = h.ctrl.SetEditing(input.ID, false); err != nil {
			return h.fail(err), nil
		}
	}

	return successResult(result)
}

// HandleSettingsGet handles the settings_get tool call.
func (h *Handlers) HandleSettingsGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(h.ctrl.Settings())
}

// HandleSettingsUpdate handles the settings_update tool call.
func (h *Handlers) HandleSettingsUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SettingsArgs](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	override, err := input.Override()
	if err != nil {
		return h.fail(err), nil
	}

	result, err := h.ctrl.UpdateSettings(override)
	if err != nil {
		return h.fail(err), nil
	}

	return successResult(result)
}

// HandleHistoryList handles the history_list tool call.
func (h *Handlers) HandleHistoryList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(h.ctrl.ListHistory())
}

// HandleHistoryRestore handles the history_restore tool call.
func (h *Handlers) HandleHistoryRestore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if strings.TrimSpace(input.ID) == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}

	result, err := h.ctrl.RestoreHistoryItem(input.ID)
	if err != nil {
		return h.fail(err), nil
	}

	return successResult(result)
}

// HandleHistoryClear handles the history_clear tool call.
func (h *Handlers) HandleHistoryClear(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ClearRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if !input.Confirm {
		return errorResult(errors.NewInvalidRequest("confirm must be true")), nil
	}

	if err := h.ctrl.ClearHistory(ctx); err != nil {
		return h.fail(err), nil
	}

	return successResult(map[string]any{"cleared": true})
}

// HandleFavoriteSave handles the favorite_save tool call.
func (h *Handlers) HandleFavoriteSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FavoriteSaveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	hasID := strings.TrimSpace(input.CaptionID) != ""
	hasText := strings.TrimSpace(input.Text) != ""
	switch {
	case hasID && hasText:
		return errorResult(errors.NewInvalidRequest("give caption_id or text, not both")), nil
	case hasID:
		if input.Platform != nil || input.Style != nil {
			return errorResult(errors.NewInvalidRequest("platform and style apply only to text saves")), nil
		}
		result, err := h.ctrl.SaveFavorite(ctx, input.CaptionID)
		if err != nil {
			return h.fail(err), nil
		}
		return successResult(result)
	case hasText:
		args := SettingsArgs{Platform: input.Platform, Style: input.Style}
		override, err := args.Override()
		if err != nil {
			return h.fail(err), nil
		}
		result, err := h.ctrl.SaveFavoriteText(ctx, ops.SaveFavoriteTextInput{
			Text:     input.Text,
			Platform: override.Platform,
			Style:    override.Style,
		})
		if err != nil {
			return h.fail(err), nil
		}
		return successResult(result)
	default:
		return errorResult(errors.NewInvalidRequest("caption_id or text is required")), nil
	}
}

// HandleFavoriteList handles the favorite_list tool call.
func (h *Handlers) HandleFavoriteList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(h.ctrl.ListFavorites())
}

// HandleFavoriteRemove handles the favorite_remove tool call.
func (h *Handlers) HandleFavoriteRemove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if strings.TrimSpace(input.ID) == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}

	if err := h.ctrl.RemoveFavorite(ctx, input.ID); err != nil {
		return h.fail(err), nil
	}

	return successResult(map[string]any{"removed": true, "id": input.ID})
}

// HandleFavoriteExport handles the favorite_export tool call.
func (h *Handlers) HandleFavoriteExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FavoriteExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if strings.TrimSpace(input.ID) == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}

	result, err := h.ctrl.ExportFavorite(ops.ExportFavoriteInput{ID: input.ID, Path: input.Path})
	if err != nil {
		return h.fail(err), nil
	}

	return successResult(result)
}

// Result helpers

// fail logs internal errors, whose details errorResult hides, and builds the result.
func (h *Handlers) fail(err error) *mcp.CallToolResult {
	var cErr *errors.CaptionError
	if !stderrors.As(err, &cErr) || cErr.Code == errors.ErrInternal {
		h.logger.Error("tool call failed", "error", err)
	}
	return errorResult(err)
}

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var cErr *errors.CaptionError
	if stderrors.As(err, &cErr) {
		message := cErr.Message
		// Keep wrapper context such as "favorites: " from fmt.Errorf chains.
		if outer := err.Error(); outer != cErr.Error() {
			message = strings.TrimSuffix(outer, cErr.Error()) + cErr.Message
		}
		errorObj := map[string]any{
			"code":    cErr.Code,
			"message": message,
			"status":  cErr.Status,
		}
		if cErr.Code == errors.ErrInternal {
			errorObj["message"] = "an internal error occurred"
		} else if cErr.Details != nil {
			errorObj["details"] = cErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
