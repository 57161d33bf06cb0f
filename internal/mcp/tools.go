package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/captiongenius/internal/settings"
)

func enumValues[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// settingsOptions are the optional settings arguments shared by
// caption_generate and settings_update.
func settingsOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("platform",
			mcp.Description("Target platform"),
			mcp.Enum(enumValues(settings.Platforms)...),
		),
		mcp.WithString("length",
			mcp.Description("Caption length. Ignored for Story/Status"),
			mcp.Enum(enumValues(settings.Lengths)...),
		),
		mcp.WithString("style",
			mcp.Description("Writing style"),
			mcp.Enum(enumValues(settings.Styles)...),
		),
		mcp.WithString("tone",
			mcp.Description("Emotional tone"),
			mcp.Enum(enumValues(settings.Tones)...),
		),
		mcp.WithBoolean("use_emojis", mcp.Description("Include emojis")),
		mcp.WithBoolean("use_hashtags", mcp.Description("Include hashtags. Ignored for Story/Status")),
	}
}

var generateToolDef = mcp.NewTool("caption_generate", append([]mcp.ToolOption{
	mcp.WithDescription("Generate 3 caption variants for an image. Loads the image first when image_path or image_data_url is given, otherwise uses the current image. Settings arguments are applied before generating and persist for later calls. Each success is recorded in history."),
	mcp.WithString("image_path", mcp.Description("Path to a local image file")),
	mcp.WithString("image_data_url", mcp.Description("Image as a data:image/...;base64, URL")),
}, settingsOptions()...)...)

var listToolDef = mcp.NewTool("caption_list",
	mcp.WithDescription("Show the current captions, settings and image status."),
)

var editToolDef = mcp.NewTool("caption_edit",
	mcp.WithDescription("Set or toggle edit mode for a current caption."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Caption id")),
	mcp.WithBoolean("editing", mcp.Description("Edit mode to set. Omit to toggle")),
)

var setTextToolDef = mcp.NewTool("caption_set_text",
	mcp.WithDescription("Replace the text of a current caption. The caption id does not change."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Caption id")),
	mcp.WithString("text", mcp.Required(), mcp.Description("New caption text")),
	mcp.WithBoolean("done", mcp.Description("Also leave edit mode")),
)

var settingsGetToolDef = mcp.NewTool("settings_get",
	mcp.WithDescription("Show the current generation settings."),
)

var settingsUpdateToolDef = mcp.NewTool("settings_update", append([]mcp.ToolOption{
	mcp.WithDescription("Change generation settings. Omitted fields keep their value. Takes effect on the next generation."),
}, settingsOptions()...)...)

var historyListToolDef = mcp.NewTool("history_list",
	mcp.WithDescription("List recent generations, newest first. Only the most recent entries are kept."),
)

var historyRestoreToolDef = mcp.NewTool("history_restore",
	mcp.WithDescription("Make a history entry's image and captions current. Settings are not changed."),
	mcp.WithString("id", mcp.Required(), mcp.Description("History entry id")),
)

var historyClearToolDef = mcp.NewTool("history_clear",
	mcp.WithDescription("Delete all history entries. Favorites are kept."),
	mcp.WithBoolean("confirm", mcp.Required(), mcp.Description("Must be true")),
)

var favoriteSaveToolDef = mcp.NewTool("favorite_save",
	mcp.WithDescription("Save a caption to favorites, tagged with the current platform and style. Give caption_id for a current caption, or text to save arbitrary text. Saving text that is already a favorite changes nothing."),
	mcp.WithString("caption_id", mcp.Description("Id of a current caption")),
	mcp.WithString("text", mcp.Description("Caption text to save")),
	mcp.WithString("platform", mcp.Description("Platform tag for text saves"), mcp.Enum(enumValues(settings.Platforms)...)),
	mcp.WithString("style", mcp.Description("Style tag for text saves"), mcp.Enum(enumValues(settings.Styles)...)),
)

var favoriteListToolDef = mcp.NewTool("favorite_list",
	mcp.WithDescription("List favorite captions, newest first."),
)

var favoriteRemoveToolDef = mcp.NewTool("favorite_remove",
	mcp.WithDescription("Remove a favorite caption."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Favorite id")),
)

var favoriteExportToolDef = mcp.NewTool("favorite_export",
	mcp.WithDescription("Write a favorite to a .txt file. Defaults to ~/.captiongenius/exports/caption-<id>.txt."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Favorite id")),
	mcp.WithString("path", mcp.Description("Destination .txt path inside the exports dir or allowed_paths")),
)
