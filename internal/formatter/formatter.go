// package formatter renders gallery items and plans to CSV, Markdown, JSON and plain text, and saves media to disk
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/rivora/internal/models"
	"github.com/desertthunder/rivora/internal/shared"
)

// Export formats accepted by [Export] and [WriteExport].
const (
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
	FormatJSON     = "json"
)

// Formats lists the export formats in help-text order.
var Formats = []string{FormatCSV, FormatMarkdown, FormatText, FormatJSON}

// ExportToCSV converts items to CSV with columns: ID, Type, Prompt, URL, Favorite
func ExportToCSV(items []models.MediaItem) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Type", "Prompt", "URL", "Favorite"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, item := range items {
		record := []string{
			strconv.FormatInt(item.ID, 10),
			string(item.Type),
			item.Prompt,
			item.URL,
			strconv.FormatBool(item.IsFavorite),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders items as a Markdown gallery. Images are embedded, videos linked and text inlined.
func ExportToMarkdown(items []models.MediaItem, title string) ([]byte, error) {
	var buf bytes.Buffer

	if title == "" {
		title = "Generations"
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Items**: %d\n", len(items)))
	buf.WriteString(fmt.Sprintf("**Favorites**: %d\n\n", countFavorites(items)))

	for _, item := range items {
		buf.WriteString(fmt.Sprintf("## %s #%d%s\n\n", item.Type, item.ID, favoriteMark(item)))
		buf.WriteString(fmt.Sprintf("**Prompt**: %s\n\n", item.Prompt))

		if content, ok := item.Text(); ok {
			buf.WriteString("```\n" + content + "\n```\n\n")
			continue
		}

		switch item.Type {
		case models.Image:
			buf.WriteString(fmt.Sprintf("![%s](%s)\n\n", shared.Truncate(item.Prompt, 60), item.URL))
		default:
			buf.WriteString(fmt.Sprintf("[Watch video](%s)\n\n", item.URL))
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts items to plain text, one entry per item
func ExportToText(items []models.MediaItem) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Generations: %d\n\n", len(items)))

	for i, item := range items {
		buf.WriteString(fmt.Sprintf("%d. [%s] #%d%s %s\n", i+1, item.Type, item.ID, favoriteMark(item), item.Prompt))
		if content, ok := item.Text(); ok {
			for _, line := range strings.Split(content, "\n") {
				buf.WriteString("   " + line + "\n")
			}
		} else {
			buf.WriteString("   " + item.URL + "\n")
		}
	}

	return buf.Bytes(), nil
}

// ExportToJSON renders items as an indented JSON array.
func ExportToJSON(items []models.MediaItem) ([]byte, error) {
	if items == nil {
		items = []models.MediaItem{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return data, nil
}

// Export renders items in format.
func Export(items []models.MediaItem, format string) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(items)
	case FormatMarkdown, "md":
		return ExportToMarkdown(items, "")
	case FormatText, "text":
		return ExportToText(items)
	case FormatJSON:
		return ExportToJSON(items)
	default:
		return nil, fmt.Errorf("%w: unknown format %q (expected one of %s)", shared.ErrInvalidFlag, format, strings.Join(Formats, ", "))
	}
}

// WriteExport writes items in format to path. An empty path defaults to generations.{ext} in the working directory.
func WriteExport(items []models.MediaItem, format, path string) (string, error) {
	data, err := Export(items, format)
	if err != nil {
		return "", err
	}

	if path == "" {
		path = "generations." + extension(format)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

func extension(format string) string {
	switch format {
	case FormatMarkdown, "md":
		return "md"
	case FormatText, "text":
		return "txt"
	default:
		return format
	}
}

// FormatPlans renders the subscription plan listing.
func FormatPlans(plans []models.Plan) []byte {
	var buf bytes.Buffer

	for i, plan := range plans {
		if i > 0 {
			buf.WriteString("\n")
		}
		popular := ""
		if plan.Popular {
			popular = "  (most popular)"
		}
		buf.WriteString(fmt.Sprintf("%s  %d/month%s\n", plan.Name, plan.Price, popular))
		for _, feature := range plan.Features {
			buf.WriteString(fmt.Sprintf("  • %s\n", feature))
		}
		buf.WriteString(fmt.Sprintf("  [%s]\n", plan.CTA))
	}

	return buf.Bytes()
}

// DownloadMedia fetches url and returns the body with its content type. A nil client uses a 30s timeout.
func DownloadMedia(ctx context.Context, client *http.Client, url string) ([]byte, string, error) {
	if url == "" {
		return nil, "", fmt.Errorf("empty URL provided")
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: failed to download media: %w", shared.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("%w: failed to download media: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read media data: %w", err)
	}

	return data, resp.Header.Get("Content-Type"), nil
}

// SaveMedia writes item into dir as {id}.{ext}. Text items are written directly; others are downloaded.
func SaveMedia(ctx context.Context, client *http.Client, item models.MediaItem, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	if content, ok := item.Text(); ok {
		target := filepath.Join(dir, fmt.Sprintf("%d.txt", item.ID))
		if err := os.WriteFile(target, []byte(content+"\n"), 0644); err != nil {
			return "", fmt.Errorf("failed to write text: %w", err)
		}
		return target, nil
	}

	data, contentType, err := DownloadMedia(ctx, client, item.URL)
	if err != nil {
		return "", err
	}

	target := filepath.Join(dir, fmt.Sprintf("%d%s", item.ID, mediaExtension(item, contentType)))
	if err := os.WriteFile(target, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write media: %w", err)
	}
	return target, nil
}

// mediaExtension prefers the url's extension, then the content type, then a per-type default.
func mediaExtension(item models.MediaItem, contentType string) string {
	if ext := path.Ext(strings.SplitN(item.URL, "?", 2)[0]); ext != "" && len(ext) <= 5 {
		return ext
	}
	if contentType != "" {
		if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
			if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
				return exts[0]
			}
		}
	}
	if item.Type == models.Video {
		return ".mp4"
	}
	return ".png"
}

func countFavorites(items []models.MediaItem) int {
	n := 0
	for _, item := range items {
		if item.IsFavorite {
			n++
		}
	}
	return n
}

func favoriteMark(item models.MediaItem) string {
	if item.IsFavorite {
		return " ★"
	}
	return ""
}
