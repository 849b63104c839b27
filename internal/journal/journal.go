package journal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jomei/notionapi"
	"github.com/ozmile/notion-daily-journal-copier/internal/logger"
	"github.com/ozmile/notion-daily-journal-copier/internal/notion"
)

// Defaults match the journal database this tool was written for. Property
// names vary per database, so both are configurable.
const (
	DefaultTitle         = "Daily Journal"
	DefaultTitleProperty = "タイトル"
	DefaultDateProperty  = "日付"
)

// ErrNoSourcePage is returned when no journal page exists for the source date
var ErrNoSourcePage = errors.New("no journal page found for the source date")

// Config holds the journal database schema settings
type Config struct {
	TitleProperty string
	DateProperty  string
	Title         string
	BatchSize     int
}

// ConfigFromEnv builds a Config from environment variables, falling back to
// the defaults for anything unset.
func ConfigFromEnv() Config {
	config := Config{
		TitleProperty: os.Getenv("NOTION_TITLE_PROPERTY"),
		DateProperty:  os.Getenv("NOTION_DATE_PROPERTY"),
		Title:         os.Getenv("JOURNAL_TITLE"),
	}

	if batchSize := os.Getenv("JOURNAL_BATCH_SIZE"); batchSize != "" {
		size, err := strconv.Atoi(batchSize)
		if err != nil || size <= 0 {
			logger.Warn("Invalid JOURNAL_BATCH_SIZE, using default", map[string]interface{}{
				"value": batchSize,
			})
		} else {
			config.BatchSize = size
		}
	}

	return config
}

// Notion is the slice of the store client the manager depends on
type Notion interface {
	QueryPageByDate(ctx context.Context, dateProperty string, day time.Time) (*notionapi.Page, error)
	GetPage(ctx context.Context, pageID notionapi.PageID) (*notionapi.Page, error)
	CreatePage(ctx context.Context, properties notionapi.Properties, icon *notionapi.Icon, cover *notionapi.Image) (*notionapi.Page, error)
	CopyBlocks(ctx context.Context, sourceID, targetID notionapi.BlockID, batchSize int) error
}

// Manager duplicates daily journal pages within one Notion database
type Manager struct {
	notion Notion
	config Config
}

// New creates a Manager, filling unset config fields with the defaults
func New(client Notion, config Config) *Manager {
	if config.TitleProperty == "" {
		config.TitleProperty = DefaultTitleProperty
	}
	if config.DateProperty == "" {
		config.DateProperty = DefaultDateProperty
	}
	if config.Title == "" {
		config.Title = DefaultTitle
	}
	if config.BatchSize <= 0 {
		config.BatchSize = notion.DefaultBatchSize
	}

	return &Manager{
		notion: client,
		config: config,
	}
}

// DuplicateYesterday duplicates yesterday's journal page into a page for today
func (m *Manager) DuplicateYesterday(ctx context.Context) (*notionapi.Page, error) {
	return m.DuplicateFrom(ctx, time.Now().AddDate(0, 0, -1))
}

// DuplicateFrom duplicates the journal page of the given date into a fresh
// page for today: properties are recomposed for today's date, icon and cover
// are carried over, and the full block tree is copied.
//
// The new page is not removed if the block copy fails afterwards; the error
// reports the partially filled page.
func (m *Manager) DuplicateFrom(ctx context.Context, sourceDate time.Time) (*notionapi.Page, error) {
	source, err := m.notion.QueryPageByDate(ctx, m.config.DateProperty, sourceDate)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoSourcePage, sourceDate.Format("2006-01-02"))
	}

	page, err := m.notion.GetPage(ctx, notionapi.PageID(source.ID))
	if err != nil {
		return nil, err
	}

	logger.Debug("Duplicating journal page", map[string]interface{}{
		"source_page": page.ID,
		"source_date": sourceDate.Format("2006-01-02"),
	})

	newPage, err := m.notion.CreatePage(ctx, m.propertiesForToday(page.Properties, time.Now()), page.Icon, page.Cover)
	if err != nil {
		return nil, err
	}

	if err := m.notion.CopyBlocks(ctx, notionapi.BlockID(page.ID), notionapi.BlockID(newPage.ID), m.config.BatchSize); err != nil {
		return nil, fmt.Errorf("page %s created but content copy failed: %w", newPage.ID, err)
	}

	return newPage, nil
}

// propertiesForToday recomposes the source page's properties for today: the
// title text is replaced, date mentions inside the title and the date
// property move to today's date, everything else is carried over unchanged.
// A missing or renamed title/date property is tolerated and passed through.
func (m *Manager) propertiesForToday(properties notionapi.Properties, now time.Time) notionapi.Properties {
	today := notionapi.Date(time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()))

	composed := make(notionapi.Properties, len(properties))
	for name, prop := range properties {
		composed[name] = prop
	}

	if title, ok := titleProperty(composed[m.config.TitleProperty]); ok && len(title.Title) > 0 {
		spans := make([]notionapi.RichText, len(title.Title))
		copy(spans, title.Title)

		first := spans[0]
		text := &notionapi.Text{Content: m.config.Title}
		if first.Text != nil {
			text.Link = first.Text.Link
		}
		first.Type = "text"
		first.Text = text
		first.Mention = nil
		first.PlainText = m.config.Title
		spans[0] = first

		for i, span := range spans[1:] {
			if span.Type != "mention" || span.Mention == nil || span.Mention.Type != "date" || span.Mention.Date == nil {
				continue
			}
			refreshed := span
			refreshed.Mention = &notionapi.Mention{
				Type: span.Mention.Type,
				Date: &notionapi.DateObject{
					Start: &today,
					End:   span.Mention.Date.End,
				},
			}
			spans[i+1] = refreshed
		}

		title.Title = spans
		composed[m.config.TitleProperty] = title
	} else {
		logger.Warn("Title property not found, carrying properties over unchanged", map[string]interface{}{
			"property": m.config.TitleProperty,
		})
	}

	if date, ok := dateProperty(composed[m.config.DateProperty]); ok {
		date.Date = &notionapi.DateObject{Start: &today}
		composed[m.config.DateProperty] = date
	} else {
		logger.Warn("Date property not found, carrying properties over unchanged", map[string]interface{}{
			"property": m.config.DateProperty,
		})
	}

	return composed
}

// The API client unmarshals properties as values, mocks and fixtures may
// hand them over as pointers; accept both.
func titleProperty(prop notionapi.Property) (notionapi.TitleProperty, bool) {
	switch p := prop.(type) {
	case notionapi.TitleProperty:
		return p, true
	case *notionapi.TitleProperty:
		return *p, true
	}
	return notionapi.TitleProperty{}, false
}

func dateProperty(prop notionapi.Property) (notionapi.DateProperty, bool) {
	switch p := prop.(type) {
	case notionapi.DateProperty:
		return p, true
	case *notionapi.DateProperty:
		return *p, true
	}
	return notionapi.DateProperty{}, false
}
