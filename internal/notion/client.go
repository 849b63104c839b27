package notion

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jomei/notionapi"
	"github.com/ozmile/notion-daily-journal-copier/internal/logger"
)

// DefaultBatchSize bounds both the page size of child reads and the number
// of blocks appended per write when the caller does not choose one.
const DefaultBatchSize = 100

// Failure classes for block-tree operations. Callers branch on the class
// with errors.Is; the wrapped store error keeps the transport detail.
var (
	ErrReadBlocks   = errors.New("list block children failed")
	ErrWriteBlocks  = errors.New("append block children failed")
	ErrCreatedCount = errors.New("created block count does not match submitted count")
)

// Client wraps the Notion API client for one journal database
type Client struct {
	client     NotionClient
	databaseID notionapi.DatabaseID
}

// New creates a new Notion client configured from the environment
func New() (*Client, error) {
	apiKey := os.Getenv("NOTION_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("NOTION_API_KEY is not set")
	}

	databaseID := os.Getenv("NOTION_DAILY_JOURNAL_DATABASE_ID")
	if databaseID == "" {
		return nil, fmt.Errorf("NOTION_DAILY_JOURNAL_DATABASE_ID is not set")
	}

	notionClient := notionapi.NewClient(notionapi.Token(apiKey))
	return &Client{
		client:     newNotionClientAdapter(notionClient),
		databaseID: notionapi.DatabaseID(databaseID),
	}, nil
}

// QueryPageByDate returns the newest page whose date property equals the
// given day, or nil if no page matches. The day is compared date-only.
func (c *Client) QueryPageByDate(ctx context.Context, dateProperty string, day time.Time) (*notionapi.Page, error) {
	date := notionapi.Date(time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location()))

	resp, err := c.client.Database().Query(ctx, c.databaseID, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: dateProperty,
			Date: &notionapi.DateFilterCondition{
				Equals: &date,
			},
		},
		Sorts: []notionapi.SortObject{
			{
				Property:  dateProperty,
				Direction: "descending",
			},
		},
		PageSize: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query database %s: %w", c.databaseID, err)
	}

	if len(resp.Results) == 0 {
		return nil, nil
	}
	return &resp.Results[0], nil
}

// GetPage retrieves a page with its properties, icon and cover
func (c *Client) GetPage(ctx context.Context, pageID notionapi.PageID) (*notionapi.Page, error) {
	page, err := c.client.Page().Get(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get page %s: %w", pageID, err)
	}
	return page, nil
}

// CreatePage creates a new page in the journal database with the given
// properties and decorations. The page body starts empty; blocks are copied
// onto it afterwards with CopyBlocks.
func (c *Client) CreatePage(ctx context.Context, properties notionapi.Properties, icon *notionapi.Icon, cover *notionapi.Image) (*notionapi.Page, error) {
	page, err := c.client.Page().Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       "database_id",
			DatabaseID: c.databaseID,
		},
		Properties: properties,
		Icon:       icon,
		Cover:      cover,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	return page, nil
}

// FetchChildren pages through the direct children of a block until the store
// reports no further pages, flattening the pages into one ordered slice.
// A parent with no children yields an empty slice.
func (c *Client) FetchChildren(ctx context.Context, parentID notionapi.BlockID, pageSize int) ([]notionapi.Block, error) {
	var blocks []notionapi.Block
	var cursor notionapi.Cursor

	for {
		resp, err := c.client.Block().GetChildren(ctx, parentID, &notionapi.Pagination{
			StartCursor: cursor,
			PageSize:    pageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: parent %s: %w", ErrReadBlocks, parentID, err)
		}

		blocks = append(blocks, resp.Results...)
		if !resp.HasMore {
			return blocks, nil
		}
		cursor = notionapi.Cursor(resp.NextCursor)
	}
}

// appendBlocks writes the payloads onto targetID in consecutive batches of
// at most batchSize, returning the created blocks flattened in write order.
// The store returns created blocks in submission order, which the caller
// relies on for pairing.
func (c *Client) appendBlocks(ctx context.Context, targetID notionapi.BlockID, payloads []notionapi.Block, batchSize int) ([]notionapi.Block, error) {
	var created []notionapi.Block

	for start := 0; start < len(payloads); start += batchSize {
		end := start + batchSize
		if end > len(payloads) {
			end = len(payloads)
		}

		resp, err := c.client.Block().AppendChildren(ctx, targetID, &notionapi.AppendBlockChildrenRequest{
			Children: payloads[start:end],
		})
		if err != nil {
			return nil, fmt.Errorf("%w: target %s: %w", ErrWriteBlocks, targetID, err)
		}
		created = append(created, resp.Results...)
	}

	return created, nil
}

// CopyBlocks replicates the block tree under sourceID onto targetID. All
// direct children are fetched, rewritten for copying and appended in order,
// then every source child that owns children of its own is copied depth
// first onto the id the store assigned to its counterpart.
//
// A failure aborts the current subtree; blocks already written, including
// finished sibling subtrees, stay in place.
func (c *Client) CopyBlocks(ctx context.Context, sourceID, targetID notionapi.BlockID, batchSize int) error {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	children, err := c.FetchChildren(ctx, sourceID, batchSize)
	if err != nil {
		return err
	}
	if len(children) == 0 {
		return nil
	}

	payloads := make([]notionapi.Block, 0, len(children))
	for _, child := range children {
		payloads = append(payloads, buildCopyPayload(child))
	}

	created, err := c.appendBlocks(ctx, targetID, payloads, batchSize)
	if err != nil {
		return err
	}
	if len(created) != len(children) {
		return fmt.Errorf("%w: target %s: submitted %d, created %d",
			ErrCreatedCount, targetID, len(children), len(created))
	}

	logger.Debug("Copied block batch", map[string]interface{}{
		"source": sourceID,
		"target": targetID,
		"blocks": len(children),
	})

	for i, child := range children {
		if !child.GetHasChildren() {
			continue
		}
		childSource := notionapi.BlockID(child.GetID())
		childTarget := notionapi.BlockID(created[i].GetID())
		if err := c.CopyBlocks(ctx, childSource, childTarget, batchSize); err != nil {
			return err
		}
	}

	return nil
}
