package notion

import (
	"context"

	"github.com/jomei/notionapi"
)

//go:generate mockgen -source=notion.go -destination=mock_notion_test.go -package=notion -self_package=github.com/ozmile/notion-daily-journal-copier/internal/notion
type (
	// NotionClient exposes the Notion API services the client depends on.
	NotionClient interface {
		Page() PageService
		Database() DatabaseService
		Block() BlockService
	}

	PageService interface {
		Create(context.Context, *notionapi.PageCreateRequest) (*notionapi.Page, error)
		Get(context.Context, notionapi.PageID) (*notionapi.Page, error)
	}

	DatabaseService interface {
		Query(context.Context, notionapi.DatabaseID, *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
	}

	BlockService interface {
		GetChildren(context.Context, notionapi.BlockID, *notionapi.Pagination) (*notionapi.GetChildrenResponse, error)
		AppendChildren(context.Context, notionapi.BlockID, *notionapi.AppendBlockChildrenRequest) (*notionapi.AppendBlockChildrenResponse, error)
	}
)
