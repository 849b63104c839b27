package notion

import (
	"encoding/json"

	"github.com/jomei/notionapi"
)

// ConvertRichText rewrites link mentions into plain text spans carrying the
// same display string and an explicit hyperlink. Link mentions are resolved
// by the store at render time and do not survive being copied to a new page,
// while a linked text span always renders. Every other span, including other
// mention kinds, passes through unchanged.
func ConvertRichText(spans []notionapi.RichText) []notionapi.RichText {
	if len(spans) == 0 {
		return spans
	}

	converted := make([]notionapi.RichText, 0, len(spans))
	for _, span := range spans {
		if span.Type == "mention" && span.Mention != nil && span.Mention.Type == "link_mention" {
			converted = append(converted, notionapi.RichText{
				Type: "text",
				Text: &notionapi.Text{
					Content: span.PlainText,
					Link:    &notionapi.Link{Url: span.Href},
				},
				Annotations: span.Annotations,
				PlainText:   span.PlainText,
			})
			continue
		}
		converted = append(converted, span)
	}
	return converted
}

// buildCopyPayload builds the write payload for one fetched block: the same
// block type with its rich text rewritten and every other content field
// copied. Store-assigned fields (id, has_children, timestamps) are dropped
// since the store assigns fresh ones on append. Block types without a typed
// case fall through to a raw JSON copy so their payloads survive untouched.
func buildCopyPayload(block notionapi.Block) notionapi.Block {
	base := notionapi.BasicBlock{
		Object: "block",
		Type:   block.GetType(),
	}

	switch b := block.(type) {
	case *notionapi.ParagraphBlock:
		return &notionapi.ParagraphBlock{
			BasicBlock: base,
			Paragraph: notionapi.Paragraph{
				RichText: ConvertRichText(b.Paragraph.RichText),
				Color:    b.Paragraph.Color,
			},
		}
	case *notionapi.Heading1Block:
		return &notionapi.Heading1Block{
			BasicBlock: base,
			Heading1: notionapi.Heading{
				RichText: ConvertRichText(b.Heading1.RichText),
				Color:    b.Heading1.Color,
			},
		}
	case *notionapi.Heading2Block:
		return &notionapi.Heading2Block{
			BasicBlock: base,
			Heading2: notionapi.Heading{
				RichText: ConvertRichText(b.Heading2.RichText),
				Color:    b.Heading2.Color,
			},
		}
	case *notionapi.Heading3Block:
		return &notionapi.Heading3Block{
			BasicBlock: base,
			Heading3: notionapi.Heading{
				RichText: ConvertRichText(b.Heading3.RichText),
				Color:    b.Heading3.Color,
			},
		}
	case *notionapi.BulletedListItemBlock:
		return &notionapi.BulletedListItemBlock{
			BasicBlock: base,
			BulletedListItem: notionapi.ListItem{
				RichText: ConvertRichText(b.BulletedListItem.RichText),
				Color:    b.BulletedListItem.Color,
			},
		}
	case *notionapi.NumberedListItemBlock:
		return &notionapi.NumberedListItemBlock{
			BasicBlock: base,
			NumberedListItem: notionapi.ListItem{
				RichText: ConvertRichText(b.NumberedListItem.RichText),
				Color:    b.NumberedListItem.Color,
			},
		}
	case *notionapi.ToDoBlock:
		return &notionapi.ToDoBlock{
			BasicBlock: base,
			ToDo: notionapi.ToDo{
				RichText: ConvertRichText(b.ToDo.RichText),
				Checked:  b.ToDo.Checked,
				Color:    b.ToDo.Color,
			},
		}
	case *notionapi.ToggleBlock:
		return &notionapi.ToggleBlock{
			BasicBlock: base,
			Toggle: notionapi.Toggle{
				RichText: ConvertRichText(b.Toggle.RichText),
				Color:    b.Toggle.Color,
			},
		}
	case *notionapi.QuoteBlock:
		return &notionapi.QuoteBlock{
			BasicBlock: base,
			Quote: notionapi.Quote{
				RichText: ConvertRichText(b.Quote.RichText),
				Color:    b.Quote.Color,
			},
		}
	case *notionapi.CalloutBlock:
		return &notionapi.CalloutBlock{
			BasicBlock: base,
			Callout: notionapi.Callout{
				RichText: ConvertRichText(b.Callout.RichText),
				Icon:     b.Callout.Icon,
				Color:    b.Callout.Color,
			},
		}
	case *notionapi.CodeBlock:
		return &notionapi.CodeBlock{
			BasicBlock: base,
			Code: notionapi.Code{
				RichText: ConvertRichText(b.Code.RichText),
				Caption:  b.Code.Caption,
				Language: b.Code.Language,
			},
		}
	case *notionapi.DividerBlock:
		return &notionapi.DividerBlock{
			BasicBlock: base,
			Divider:    notionapi.Divider{},
		}
	default:
		return rawCopyPayload(block)
	}
}

// rawBlock carries the content payload of a block type this package does not
// model. It marshals to the minimal create form the append endpoint accepts.
type rawBlock struct {
	notionapi.BasicBlock
	payload json.RawMessage
}

func (b *rawBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"object":       b.Object,
		"type":         b.Type,
		string(b.Type): b.payload,
	})
}

// rawCopyPayload re-marshals an unmodeled block and keeps only its type-keyed
// content payload. Spans other than link mentions are kept byte-for-byte, so
// content fields this package has no types for still round-trip.
func rawCopyPayload(block notionapi.Block) notionapi.Block {
	data, err := json.Marshal(block)
	if err != nil {
		return block
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return block
	}

	payload, ok := fields[string(block.GetType())]
	if !ok {
		return block
	}

	return &rawBlock{
		BasicBlock: notionapi.BasicBlock{
			Object: "block",
			Type:   block.GetType(),
		},
		payload: rewriteRawRichText(payload),
	}
}

// rewriteRawRichText applies ConvertRichText to a raw content payload's
// rich_text field, rewriting only the spans that are link mentions and
// leaving all other bytes as they arrived.
func rewriteRawRichText(payload json.RawMessage) json.RawMessage {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return payload
	}

	raw, ok := fields["rich_text"]
	if !ok {
		return payload
	}

	var rawSpans []json.RawMessage
	if err := json.Unmarshal(raw, &rawSpans); err != nil {
		return payload
	}

	changed := false
	for i, rawSpan := range rawSpans {
		var span notionapi.RichText
		if err := json.Unmarshal(rawSpan, &span); err != nil {
			continue
		}
		if span.Type != "mention" || span.Mention == nil || span.Mention.Type != "link_mention" {
			continue
		}
		rewritten, err := json.Marshal(ConvertRichText([]notionapi.RichText{span})[0])
		if err != nil {
			continue
		}
		rawSpans[i] = rewritten
		changed = true
	}
	if !changed {
		return payload
	}

	spans, err := json.Marshal(rawSpans)
	if err != nil {
		return payload
	}
	fields["rich_text"] = spans

	out, err := json.Marshal(fields)
	if err != nil {
		return payload
	}
	return out
}
