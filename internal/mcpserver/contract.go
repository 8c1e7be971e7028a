package mcpserver

// SnapshotFormatContract describes the stored document format that LLM
// consumers should follow when creating documents.
const SnapshotFormatContract = `# Blockpad Document Format

Every stored document is one JSON snapshot of an editor document.

## Structure

` + "```" + `json
{
  "time": 1718000000000,
  "version": "2.31.0",
  "blocks": [
    {"id": "h1x9", "type": "header", "data": {"text": "Title", "level": 2}},
    {"id": "p7k2", "type": "paragraph", "data": {"text": "Body with <b>inline</b> markup #tag"}}
  ]
}
` + "```" + `

## Rules

1. **time** is the save time in Unix milliseconds.
2. **version** is the snapshot format version; omit it to get the current one.
3. **blocks** keep document order. Each block has a unique **id**, a **type**
   registered as a block tool (see list_block_types) and a **data** object
   whose shape belongs to that type.
4. Empty blocks are not stored.
5. Inline formatting inside text fields is limited to the inline commands
   the block type allows (bold, italic, link and registered inline tools).
6. Words starting with # in text become document tags.

## Block data

- paragraph: {"text"}
- header: {"text", "level"} with level between 1 and 6
- list: {"style": "ordered"|"unordered", "items": [...]}
- quote: {"text", "caption", "alignment"}
- delimiter: {}
- code: {"code"}
- table: {"withHeadings", "content": [[cell, ...], ...]} with equal row lengths
- embed: {"service", "source", "embed", "width", "height", "caption"}
- image: {"url", "caption", "withBorder", "withBackground", "stretched"} with an absolute url
`
