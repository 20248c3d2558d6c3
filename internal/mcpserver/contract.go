package mcpserver

// UsageGuide describes the documentation workflow for LLM consumers of
// the MCP tools.
const UsageGuide = `# Ansuz Documentation Workflow

Ansuz keeps a local knowledge base of library documentation fetched
from the Context7 catalog.

## Workflow

1. **Find the library.** Call ` + "`" + `search_libraries` + "`" + ` with the library or
   product name. Every result carries a Context7-compatible library ID
   such as ` + "`" + `/gradio-app/gradio` + "`" + `.
2. **Fetch the documentation.** Call ` + "`" + `fetch_library_documentation` + "`" + `
   with that ID. The documentation is saved into the knowledge base and
   registered in ` + "`" + `INDEX.md` + "`" + `. Narrow large libraries with ` + "`" + `topic` + "`" + `
   and cap the size with ` + "`" + `tokens` + "`" + `.
3. **Read it back.** ` + "`" + `list_downloaded_libraries` + "`" + ` shows what is
   already cached; ` + "`" + `get_library_content` + "`" + ` returns a stored document.
   Prefer the cache over refetching.

## Rules

1. **Library IDs** are slash-separated, e.g. ` + "`" + `/vercel/next.js` + "`" + `. Use
   IDs exactly as returned by ` + "`" + `search_libraries` + "`" + `; do not invent them.
2. **Stored file names** replace slashes with underscores and end with
   ` + "`" + `.md` + "`" + `: ` + "`" + `/gradio-app/gradio` + "`" + ` becomes ` + "`" + `gradio_app_gradio.md` + "`" + `.
   ` + "`" + `get_library_content` + "`" + ` accepts the name with or without the
   extension.
3. **Large documents are truncated** to ` + "`" + `max_chars` + "`" + ` characters
   (default 10000). When the result says ` + "`" + `truncated: true` + "`" + `, raise
   ` + "`" + `max_chars` + "`" + ` or use ` + "`" + `search_local_docs` + "`" + ` to jump to the relevant
   part.
4. **Repository clones are opt-in.** Pass ` + "`" + `sync_repo: true` + "`" + ` to clone
   the library's source next to its documentation. An existing clone is
   kept as is unless ` + "`" + `refresh_repo: true` + "`" + ` is also set.
5. **Rate limits are transient.** When a tool reports rate limiting,
   wait before retrying instead of switching libraries.

## INDEX.md

The knowledge base directory carries a human-readable ` + "`" + `INDEX.md` + "`" + `.
Ansuz maintains only the table between its begin/end markers; prose
outside the markers belongs to the user and is preserved verbatim. Use
` + "`" + `reconcile_index` + "`" + ` to spot rows without files and files without rows.
`
