package docindex

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/models"
)

const (
	beginMarker = "<!-- ansuz:index:begin -->"
	endMarker   = "<!-- ansuz:index:end -->"
	timeLayout  = "2006-01-02 15:04:05"
)

const defaultHeader = `# Knowledge Base Index

This file is the catalog of documentation downloaded into this
directory. The table between the two HTML comment markers is rewritten
on every update; anything outside the markers is preserved verbatim and
safe to edit by hand.

`

const (
	headerRow  = "| Base Name | Library | File | Size | Updated | Repo | Topic | Query |"
	dividerRow = "| --- | --- | --- | --- | --- | --- | --- | --- |"
	numColumns = 8
)

// document is a parsed index file: verbatim prose around a managed
// table section.
type document struct {
	prefix  string
	entries []models.IndexEntry
	suffix  string
	// recovered is set when rows or markers could not be parsed and
	// were dropped; the section is rebuilt from entries on flush.
	recovered bool
}

// parse splits raw file content into prose and managed entries. It
// never fails: unreadable parts are dropped, the surrounding prose is
// kept, and recovered records that something was lost.
func parse(data []byte) *document {
	content := string(data)
	bi := strings.Index(content, beginMarker)
	ei := strings.Index(content, endMarker)

	if bi < 0 && ei < 0 {
		// No managed section yet; the whole file is prose.
		return &document{prefix: ensureBlankLine(content)}
	}
	if bi < 0 || ei < 0 || ei < bi {
		// Half a section. Keep everything as prose so nothing the user
		// wrote is lost, and start a fresh table after it.
		return &document{prefix: ensureBlankLine(content), recovered: true}
	}

	doc := &document{
		prefix: content[:bi],
		suffix: content[ei+len(endMarker):],
	}
	doc.entries, doc.recovered = parseRows(content[bi+len(beginMarker) : ei])
	return doc
}

// parseRows reads table rows between the markers. Header and divider
// rows are skipped; rows that do not parse are counted as dropped.
func parseRows(body string) ([]models.IndexEntry, bool) {
	var (
		entries []models.IndexEntry
		dropped bool
	)
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "|") {
			dropped = true
			continue
		}
		cells := splitRow(line)
		if isHeaderRow(cells) || isDividerRow(cells) {
			continue
		}
		entry, err := parseEntry(cells)
		if err != nil {
			dropped = true
			continue
		}
		entries = append(entries, entry)
	}
	return entries, dropped
}

func isHeaderRow(cells []string) bool {
	return len(cells) > 0 && cells[0] == "Base Name"
}

func isDividerRow(cells []string) bool {
	for _, c := range cells {
		c = strings.Trim(c, ":")
		if c == "" || strings.Trim(c, "-") != "" {
			return false
		}
	}
	return len(cells) > 0
}

func parseEntry(cells []string) (models.IndexEntry, error) {
	var e models.IndexEntry
	if len(cells) != numColumns {
		return e, fmt.Errorf("docindex: row has %d columns, want %d", len(cells), numColumns)
	}
	size, err := strconv.ParseInt(cells[3], 10, 64)
	if err != nil {
		return e, fmt.Errorf("docindex: size column: %w", err)
	}
	updated, err := time.ParseInLocation(timeLayout, cells[4], time.Local)
	if err != nil {
		return e, fmt.Errorf("docindex: updated column: %w", err)
	}
	if cells[0] == "" || cells[2] == "" {
		return e, fmt.Errorf("docindex: base name and file are required")
	}
	e = models.IndexEntry{
		BaseName:    cells[0],
		DisplayName: cellValue(cells[1]),
		FilePath:    cells[2],
		SizeBytes:   size,
		LastUpdated: updated,
		RepoStatus:  models.RepoSyncStatus(cellValue(cells[5])),
		Topic:       cellValue(cells[6]),
		SearchQuery: cellValue(cells[7]),
	}
	return e, nil
}

// render produces the full file content: verbatim prose around a
// freshly generated managed section.
func render(doc *document) []byte {
	var b strings.Builder
	b.WriteString(doc.prefix)
	b.WriteString(beginMarker)
	b.WriteString("\n\n")
	b.WriteString(headerRow)
	b.WriteString("\n")
	b.WriteString(dividerRow)
	b.WriteString("\n")
	for _, e := range doc.entries {
		b.WriteString(renderRow(e))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(endMarker)
	b.WriteString(doc.suffix)
	out := b.String()
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return []byte(out)
}

func renderRow(e models.IndexEntry) string {
	cells := []string{
		e.BaseName,
		cellDisplay(e.DisplayName),
		e.FilePath,
		strconv.FormatInt(e.SizeBytes, 10),
		e.LastUpdated.Format(timeLayout),
		cellDisplay(string(e.RepoStatus)),
		cellDisplay(e.Topic),
		cellDisplay(e.SearchQuery),
	}
	for i, c := range cells {
		cells[i] = escapeCell(c)
	}
	return "| " + strings.Join(cells, " | ") + " |"
}

// upsert replaces the entry with the same base name in place, or
// appends a new row.
func (d *document) upsert(entry models.IndexEntry) {
	for i, e := range d.entries {
		if e.BaseName == entry.BaseName {
			d.entries[i] = entry
			return
		}
	}
	d.entries = append(d.entries, entry)
}

// splitRow splits a table row on unescaped pipes and trims each cell.
func splitRow(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")

	var (
		cells   []string
		cur     strings.Builder
		escaped bool
	)
	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '|':
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	cells = append(cells, strings.TrimSpace(cur.String()))
	return cells
}

// escapeCell makes an arbitrary string safe inside a table cell.
func escapeCell(s string) string {
	s = strings.NewReplacer("\\", "\\\\", "|", "\\|", "\n", " ", "\r", " ").Replace(s)
	return s
}

// cellDisplay renders an empty value as the "-" placeholder.
func cellDisplay(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// cellValue undoes the "-" placeholder.
func cellValue(s string) string {
	if s == "-" {
		return ""
	}
	return s
}

// ensureBlankLine makes sure prose ends with a blank line so an
// appended managed section starts on its own paragraph.
func ensureBlankLine(s string) string {
	if s == "" {
		return s
	}
	for !strings.HasSuffix(s, "\n\n") {
		s += "\n"
	}
	return s
}
