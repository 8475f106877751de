package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"howett.net/plist"

	"classicphotos/internal/logging"
	"classicphotos/internal/photos"
	"classicphotos/internal/services"
	"classicphotos/internal/task"
)

// Format identifies a catalog encoding.
type Format string

const (
	FormatAuto  Format = ""
	FormatJSON  Format = "json"
	FormatTOML  Format = "toml"
	FormatPlist Format = "plist"
)

// Entry is one raw catalog line.
type Entry struct {
	Name   string
	Source string
}

// Catalog is the parsed, ordered set of records.
type Catalog struct {
	Records []*photos.Record
	Skipped []Entry
}

// Len returns the number of records.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Records)
}

// Load reads a catalog from a local path or an http(s) URL. Remote catalogs
// are retrieved with fetcher. Every failure is reported as services.ErrCatalog.
func Load(ctx context.Context, location string, fetcher task.Fetcher, logger *slog.Logger) (*Catalog, error) {
	logger = logging.NewComponentLogger(logger, "catalog")
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, services.Wrap(services.ErrCatalog, "catalog", "load", "No catalog configured", nil)
	}

	var (
		data []byte
		err  error
	)
	if u, parseErr := url.Parse(location); parseErr == nil && (u.Scheme == "http" || u.Scheme == "https") {
		if fetcher == nil {
			return nil, services.Wrap(services.ErrCatalog, "catalog", "load", "No fetcher for remote catalog", nil)
		}
		data, err = fetcher.Fetch(ctx, u)
	} else {
		data, err = os.ReadFile(location)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrCatalog, "catalog", "read", "There was an error fetching photo details", err)
	}

	cat, err := Parse(data, FormatFromName(location), logger)
	if err != nil {
		return nil, err
	}
	logger.Info("catalog loaded",
		logging.String("location", location),
		logging.Int("records", cat.Len()),
		logging.Int("skipped", len(cat.Skipped)),
	)
	return cat, nil
}

// FormatFromName guesses a format from a file extension.
func FormatFromName(name string) Format {
	u, err := url.Parse(name)
	if err == nil && u.Scheme != "" && u.Path != "" {
		name = u.Path
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatJSON
	case ".toml":
		return FormatTOML
	case ".plist", ".xml":
		return FormatPlist
	default:
		return FormatAuto
	}
}

// Sniff guesses a format from content.
func Sniff(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.HasPrefix(trimmed, []byte("bplist")):
		return FormatPlist
	case bytes.HasPrefix(trimmed, []byte("<")):
		return FormatPlist
	case bytes.HasPrefix(trimmed, []byte("{")):
		return FormatJSON
	default:
		return FormatTOML
	}
}

// Parse decodes data into a catalog. FormatAuto sniffs the content.
func Parse(data []byte, format Format, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if format == FormatAuto {
		format = Sniff(data)
	}
	raw, err := decode(data, format)
	if err != nil {
		return nil, services.Wrap(services.ErrCatalog, "catalog", "parse "+string(format), "There was an error fetching photo details", err)
	}
	return build(raw, logger), nil
}

func decode(data []byte, format Format) (map[string]string, error) {
	raw := make(map[string]string)
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &raw)
	case FormatTOML:
		err = toml.Unmarshal(data, &raw)
	case FormatPlist:
		_, err = plist.Unmarshal(data, &raw)
	default:
		err = fmt.Errorf("unknown catalog format %q", format)
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func build(raw map[string]string, logger *slog.Logger) *Catalog {
	entries := make([]Entry, 0, len(raw))
	for name, source := range raw {
		entries = append(entries, Entry{Name: name, Source: strings.TrimSpace(source)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	cat := &Catalog{Records: make([]*photos.Record, 0, len(entries))}
	for _, entry := range entries {
		source, err := url.Parse(entry.Source)
		if entry.Source == "" || err != nil {
			cat.Skipped = append(cat.Skipped, entry)
			logging.WarnWithContext(logger, "skipping catalog entry", "catalog_entry_invalid",
				logging.String(logging.FieldItemName, entry.Name),
				logging.String("source", entry.Source),
				logging.String(logging.FieldErrorHint, "catalog values must be non-empty URLs"),
			)
			continue
		}
		cat.Records = append(cat.Records, photos.NewRecord(entry.Name, source))
	}
	return cat
}
