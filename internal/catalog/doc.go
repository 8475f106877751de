// Package catalog turns a name to URL mapping into photo records.
//
// Catalogs may be JSON objects, TOML tables, or property lists (XML, binary,
// or OpenStep). Entries whose locator is empty or fails to parse are skipped;
// any other locator is kept and left for the fetcher to judge.
// Records are ordered by name so a record's index is a stable row key.
package catalog
