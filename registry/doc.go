// Package registry maintains the station registry: every station code known
// to the timetable provider with its name, city and geocoded coordinate.
// The registry is built lazily once per process and persisted to a JSON
// cache file; the file is used verbatim when it parses and rebuilt wholesale
// when absent or corrupt.
package registry
