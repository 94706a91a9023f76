// Package archive reads the download-archive manifest the retrieval engine
// maintains and answers "is this item already archived?" without reparsing
// the file on every call.
//
// The manifest is the only durable state in the system. This package never
// writes it; the retrieval engine appends lines as items finish.
package archive
