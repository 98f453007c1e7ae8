// Command teatrack is the command line interface for the tea tracker: it
// manages the tea catalog, records stock movements, and drives brew sessions
// against a shared SQLite store.
package main
