// Command dihi is the CLI for a running dihid daemon: it triggers item and
// collection downloads, polls job status, and manages configuration.
package main
