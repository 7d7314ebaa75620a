// Package app wires application dependencies for the CLI.
//
// It builds the key and value stores, the HTTP transport and the flow
// services from Config, exposing them via the Wire struct and the App
// facade for commands to use.
package app
