// Package commands defines the betterauth CLI and wires dependencies for subcommands.
//
// Commands
//
//   - init            Save the server URL and pin the server response key
//   - whoami          Print identity, device and key fingerprint
//   - recovery-phrase Generate a recovery phrase and print its hash
//   - create-account  Register a new identity bound to a recovery phrase
//   - recover         Take over an identity on this device with its recovery phrase
//   - change-recovery Replace the recovery phrase of the identity
//   - delete-account  Delete the identity on the server
//   - link-container  Print a link container for this (new) device
//   - link            Link a device from its container
//   - unlink          Revoke a device
//   - rotate          Rotate this device's authentication key
//   - session         Create or refresh an access session
//   - request         Send a signed access request
//
// # Implementation
//
// The root command loads config.yaml from the home directory, applies flag
// overrides, configures logging and builds the App before any subcommand
// runs, so handlers share one transport and one set of key stores.
package commands
