// Package device implements the device flows: link containers, linking,
// unlinking and authentication key rotation.
//
// Linking involves two devices. The new device calls GenerateLinkContainer
// and hands the result to an existing device out of band; the existing device
// submits it with LinkDevice.
package device
