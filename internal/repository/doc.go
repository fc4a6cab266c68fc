// Package repository defines the device directory boundary for netinspect.
//
// Directory is all a topology build needs: the current device list and, per
// device, a decrypted credential. DeviceStore adds the writes used by the
// inventory loader and status maintenance.
//
// # SQLite Implementation
//
// The sqlite subpackage stores devices in a single table with WAL mode for
// concurrent readers. Passwords are sealed with the secret package before
// they reach the database and are only opened by GetCredential.
package repository
