// Package access decides which directories below the download root can be
// downloaded and with which password.
//
// Passwords live in a Registry. Two file layouts are supported:
//
//   - LayoutAccess: a single "access" file in the download root with
//     "dir = password" lines.
//   - LayoutMeta: a ".meta" file inside each protected directory with a
//     dir_password entry.
//
// Both are read on every lookup. Passwords are compared in plain text.
package access
