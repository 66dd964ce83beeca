package platform

// Package platform contains OS integration glue: filesystem helpers for
// saved audio artifacts and opening files in the system file manager.
