package util

// Version is set at build time with -ldflags "-X .../internal/util.Version=...".
var Version = "0.1.0"
