package buildinfo

// Version is overridden at link time with -ldflags "-X autoheal/internal/buildinfo.Version=...".
var Version = "dev"
