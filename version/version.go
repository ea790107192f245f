package version

// Version is overridden at link time with -ldflags "-X ittapi/version.Version=...".
var Version = "dev"
