package version

// Version is the exporter release, stamped into the run log and the history.
const Version = "v0.3.0"
