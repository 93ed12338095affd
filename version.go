package dicemind

// Version is reported by the CLI.
const Version = "0.2.0"
