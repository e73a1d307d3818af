// Package misc keeps build time information about the program.
package misc

// Set with -ldflags "-X regraph/misc.version=... -X regraph/misc.gitHash=..."
var (
	version = "dev"
	gitHash = "unknown"
)

const appName = "regraph"

func GetAppName() string {
	return appName
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return gitHash
}
