package version

import (
	"fmt"
	"runtime"
)

// 構建時通過 -ldflags "-X" 注入
var (
	Version   = "dev"
	BuildTime = ""
	GoVersion = runtime.Version()
	GitCommit = ""
)

func Short() string {
	// v1.0.0 (abcdef01) 這種格式
	if GitCommit != "" {
		return fmt.Sprintf("v%s (%s)", Version, GitCommit)
	}
	return "v" + Version
}

func Info() string {
	return fmt.Sprintf(
		"svcwatch v%s\nBuild Time: %s\nGo Version: %s\nGit Commit: %s\nPlatform: %s/%s",
		Version, BuildTime, GoVersion, GitCommit, runtime.GOOS, runtime.GOARCH,
	)
}
