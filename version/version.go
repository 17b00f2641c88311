package version

// These values are injected at build time using
//
//	go build -ldflags "-X github.com/TeamNorCal/xled/version.GitHash=`git rev-parse HEAD` -X github.com/TeamNorCal/xled/version.BuildTime=`date -u +%FT%TZ`"
var (
	GitHash   = "unknown"
	BuildTime = "unknown"
)
