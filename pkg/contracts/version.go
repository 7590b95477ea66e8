package contracts

import (
	"fmt"
	"runtime"
)

const (
	// Product is the name reported by the CLI and the version endpoint.
	Product = "Sales Analytics"

	Version = "1.0.0"

	// DataFormatVersion versions the AnalysisReport JSON bundle.
	DataFormatVersion = "v1"

	// APIVersion versions the HTTP routes and websocket messages.
	APIVersion = "v1"
)

// Set through -ldflags "-X .../pkg/contracts.BuildTime=... -X .../pkg/contracts.GitCommit=...".
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionInfo is the body of GET /api/v1/version.
type VersionInfo struct {
	Product      string `json:"product"`
	Version      string `json:"version"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
	DataFormat   string `json:"data_format"`
	APIVersion   string `json:"api_version"`
}

// GetVersionInfo describes the running binary.
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Product:      Product,
		Version:      Version,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		DataFormat:   DataFormatVersion,
		APIVersion:   APIVersion,
	}
}

// GetFullVersionString is the one-line form printed by salesreport -version.
func GetFullVersionString() string {
	info := GetVersionInfo()
	return fmt.Sprintf("%s v%s (report format %s, built %s, commit %s, %s %s/%s)",
		info.Product, info.Version, info.DataFormat, info.BuildTime, info.GitCommit,
		info.GoVersion, info.OS, info.Architecture)
}
