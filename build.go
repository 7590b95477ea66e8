//go:build ignore

// build.go - Sales Analytics build system
// Usage: go run build.go [-target=TARGET] [-v]
// Targets: all, web, salesreport, test, clean, release

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const versionPkg = "github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts"

var (
	rootDir string
	distDir string

	// Executable names (key = source dir name under cmd/, value = output name)
	executables = map[string]string{
		"web":         "sales-web",
		"salesreport": "salesreport",
	}

	releasePlatforms = []string{"linux/amd64", "linux/arm64", "darwin/arm64", "windows/amd64"}

	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorBlue  = "\033[34m"
	colorCyan  = "\033[36m"
)

func init() {
	cwd, err := os.Getwd()
	if err != nil {
		panic(fmt.Sprintf("Failed to get current directory: %v", err))
	}
	rootDir = cwd
	if _, err := os.Stat(filepath.Join(rootDir, "go.mod")); os.IsNotExist(err) {
		panic(fmt.Sprintf("go.mod not found in %s; run build.go from the repository root", rootDir))
	}
	distDir = filepath.Join(rootDir, "dist")
}

func main() {
	target := flag.String("target", "all", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	printHeader()
	startTime := time.Now()

	var err error
	switch *target {
	case "all":
		err = buildAll(runtime.GOOS, runtime.GOARCH, distDir, *verbose)
	case "web", "salesreport":
		err = buildExecutable(*target, runtime.GOOS, runtime.GOARCH, distDir, *verbose)
	case "test":
		err = runTests(*verbose)
	case "clean":
		err = os.RemoveAll(distDir)
	case "release":
		err = buildRelease(*verbose)
	default:
		showHelp()
		os.Exit(1)
	}
	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Build completed in %s", time.Since(startTime).Round(time.Millisecond)))
}

func printHeader() {
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println(colorCyan + "     Sales Analytics - Build System        " + colorReset)
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println()
}

func printInfo(msg string) {
	fmt.Printf("%s[INFO]%s %s\n", colorBlue, colorReset, msg)
}

func printSuccess(msg string) {
	fmt.Printf("%s[SUCCESS]%s %s\n", colorGreen, colorReset, msg)
}

func printError(msg string) {
	fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg)
}

func buildAll(goos, goarch, outDir string, verbose bool) error {
	for name := range executables {
		if err := buildExecutable(name, goos, goarch, outDir, verbose); err != nil {
			return err
		}
	}
	return nil
}

func buildExecutable(name, goos, goarch, outDir string, verbose bool) error {
	exeName := executables[name]
	if goos == "windows" {
		exeName += ".exe"
	}
	outputPath := filepath.Join(outDir, exeName)
	printInfo(fmt.Sprintf("Building %s for %s/%s...", name, goos, goarch))

	ldflags := fmt.Sprintf("-s -w -X %s.BuildTime=%s -X %s.GitCommit=%s",
		versionPkg, time.Now().UTC().Format(time.RFC3339), versionPkg, gitCommit())

	args := []string{"build"}
	if verbose {
		args = append(args, "-v")
	}
	args = append(args, "-trimpath", "-ldflags", ldflags, "-o", outputPath, "./cmd/"+name)

	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0", "GOOS="+goos, "GOARCH="+goarch)
	cmd.Stderr = os.Stderr
	if verbose {
		fmt.Printf("Running: go %s\n", strings.Join(args, " "))
		cmd.Stdout = os.Stdout
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to build %s: %w", name, err)
	}

	if info, err := os.Stat(outputPath); err == nil {
		printSuccess(fmt.Sprintf("Built %s (%.1f MB)", outputPath, float64(info.Size())/1024/1024))
	}
	return nil
}

func runTests(verbose bool) error {
	printInfo("Running Go tests...")
	args := []string{"test", "-race"}
	if verbose {
		args = append(args, "-v")
	}
	args = append(args, "./...")

	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("go tests failed: %w", err)
	}
	return nil
}

// buildRelease cross-compiles every executable into dist/<os>_<arch>.
func buildRelease(verbose bool) error {
	if err := os.RemoveAll(distDir); err != nil {
		return err
	}
	for _, platform := range releasePlatforms {
		goos, goarch, _ := strings.Cut(platform, "/")
		if err := buildAll(goos, goarch, filepath.Join(distDir, goos+"_"+goarch), verbose); err != nil {
			return err
		}
	}
	return nil
}

func gitCommit() string {
	out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}

func showHelp() {
	fmt.Println("Usage: go run build.go [-target=TARGET] [-v]")
	fmt.Println()
	fmt.Println("Targets:")
	fmt.Println("  all          Build the web server and the salesreport CLI (default)")
	fmt.Println("  web          Build the web server only")
	fmt.Println("  salesreport  Build the CLI only")
	fmt.Println("  test         Run all tests with the race detector")
	fmt.Println("  clean        Remove dist/")
	fmt.Println("  release      Cross-compile for " + strings.Join(releasePlatforms, ", "))
}
