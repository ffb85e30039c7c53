package main

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/lumenforge/codegraph-mcp/internal/selfupdate"
)

// newCommand wraps exec.Command for testability.
var newCommand = exec.Command

type upgradeCmd struct {
	DryRun bool `help:"Check for a new release without installing it."`
}

func (c *upgradeCmd) Run() error {
	current := strings.TrimSuffix(version, "-dev")
	fmt.Printf("codegraph-mcp %s, checking for updates...\n", version)

	if runtime.GOOS == "windows" {
		return fmt.Errorf("self-upgrade is not supported on Windows; download the latest release from https://github.com/lumenforge/codegraph-mcp/releases/latest")
	}

	ctx := context.Background()

	release, err := selfupdate.FetchLatestRelease(ctx)
	if err != nil {
		return fmt.Errorf("fetch release: %w", err)
	}

	latest := release.LatestVersion()
	if latest == "" {
		return fmt.Errorf("could not determine latest version")
	}
	if selfupdate.CompareVersions(latest, current) <= 0 {
		fmt.Printf("Already up to date (v%s)\n", current)
		return nil
	}

	fmt.Printf("Upgrade available: v%s to v%s\n", current, latest)

	assetName := selfupdate.AssetName()
	asset := release.FindAsset(assetName)
	if asset == nil {
		return fmt.Errorf("no release asset for %s/%s (%s)", runtime.GOOS, runtime.GOARCH, assetName)
	}

	if c.DryRun {
		fmt.Printf("[dry-run] Would download %s (%d bytes) and replace the binary\n", assetName, asset.Size)
		return nil
	}

	binary, err := downloadAndVerify(ctx, release, assetName, asset)
	if err != nil {
		return err
	}
	if err := replaceBinary(binary); err != nil {
		return err
	}

	fmt.Println("Re-applying installation...")
	if err := runInstall(installConfig{}); err != nil {
		return err
	}

	fmt.Printf("\nUpgraded to v%s. Restart your agent to activate.\n", latest)
	return nil
}

// downloadAndVerify downloads the release asset, checks its SHA-256 against
// checksums.txt when available, and extracts the binary.
func downloadAndVerify(ctx context.Context, release *selfupdate.Release, assetName string, asset *selfupdate.Asset) ([]byte, error) {
	fmt.Println("Downloading checksums...")
	checksums, err := selfupdate.DownloadChecksums(ctx, release)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v (skipping checksum verification)\n", err)
		checksums = nil
	}

	fmt.Printf("Downloading %s...\n", assetName)
	tarball, err := selfupdate.DownloadAsset(ctx, asset.BrowserDownloadURL)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}

	if expected, ok := checksums[assetName]; ok {
		hash := sha256.Sum256(tarball)
		actual := hex.EncodeToString(hash[:])
		if actual != expected {
			return nil, fmt.Errorf("checksum mismatch: expected %s, got %s", expected, actual)
		}
		fmt.Println("Checksum verified.")
	}

	binary, err := extractBinaryFromTarGz(tarball)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	return binary, nil
}

// replaceBinary swaps the current binary for the new one, restoring the
// backup when the replacement fails verification.
func replaceBinary(binary []byte) error {
	binaryPath, err := detectBinaryPath()
	if err != nil {
		return err
	}

	fmt.Printf("Replacing binary at %s...\n", binaryPath)

	tmpPath := binaryPath + ".tmp"
	if err := os.WriteFile(tmpPath, binary, 0o600); err != nil {
		return fmt.Errorf("write temp: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o500); err != nil {
		return fmt.Errorf("chmod temp: %w", err)
	}

	bakPath := binaryPath + ".bak"
	if cpErr := copyFile(binaryPath, bakPath); cpErr != nil {
		fmt.Fprintf(os.Stderr, "warning: backup failed: %v\n", cpErr)
	}

	if err := os.Rename(tmpPath, binaryPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename: %w", err)
	}

	if err := verifyBinary(binaryPath); err != nil {
		fmt.Println("Restoring previous version...")
		if restoreErr := os.Rename(bakPath, binaryPath); restoreErr != nil {
			return fmt.Errorf("restore failed (%v), backup at: %s", restoreErr, bakPath)
		}
		fmt.Println("Previous version restored.")
		return fmt.Errorf("new binary verification failed: %w", err)
	}

	os.Remove(bakPath)
	return nil
}

// extractBinaryFromTarGz extracts the codegraph-mcp binary from a .tar.gz
// release archive.
func extractBinaryFromTarGz(data []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	defer gr.Close()

	tr := tar.NewReader(gr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("tar: %w", err)
		}
		if hdr.Typeflag == tar.TypeReg && strings.HasPrefix(filepath.Base(hdr.Name), "codegraph-mcp") {
			content, err := io.ReadAll(tr)
			if err != nil {
				return nil, fmt.Errorf("read entry: %w", err)
			}
			return content, nil
		}
	}
	return nil, fmt.Errorf("binary not found in archive")
}

// verifyBinary runs --version on the new binary to ensure it executes.
func verifyBinary(path string) error {
	cmd := newCommand(path, "--version")
	out, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("--version failed: %w", err)
	}
	output := strings.TrimSpace(string(out))
	if !strings.Contains(output, "codegraph-mcp") {
		return fmt.Errorf("unexpected output: %s", output)
	}
	return nil
}

// copyFile copies src to dst.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
