package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// serverKey is the name the MCP server is registered under in every client.
const serverKey = "codegraph"

// installConfig holds settings shared by the install and uninstall commands.
type installConfig struct {
	dryRun bool
	force  bool
}

type installCmd struct {
	DryRun bool `help:"Print planned changes without writing anything."`
	Force  bool `help:"Overwrite existing skill files."`
}

func (c *installCmd) Run() error {
	return runInstall(installConfig{dryRun: c.DryRun, force: c.Force})
}

type uninstallCmd struct {
	DryRun bool `help:"Print planned changes without removing anything."`
}

func (c *uninstallCmd) Run() error {
	return runUninstall(installConfig{dryRun: c.DryRun})
}

func runInstall(cfg installConfig) error {
	binaryPath, err := detectBinaryPath()
	if err != nil {
		return err
	}

	fmt.Printf("\ncodegraph-mcp %s install\n", version)
	fmt.Printf("Binary: %s\n\n", binaryPath)

	ensurePATH(binaryPath, cfg)
	installSkills(cfg)

	if claudePath := findCLI("claude"); claudePath != "" {
		fmt.Printf("[Claude Code] detected (%s)\n", claudePath)
		registerClaudeMCP(binaryPath, claudePath, cfg)
	} else {
		fmt.Println("[Claude Code] not found, skipping MCP registration")
	}
	fmt.Println()

	if codexPath := findCLI("codex"); codexPath != "" {
		fmt.Printf("[Codex CLI] detected (%s)\n", codexPath)
		installCodex(binaryPath, cfg)
	} else {
		fmt.Println("[Codex CLI] not found, skipping")
	}
	fmt.Println()

	installEditorMCP(binaryPath, cursorConfigPath(), "Cursor", cfg)
	installEditorMCP(binaryPath, windsurfConfigPath(), "Windsurf", cfg)

	fmt.Println("\nDone. Restart Claude Code / Codex / Cursor / Windsurf to activate.")
	return nil
}

func runUninstall(cfg installConfig) error {
	fmt.Printf("\ncodegraph-mcp %s uninstall\n\n", version)

	removeSkills(cfg)

	if claudePath := findCLI("claude"); claudePath != "" {
		fmt.Printf("[Claude Code] detected (%s)\n", claudePath)
		deregisterClaudeMCP(claudePath, cfg)
	}

	if codexPath := findCLI("codex"); codexPath != "" {
		fmt.Printf("[Codex CLI] detected (%s)\n", codexPath)
		removeCodexMCP(cfg)
		removeCodexInstructions(cfg)
	}

	removeEditorMCP(cursorConfigPath(), "Cursor", cfg)
	removeEditorMCP(windsurfConfigPath(), "Windsurf", cfg)

	fmt.Println("\nDone. The binary and the graph database were NOT removed.")
	return nil
}

// detectBinaryPath resolves the current binary's real path.
func detectBinaryPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("detect binary: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("resolve symlink: %w", err)
	}
	return resolved, nil
}

// ensurePATH checks whether the binary directory is on PATH and appends an
// export line to the shell rc file when it is not.
func ensurePATH(binaryPath string, cfg installConfig) {
	binDir := filepath.Dir(binaryPath)
	pathDirs := filepath.SplitList(os.Getenv("PATH"))

	fmt.Println("[PATH]")
	for _, d := range pathDirs {
		if d == binDir {
			fmt.Printf("  ✓ %s already on PATH\n", binDir)
			return
		}
	}

	fmt.Printf("  ⚠ %s is not on PATH\n", binDir)

	if runtime.GOOS == "windows" {
		fmt.Printf("  → Add %s to your PATH environment variable manually\n", binDir)
		return
	}

	rcFile := detectShellRC()
	if rcFile == "" {
		fmt.Printf("  → Add to your shell profile: export PATH=\"%s:$PATH\"\n", binDir)
		return
	}

	line := fmt.Sprintf("export PATH=\"%s:$PATH\"", binDir)

	if content, err := os.ReadFile(rcFile); err == nil {
		if strings.Contains(string(content), line) {
			fmt.Printf("  ✓ Already in %s (restart terminal to activate)\n", rcFile)
			return
		}
	}

	if cfg.dryRun {
		fmt.Printf("  [dry-run] Would append to %s: %s\n", rcFile, line)
		return
	}

	f, err := os.OpenFile(rcFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		fmt.Printf("  ⚠ Could not write to %s: %v\n", rcFile, err)
		fmt.Printf("  → Add manually: %s\n", line)
		return
	}
	defer f.Close()
	fmt.Fprintf(f, "\n# Added by codegraph-mcp install\n%s\n", line)
	fmt.Printf("  ✓ Added to %s: %s\n", rcFile, line)
	fmt.Printf("  → Run: source %s (or restart terminal)\n", rcFile)
}

// detectShellRC returns the rc file for the user's shell.
func detectShellRC() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	shell := os.Getenv("SHELL")
	switch {
	case strings.HasSuffix(shell, "/zsh"):
		return filepath.Join(home, ".zshrc")
	case strings.HasSuffix(shell, "/bash"):
		bashrc := filepath.Join(home, ".bashrc")
		if _, err := os.Stat(bashrc); err == nil {
			return bashrc
		}
		return filepath.Join(home, ".bash_profile")
	case strings.HasSuffix(shell, "/fish"):
		return filepath.Join(home, ".config", "fish", "config.fish")
	default:
		return filepath.Join(home, ".profile")
	}
}

// installSkills writes the agent skill files under ~/.claude/skills/.
// Existing files are kept unless force is set.
func installSkills(cfg installConfig) {
	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Printf("  ⚠ Cannot determine home directory: %v\n", err)
		return
	}

	fmt.Println("[Skills]")
	for name, content := range skillFiles {
		skillDir := filepath.Join(home, ".claude", "skills", name)
		skillFile := filepath.Join(skillDir, "SKILL.md")

		if !cfg.force {
			if _, err := os.Stat(skillFile); err == nil {
				fmt.Printf("  ✓ Skill exists (skip): %s\n", skillFile)
				continue
			}
		}

		if cfg.dryRun {
			fmt.Printf("  [dry-run] Would write: %s\n", skillFile)
			continue
		}

		if err := os.MkdirAll(skillDir, 0o750); err != nil {
			fmt.Printf("  ⚠ mkdir %s: %v\n", skillDir, err)
			continue
		}
		if err := os.WriteFile(skillFile, []byte(content), 0o600); err != nil {
			fmt.Printf("  ⚠ write %s: %v\n", skillFile, err)
			continue
		}
		fmt.Printf("  ✓ Skill: %s\n", skillFile)
	}
}

// removeSkills removes the installed skill directories.
func removeSkills(cfg installConfig) {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}

	fmt.Println("[Skills]")
	for name := range skillFiles {
		skillDir := filepath.Join(home, ".claude", "skills", name)
		if _, err := os.Stat(skillDir); os.IsNotExist(err) {
			continue
		}
		if cfg.dryRun {
			fmt.Printf("  [dry-run] Would remove: %s\n", skillDir)
			continue
		}
		if err := os.RemoveAll(skillDir); err != nil {
			fmt.Printf("  ⚠ remove %s: %v\n", skillDir, err)
		} else {
			fmt.Printf("  ✓ Removed: %s\n", skillDir)
		}
	}
}

// registerClaudeMCP registers the server with the Claude Code CLI.
func registerClaudeMCP(binaryPath, claudePath string, cfg installConfig) {
	if cfg.dryRun {
		fmt.Printf("  [dry-run] Would run: %s mcp remove -s user %s\n", claudePath, serverKey)
		fmt.Printf("  [dry-run] Would run: %s mcp add --scope user %s -- %s serve\n", claudePath, serverKey, binaryPath)
		return
	}

	// Silent remove first; it fails when not registered, which is fine.
	_ = execCLI(claudePath, "mcp", "remove", "-s", "user", serverKey)
	if err := execCLI(claudePath, "mcp", "add", "--scope", "user", serverKey, "--", binaryPath, "serve"); err != nil {
		fmt.Printf("  ⚠ MCP registration failed: %v\n", err)
	} else {
		fmt.Println("  ✓ MCP server registered (scope: user)")
	}
}

// deregisterClaudeMCP removes the server registration from the Claude Code CLI.
func deregisterClaudeMCP(claudePath string, cfg installConfig) {
	if cfg.dryRun {
		fmt.Printf("  [dry-run] Would run: %s mcp remove -s user %s\n", claudePath, serverKey)
		return
	}
	if err := execCLI(claudePath, "mcp", "remove", "-s", "user", serverKey); err != nil {
		fmt.Printf("  ⚠ Claude Code MCP deregistration: %v\n", err)
	} else {
		fmt.Println("  ✓ Claude Code MCP server deregistered")
	}
}

// installCodex registers the server in Codex's config.toml and writes the
// instructions file.
func installCodex(binaryPath string, cfg installConfig) {
	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Printf("  ⚠ Cannot determine home directory: %v\n", err)
		return
	}

	configFile := filepath.Join(home, ".codex", "config.toml")
	if cfg.dryRun {
		fmt.Printf("  [dry-run] Would add MCP server to: %s\n", configFile)
	} else {
		if err := os.MkdirAll(filepath.Dir(configFile), 0o750); err != nil {
			fmt.Printf("  ⚠ mkdir %s: %v\n", filepath.Dir(configFile), err)
		} else if err := upsertCodexMCP(configFile, binaryPath); err != nil {
			fmt.Printf("  ⚠ MCP registration failed: %v\n", err)
		} else {
			fmt.Printf("  ✓ MCP server registered: %s\n", configFile)
		}
	}

	instrDir := filepath.Join(home, ".codex", "instructions")
	instrFile := filepath.Join(instrDir, "codegraph-mcp.md")

	if cfg.dryRun {
		fmt.Printf("  [dry-run] Would write: %s\n", instrFile)
		return
	}
	if err := os.MkdirAll(instrDir, 0o750); err != nil {
		fmt.Printf("  ⚠ mkdir %s: %v\n", instrDir, err)
		return
	}
	if err := os.WriteFile(instrFile, []byte(codexInstructions), 0o600); err != nil {
		fmt.Printf("  ⚠ write %s: %v\n", instrFile, err)
		return
	}
	fmt.Printf("  ✓ Instructions: %s\n", instrFile)
}

// codexSection renders the config.toml section for this server.
func codexSection(binaryPath string) string {
	return fmt.Sprintf("[mcp_servers.%s]\ncommand = %q\nargs = [\"serve\"]\n", serverKey, binaryPath)
}

// upsertCodexMCP adds or replaces the server section in config.toml.
func upsertCodexMCP(configFile, binaryPath string) error {
	content, err := os.ReadFile(configFile)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	text := string(content)
	sectionHeader := fmt.Sprintf("[mcp_servers.%s]", serverKey)

	if idx := strings.Index(text, sectionHeader); idx >= 0 {
		// Replace the existing section up to the next header or EOF.
		rest := text[idx+len(sectionHeader):]
		endIdx := strings.Index(rest, "\n[")
		if endIdx < 0 {
			endIdx = len(rest)
		}
		text = text[:idx] + codexSection(binaryPath) + rest[endIdx:]
	} else {
		if text != "" && !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		text += "\n" + codexSection(binaryPath)
	}

	return os.WriteFile(configFile, []byte(text), 0o600)
}

// removeCodexMCP removes the server section from Codex's config.toml.
func removeCodexMCP(cfg installConfig) {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	configFile := filepath.Join(home, ".codex", "config.toml")
	content, err := os.ReadFile(configFile)
	if err != nil {
		return
	}

	text := string(content)
	sectionHeader := fmt.Sprintf("[mcp_servers.%s]", serverKey)
	idx := strings.Index(text, sectionHeader)
	if idx < 0 {
		return
	}

	if cfg.dryRun {
		fmt.Printf("  [dry-run] Would remove MCP section from: %s\n", configFile)
		return
	}

	rest := text[idx+len(sectionHeader):]
	endIdx := strings.Index(rest, "\n[")
	if endIdx < 0 {
		text = strings.TrimRight(text[:idx], "\n")
	} else {
		text = text[:idx] + rest[endIdx+1:]
	}

	if err := os.WriteFile(configFile, []byte(text), 0o600); err != nil {
		fmt.Printf("  ⚠ update %s: %v\n", configFile, err)
	} else {
		fmt.Printf("  ✓ Removed MCP section from: %s\n", configFile)
	}
}

// removeCodexInstructions removes the Codex instructions file.
func removeCodexInstructions(cfg installConfig) {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	instrFile := filepath.Join(home, ".codex", "instructions", "codegraph-mcp.md")
	if _, err := os.Stat(instrFile); os.IsNotExist(err) {
		return
	}
	if cfg.dryRun {
		fmt.Printf("  [dry-run] Would remove: %s\n", instrFile)
		return
	}
	if err := os.Remove(instrFile); err != nil {
		fmt.Printf("  ⚠ remove %s: %v\n", instrFile, err)
	} else {
		fmt.Printf("  ✓ Removed: %s\n", instrFile)
	}
}

// findCLI locates a CLI binary by name, checking PATH first and then common
// install locations.
func findCLI(name string) string {
	if p, err := exec.LookPath(name); err == nil {
		return p
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	candidates := []string{
		"/usr/local/bin/" + name,
		filepath.Join(home, ".npm", "bin", name),
		filepath.Join(home, ".local", "bin", name),
		filepath.Join(home, ".cargo", "bin", name),
	}
	if runtime.GOOS == "darwin" {
		candidates = append(candidates, "/opt/homebrew/bin/"+name)
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// execCLI runs an external CLI command with a timeout.
func execCLI(path string, args ...string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// cursorConfigPath returns the Cursor MCP config path.
func cursorConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cursor", "mcp.json")
}

// windsurfConfigPath returns the Windsurf MCP config path.
func windsurfConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".codeium", "windsurf", "mcp_config.json")
}

// installEditorMCP upserts the server entry in an editor's JSON config file,
// preserving entries for other servers.
func installEditorMCP(binaryPath, configPath, editorName string, cfg installConfig) {
	if configPath == "" {
		return
	}

	fmt.Printf("[%s] MCP config: %s\n", editorName, configPath)

	if cfg.dryRun {
		fmt.Printf("  [dry-run] Would upsert %s in %s\n", serverKey, configPath)
		return
	}

	root := make(map[string]any)
	if data, err := os.ReadFile(configPath); err == nil {
		if jsonErr := json.Unmarshal(data, &root); jsonErr != nil {
			fmt.Printf("  ⚠ Invalid JSON in %s, overwriting\n", configPath)
			root = make(map[string]any)
		}
	}

	servers, ok := root["mcpServers"].(map[string]any)
	if !ok {
		servers = make(map[string]any)
	}
	servers[serverKey] = map[string]any{
		"command": binaryPath,
		"args":    []string{"serve"},
	}
	root["mcpServers"] = servers

	if err := os.MkdirAll(filepath.Dir(configPath), 0o750); err != nil {
		fmt.Printf("  ⚠ mkdir %s: %v\n", filepath.Dir(configPath), err)
		return
	}
	out, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		fmt.Printf("  ⚠ marshal JSON: %v\n", err)
		return
	}
	if err := os.WriteFile(configPath, append(out, '\n'), 0o600); err != nil {
		fmt.Printf("  ⚠ write %s: %v\n", configPath, err)
		return
	}
	fmt.Printf("  ✓ MCP server registered in %s\n", configPath)
}

// removeEditorMCP removes the server entry from an editor's JSON config file.
func removeEditorMCP(configPath, editorName string, cfg installConfig) {
	if configPath == "" {
		return
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return
	}

	var root map[string]any
	if err := json.Unmarshal(data, &root); err != nil {
		return
	}
	servers, ok := root["mcpServers"].(map[string]any)
	if !ok {
		return
	}
	if _, exists := servers[serverKey]; !exists {
		return
	}

	fmt.Printf("[%s] MCP config: %s\n", editorName, configPath)

	if cfg.dryRun {
		fmt.Printf("  [dry-run] Would remove %s from %s\n", serverKey, configPath)
		return
	}

	delete(servers, serverKey)
	root["mcpServers"] = servers

	out, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		fmt.Printf("  ⚠ marshal JSON: %v\n", err)
		return
	}
	if err := os.WriteFile(configPath, append(out, '\n'), 0o600); err != nil {
		fmt.Printf("  ⚠ write %s: %v\n", configPath, err)
		return
	}
	fmt.Printf("  ✓ Removed %s from %s\n", serverKey, configPath)
}
