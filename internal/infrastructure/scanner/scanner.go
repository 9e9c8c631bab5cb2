// Package scanner walks a fetched repository workspace and produces the two
// inputs the pipeline needs: a bounded project-structure listing for AI
// prompts, and a heuristically ranked candidate list used when AI file
// selection returns nothing.
package scanner

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

const (
	// DefaultMaxSelectedFiles bounds the unit of work per analysis run for
	// both the AI-selected and the heuristic candidate set.
	DefaultMaxSelectedFiles = 8

	DefaultMaxStructureEntries = 300
	DefaultMaxFileSizeBytes    = 100 * 1024

	entrypointScore = 100
	baseScore       = 10
)

// Directories excluded from the structure listing.
var structureNoiseDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"target":       true,
	"__pycache__":  true,
}

// Stricter directory blocklist applied by the heuristic fallback.
var candidateNoiseDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"target":       true,
	"build":        true,
	"dist":         true,
	"bin":          true,
	"obj":          true,
	"__pycache__":  true,
	".idea":        true,
	".vscode":      true,
}

var binaryExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".ico", ".class", ".jar"}

// Scripts, configs, markup, binaries and IDE artifacts that are noise for
// per-file documentation.
var blockedSuffixes = []string{
	".sh", ".bat", ".cmd", ".ps1", "dockerfile", "makefile", "jenkinsfile",
	".yml", ".yaml", ".xml", ".json", ".toml", ".conf", ".properties", ".ini", ".env",
	".txt", ".md", ".csv", ".sql", ".svg", ".css", ".html",
	".iml", ".class", ".jar", ".war", ".exe", ".dll", ".so",
	".suo", ".sln", ".user", ".lock", ".log", ".sum",
}

var vitalConfigNames = map[string]bool{
	"pom.xml":          true,
	"build.gradle":     true,
	"dockerfile":       true,
	"requirements.txt": true,
	"package.json":     true,
	"go.mod":           true,
	"cargo.toml":       true,
}

var entrypointPattern = regexp.MustCompile(`^(app|main|server|index|application)\.(go|java|py|js|ts|rb)$`)

type Scanner struct {
	maxSelectedFiles    int
	maxStructureEntries int
	maxFileSizeBytes    int64
}

func New() *Scanner {
	return &Scanner{
		maxSelectedFiles:    DefaultMaxSelectedFiles,
		maxStructureEntries: DefaultMaxStructureEntries,
		maxFileSizeBytes:    DefaultMaxFileSizeBytes,
	}
}

func NewWithLimits(maxSelectedFiles, maxStructureEntries int, maxFileSizeBytes int64) *Scanner {
	s := New()
	if maxSelectedFiles > 0 {
		s.maxSelectedFiles = maxSelectedFiles
	}
	if maxStructureEntries > 0 {
		s.maxStructureEntries = maxStructureEntries
	}
	if maxFileSizeBytes > 0 {
		s.maxFileSizeBytes = maxFileSizeBytes
	}
	return s
}

// ProjectStructure lists every relevant file as a slash-separated relative
// path, vital config files pinned first and the rest alphabetical, truncated
// to keep the AI prompt bounded.
func (s *Scanner) ProjectStructure(root string) (string, error) {
	var entries []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if structureNoiseDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		name := strings.ToLower(d.Name())
		for _, ext := range binaryExtensions {
			if strings.HasSuffix(name, ext) {
				return nil
			}
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		entries = append(entries, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walk workspace: %w", err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		vi := vitalConfigNames[strings.ToLower(filepath.Base(entries[i]))]
		vj := vitalConfigNames[strings.ToLower(filepath.Base(entries[j]))]
		if vi != vj {
			return vi
		}
		return entries[i] < entries[j]
	})
	if len(entries) > s.maxStructureEntries {
		entries = entries[:s.maxStructureEntries]
	}

	var sb strings.Builder
	sb.WriteString("Project Structure:\n")
	for _, entry := range entries {
		sb.WriteString(entry)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

// FallbackSelection ranks workspace files by the heuristic score and returns
// the top candidates as relative paths. It applies the strict blocklist, the
// size ceiling and a binary sniff, so only documentable source survives.
func (s *Scanner) FallbackSelection(root string) ([]string, error) {
	type scored struct {
		rel   string
		score int
	}
	var candidates []scored

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if candidateNoiseDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !s.isValidCodeFile(path, d) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		candidates = append(candidates, scored{
			rel:   filepath.ToSlash(rel),
			score: fileScore(d.Name()),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk workspace: %w", err)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > s.maxSelectedFiles {
		candidates = candidates[:s.maxSelectedFiles]
	}

	selected := make([]string, 0, len(candidates))
	for _, c := range candidates {
		selected = append(selected, c.rel)
	}
	return selected, nil
}

// MapSelection resolves AI-returned relative paths to workspace files by
// suffix match, tolerating separator and prefix differences between what the
// AI saw in the structure listing and the local path representation. The
// result is capped at the same candidate maximum as the fallback.
func (s *Scanner) MapSelection(root string, selected []string) ([]string, error) {
	normalized := make([]string, 0, len(selected))
	for _, sel := range selected {
		sel = strings.TrimSpace(strings.ReplaceAll(sel, "\\", "/"))
		sel = strings.TrimPrefix(sel, "./")
		if sel != "" {
			normalized = append(normalized, sel)
		}
	}
	if len(normalized) == 0 {
		return nil, nil
	}

	var matched []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if structureNoiseDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || len(matched) >= s.maxSelectedFiles {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		slashRel := filepath.ToSlash(rel)
		for _, sel := range normalized {
			if strings.HasSuffix(slashRel, sel) {
				matched = append(matched, slashRel)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk workspace: %w", err)
	}
	return matched, nil
}

func (s *Scanner) ReadFile(root, relPath string) (string, error) {
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(relPath)))
	if err != nil {
		return "", fmt.Errorf("read workspace file %s: %w", relPath, err)
	}
	return string(data), nil
}

func (s *Scanner) isValidCodeFile(path string, d fs.DirEntry) bool {
	name := strings.ToLower(d.Name())
	for _, suffix := range blockedSuffixes {
		if strings.HasSuffix(name, suffix) {
			return false
		}
	}
	info, err := d.Info()
	if err != nil || info.Size() > s.maxFileSizeBytes {
		return false
	}
	return !isBinaryFile(path)
}

func fileScore(filename string) int {
	if entrypointPattern.MatchString(strings.ToLower(filename)) {
		return entrypointScore
	}
	return baseScore
}

// isBinaryFile sniffs for a NUL byte in the first 512 bytes. Unreadable files
// count as binary so they fall out of the candidate set.
func isBinaryFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return true
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return true
	}
	for _, b := range buf[:n] {
		if b == 0 {
			return true
		}
	}
	return false
}
