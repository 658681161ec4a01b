package migration

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// {version}_{description}.sql, e.g. 001_create_records.sql
var migrationFilePattern = regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_-]+)\.sql$`)

// FSScanner reads migration files from a directory of an fs.FS, typically an
// embedded one
type FSScanner struct {
	fsys fs.FS
	dir  string
}

// NewFSScanner creates a scanner rooted at dir inside fsys
func NewFSScanner(fsys fs.FS, dir string) *FSScanner {
	if dir == "" {
		dir = "."
	}
	return &FSScanner{fsys: fsys, dir: dir}
}

// ScanMigrations returns the migrations found in the directory ordered by version
func (s *FSScanner) ScanMigrations() ([]Migration, error) {
	entries, err := fs.ReadDir(s.fsys, s.dir)
	if err != nil {
		return nil, NewMigrationError("", s.dir, "read directory", err)
	}

	var migrations []Migration
	seen := make(map[string]string)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		migration, err := s.parse(entry.Name())
		if err != nil {
			return nil, err
		}

		if existing, dup := seen[migration.Version]; dup {
			return nil, NewMigrationError(migration.Version, entry.Name(), "check duplicates",
				fmt.Errorf("%w: version %s found in both %s and %s", ErrDuplicateVersion, migration.Version, existing, entry.Name()))
		}
		seen[migration.Version] = entry.Name()

		migrations = append(migrations, migration)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return versionNumber(migrations[i].Version) < versionNumber(migrations[j].Version)
	})

	return migrations, nil
}

// ValidateFileName checks if migration file follows naming convention
func ValidateFileName(filename string) error {
	matches := migrationFilePattern.FindStringSubmatch(filename)
	if len(matches) != 3 {
		return fmt.Errorf("%w: filename '%s' does not match pattern '{version}_{description}.sql'",
			ErrInvalidMigrationFile, filename)
	}
	return nil
}

func (s *FSScanner) parse(filename string) (Migration, error) {
	filePath := path.Join(s.dir, filename)

	if err := ValidateFileName(filename); err != nil {
		return Migration{}, NewMigrationError("", filePath, "validate filename", err)
	}
	matches := migrationFilePattern.FindStringSubmatch(filename)
	version := matches[1]

	content, err := fs.ReadFile(s.fsys, filePath)
	if err != nil {
		return Migration{}, NewMigrationError(version, filePath, "read file", err)
	}

	sqlContent := string(content)
	if strings.TrimSpace(sqlContent) == "" {
		return Migration{}, NewMigrationError(version, filePath, "validate content",
			fmt.Errorf("%w: migration file is empty", ErrInvalidMigrationFile))
	}

	description := descriptionFromContent(sqlContent)
	if description == "" {
		description = strings.ReplaceAll(matches[2], "_", " ")
	}

	sum := sha256.Sum256(content)

	return Migration{
		Version:     version,
		Description: description,
		SQL:         sqlContent,
		FilePath:    filePath,
		Checksum:    hex.EncodeToString(sum[:]),
	}, nil
}

// descriptionFromContent picks up a leading "-- Description: ..." comment
func descriptionFromContent(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "--") {
			return ""
		}
		comment := strings.TrimSpace(strings.TrimPrefix(line, "--"))
		if lower := strings.ToLower(comment); strings.HasPrefix(lower, "description:") {
			return strings.TrimSpace(comment[len("description:"):])
		}
	}
	return ""
}

func versionNumber(version string) int {
	n, err := strconv.Atoi(version)
	if err != nil {
		return -1
	}
	return n
}
