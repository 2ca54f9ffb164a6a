package migrate

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// nonPortableSQL lists postgres-only constructs that break the sqlite
// database used by local runs and tests.
var nonPortableSQL = []struct {
	re   *regexp.Regexp
	what string
}{
	{regexp.MustCompile(`::\s*[a-zA-Z]`), "postgres cast (::type)"},
	{regexp.MustCompile(`(?i)\bJSONB\b`), "JSONB column"},
	{regexp.MustCompile(`(?i)\bTIMESTAMPTZ\b`), "TIMESTAMPTZ column"},
	{regexp.MustCompile(`(?i)\b(BIG)?SERIAL\b`), "SERIAL column"},
	{regexp.MustCompile(`(?i)\bCREATE\s+EXTENSION\b`), "CREATE EXTENSION"},
	{regexp.MustCompile(`(?i)\bgen_random_uuid\s*\(`), "gen_random_uuid()"},
}

// ValidateDir checks migration filenames, version uniqueness, goose section
// markers, balanced StatementBegin/End blocks and the portable SQL subset.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	seen := map[string]string{} // version -> filename

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".sql") {
			continue
		}

		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			return fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}

		version := m[1]
		if prev, ok := seen[version]; ok {
			return fmt.Errorf("duplicate migration version %s in %q and %q", version, prev, name)
		}
		seen[version] = name

		full := filepath.Join(dir, name)
		b, err := os.ReadFile(full)
		if err != nil {
			return fmt.Errorf("read file %q: %w", full, err)
		}
		if err := validateBody(string(b)); err != nil {
			return fmt.Errorf("migration %q: %w", name, err)
		}
	}

	return nil
}

func validateBody(txt string) error {
	upAt := strings.Index(txt, "-- +goose Up")
	downAt := strings.Index(txt, "-- +goose Down")
	if upAt < 0 {
		return fmt.Errorf("missing \"-- +goose Up\"")
	}
	if downAt < 0 {
		return fmt.Errorf("missing \"-- +goose Down\"")
	}
	if downAt < upAt {
		return fmt.Errorf("\"-- +goose Down\" appears before \"-- +goose Up\"")
	}

	open := false
	lineNo := 0
	scanner := bufio.NewScanner(strings.NewReader(txt))
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "-- +goose StatementBegin":
			if open {
				return fmt.Errorf("line %d: nested StatementBegin", lineNo)
			}
			open = true
			continue
		case "-- +goose StatementEnd":
			if !open {
				return fmt.Errorf("line %d: StatementEnd without StatementBegin", lineNo)
			}
			open = false
			continue
		case "-- +goose Up", "-- +goose Down":
			if open {
				return fmt.Errorf("line %d: section marker inside an open statement block", lineNo)
			}
			continue
		}
		if strings.HasPrefix(line, "--") {
			continue
		}
		for _, np := range nonPortableSQL {
			if np.re.MatchString(line) {
				return fmt.Errorf("line %d: %s is not portable to sqlite", lineNo, np.what)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if open {
		return fmt.Errorf("unterminated StatementBegin")
	}
	return nil
}
