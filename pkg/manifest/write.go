package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/NullVoxPopuli/dep-hellp/pkg/errors"
)

var packageManagerFieldRe = regexp.MustCompile(`"packageManager"\s*:\s*"[^"]*"`)

// SetPackageManager writes the "packageManager" field into the manifest at
// path. The rest of the file is left byte-for-byte as it was: an existing
// field is replaced in place, otherwise the field is inserted as the first
// key using the file's own indentation.
func SetPackageManager(path, value string) error {
	if err := errors.ValidatePackageManager(value); err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "stat %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidManifest, err, "read %s", path)
	}
	if _, err := Parse(data); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidManifest, err, "parse %s", path)
	}

	updated, err := setPackageManager(string(data), value)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidManifest, err, "update %s", path)
	}
	if err := os.WriteFile(path, []byte(updated), info.Mode().Perm()); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	return nil
}

func setPackageManager(content, value string) (string, error) {
	quoted, _ := json.Marshal(value)
	field := `"packageManager": ` + string(quoted)

	if packageManagerFieldRe.MatchString(content) {
		return packageManagerFieldRe.ReplaceAllLiteralString(content, field), nil
	}

	open := strings.IndexByte(content, '{')
	if open < 0 {
		return "", fmt.Errorf("no JSON object found")
	}
	rest := content[open+1:]
	if strings.HasPrefix(strings.TrimSpace(rest), "}") {
		closing := strings.IndexByte(rest, '}')
		return content[:open+1] + "\n  " + field + "\n" + rest[closing:], nil
	}

	return content[:open+1] + "\n" + detectIndent(rest) + field + "," + rest, nil
}

// detectIndent returns the leading whitespace of the first key after "{".
func detectIndent(rest string) string {
	trimmed := strings.TrimLeft(rest, "\r\n")
	if len(trimmed) == len(rest) {
		return "  "
	}
	indent := trimmed[:len(trimmed)-len(strings.TrimLeft(trimmed, " \t"))]
	if indent == "" {
		return "  "
	}
	return indent
}
