// Package envfile appends provider defaults to a dotenv file without
// touching variables that are already defined.
package envfile

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"starterkit/internal/logging"
)

// Publisher appends missing variables to one dotenv file.
type Publisher struct {
	path   string
	logger *logging.Logger
}

// NewPublisher returns a publisher for the file at path. The file is
// created on first publish when missing.
func NewPublisher(path string, logger *logging.Logger) *Publisher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Publisher{path: path, logger: logger}
}

// Path returns the dotenv file location.
func (p *Publisher) Path() string {
	return p.path
}

// Read returns the variables currently defined in the file. A missing file
// has none.
func (p *Publisher) Read() (map[string]string, error) {
	env, err := godotenv.Read(p.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	return env, err
}

// Publish appends every variable of vars not yet defined under a
// "# title" comment. It reports whether anything was written.
func (p *Publisher) Publish(title string, vars map[string]string) (bool, error) {
	existing, err := p.Read()
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", p.path, err)
	}

	missing := make(map[string]string)
	for k, v := range vars {
		if _, ok := existing[k]; !ok {
			missing[k] = v
		}
	}
	if len(missing) == 0 {
		return false, nil
	}

	body, err := godotenv.Marshal(missing)
	if err != nil {
		return false, err
	}

	prefix, err := p.separator()
	if err != nil {
		return false, err
	}

	f, err := os.OpenFile(p.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s# %s\n%s\n", prefix, title, body); err != nil {
		return false, err
	}

	p.logger.Info("Published env vars", map[string]interface{}{
		"title": title,
		"path":  p.path,
		"count": len(missing),
	})
	return true, nil
}

// separator is the text needed before a new block: a blank line after
// existing content, completing a missing final newline.
func (p *Publisher) separator() (string, error) {
	data, err := os.ReadFile(p.path)
	if os.IsNotExist(err) || len(data) == 0 {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if strings.HasSuffix(string(data), "\n") {
		return "\n", nil
	}
	return "\n\n", nil
}
