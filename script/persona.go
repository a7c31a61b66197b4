package script

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Persona is a narration voice profile loaded from a markdown file with
// YAML frontmatter. The body after the frontmatter is the prompt text
// injected verbatim when generating the script.
type Persona struct {
	Name    string   `yaml:"name"`
	Opening string   `yaml:"opening"`
	Closing string   `yaml:"closing"`
	Tone    []string `yaml:"tone"`

	Prompt string `yaml:"-"`
}

// ParsePersona parses frontmatter between leading --- markers followed by
// the prompt body. Returns ok=false when the document has no frontmatter.
func ParsePersona(contents string) (Persona, bool) {
	sc := bufio.NewScanner(strings.NewReader(contents))
	if !sc.Scan() || strings.TrimSpace(sc.Text()) != "---" {
		return Persona{}, false
	}

	var yamlLines []string
	foundEnd := false
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "---" {
			foundEnd = true
			break
		}
		yamlLines = append(yamlLines, line)
	}
	if !foundEnd {
		return Persona{}, false
	}

	var p Persona
	if err := yaml.Unmarshal([]byte(strings.Join(yamlLines, "\n")), &p); err != nil {
		return Persona{}, false
	}
	if strings.TrimSpace(p.Name) == "" {
		return Persona{}, false
	}

	var body []string
	for sc.Scan() {
		body = append(body, sc.Text())
	}
	p.Prompt = strings.TrimSpace(strings.Join(body, "\n"))
	return p, true
}

// LoadPersona reads <dir>/<name>.md.
func LoadPersona(dir, name string) (Persona, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Persona{}, fmt.Errorf("empty persona name")
	}
	path := filepath.Join(dir, name+".md")
	data, err := os.ReadFile(path)
	if err != nil {
		return Persona{}, fmt.Errorf("read persona %s: %w", path, err)
	}
	p, ok := ParsePersona(string(data))
	if !ok {
		return Persona{}, fmt.Errorf("persona %s: missing or invalid frontmatter", path)
	}
	return p, nil
}
