package catalog

// formulaDoc is the YAML schema of one formula document.
type formulaDoc struct {
	Name         string            `yaml:"name"`
	Version      string            `yaml:"version"`
	Dependencies []dependencyDoc   `yaml:"dependencies"`
	Bottle       *artifactDoc      `yaml:"bottle"`
	Source       *artifactDoc      `yaml:"source"`
	Build        string            `yaml:"build"`
	RuntimeEnv   map[string]string `yaml:"runtime_env"`
	Artifacts    []stanzaDoc       `yaml:"artifacts"`
}

// dependencyDoc is one dependency edge. Kind defaults to "required".
type dependencyDoc struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
}

type artifactDoc struct {
	URL    string `yaml:"url"`
	SHA256 string `yaml:"sha256"`
}

type stanzaDoc struct {
	Kind   string `yaml:"kind"`
	Source string `yaml:"source"`
	Target string `yaml:"target"`
}
