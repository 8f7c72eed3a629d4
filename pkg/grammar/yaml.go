package grammar

// yamlRule is the intermediate struct for parsing directive rule files.
type yamlRule struct {
	ID               string   `yaml:"id"`
	Name             string   `yaml:"name"`
	Kind             string   `yaml:"kind"`
	Pattern          string   `yaml:"pattern"`
	Description      string   `yaml:"description,omitempty"`
	Keywords         []string `yaml:"keywords,omitempty"`
	Examples         []string `yaml:"examples,omitempty"`
	NegativeExamples []string `yaml:"negative_examples,omitempty"`
	Priority         int      `yaml:"priority,omitempty"`
}

// yamlRulesFile is the top-level structure of a rules file.
type yamlRulesFile struct {
	Rules []yamlRule `yaml:"rules"`
}
