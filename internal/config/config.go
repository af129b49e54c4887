package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models docketline.yml.
type Config struct {
	Matter struct {
		Jurisdiction string `yaml:"jurisdiction"`
	} `yaml:"matter"`
	Classifier    ClassifierConfig              `yaml:"classifier"`
	Jurisdictions map[string]JurisdictionConfig `yaml:"jurisdictions"`
	Board         BoardConfig                   `yaml:"board"`
	Webhooks      []WebhookConfig               `yaml:"webhooks"`
}

type ClassifierConfig struct {
	Model            string `yaml:"model"`
	TimeoutSeconds   int    `yaml:"timeout_seconds"`
	MaxDocumentChars int    `yaml:"max_document_chars"`
}

// JurisdictionConfig is the static rule catalog for one court/venue. It is
// seeded into the deadline_rules table the first time the jurisdiction is used.
type JurisdictionConfig struct {
	Court string       `yaml:"court"`
	Rules []RuleConfig `yaml:"rules"`
}

type RuleConfig struct {
	Source         string `yaml:"source"`
	Trigger        string `yaml:"trigger"`
	TriggerSubtype string `yaml:"trigger_subtype,omitempty"`
	OffsetDays     int    `yaml:"offset_days"`
	Criticality    string `yaml:"criticality"`
	Action         string `yaml:"action"`
	ResultDocType  string `yaml:"result_doc_type,omitempty"`
}

type BoardConfig struct {
	BaseURL string `yaml:"base_url,omitempty"`
	BoardID string `yaml:"board_id,omitempty"`
	Group   string `yaml:"group,omitempty"`
	APIKey  string `yaml:"api_key,omitempty"`
}

// WebhookConfig describes one calendar endpoint fed from the docket event log.
type WebhookConfig struct {
	URL            string   `yaml:"url"`
	Secret         string   `yaml:"secret,omitempty"`
	Events         []string `yaml:"events,omitempty"`
	TimeoutSeconds int      `yaml:"timeout_seconds,omitempty"`
	Enabled        *bool    `yaml:"enabled,omitempty"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; import with dk matter config import --file <path>", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Matter.Jurisdiction == "" {
		return fmt.Errorf("config.matter.jurisdiction is required")
	}
	if len(c.Jurisdictions) == 0 {
		return fmt.Errorf("config.jurisdictions is required")
	}
	if _, ok := c.Jurisdictions[c.Matter.Jurisdiction]; !ok {
		return fmt.Errorf("default jurisdiction %s has no rule catalog", c.Matter.Jurisdiction)
	}
	for name, j := range c.Jurisdictions {
		if name == "" {
			return fmt.Errorf("config.jurisdictions contains an empty key")
		}
		if len(j.Rules) == 0 {
			return fmt.Errorf("jurisdiction %s has no rules", name)
		}
		for i, r := range j.Rules {
			if r.Source == "" {
				return fmt.Errorf("jurisdiction %s rule %d has no source citation", name, i)
			}
			if r.Trigger == "" {
				return fmt.Errorf("jurisdiction %s rule %d has no trigger", name, i)
			}
			if r.Criticality != "hard" && r.Criticality != "soft" {
				return fmt.Errorf("jurisdiction %s rule %d criticality must be hard or soft", name, i)
			}
			if r.Action == "" {
				return fmt.Errorf("jurisdiction %s rule %d has no action text", name, i)
			}
		}
	}
	if c.Classifier.TimeoutSeconds < 0 {
		return fmt.Errorf("config.classifier.timeout_seconds must not be negative")
	}
	for i, hook := range c.Webhooks {
		if hook.URL == "" {
			return fmt.Errorf("webhook %d has no url", i)
		}
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "docketline.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault(jurisdiction string) string {
	return fmt.Sprintf(defaultTemplate, jurisdiction)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the default Config struct for a jurisdiction.
func Default(jurisdiction string) *Config {
	cfg, err := FromYAML([]byte(fmt.Sprintf(defaultTemplate, jurisdiction)))
	if err != nil {
		// The default template always parses; a bad jurisdiction key falls
		// back to the federal catalog.
		cfg, _ = FromYAML([]byte(fmt.Sprintf(defaultTemplate, "federal")))
	}
	return cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `matter:
  jurisdiction: %s

classifier:
  model: gpt-4o
  timeout_seconds: 30
  max_document_chars: 8000

jurisdictions:
  federal:
    court: "United States District Court"
    rules:
      - source: "FRCP 12(a)(1)(A)"
        trigger: "Complaint"
        offset_days: 21
        criticality: hard
        action: "File answer or responsive pleading"
        result_doc_type: "Answer"
      - source: "FRCP 33(b)(2)"
        trigger: "Discovery Request"
        trigger_subtype: "Interrogatories"
        offset_days: 30
        criticality: hard
        action: "Serve responses and objections to interrogatories"
        result_doc_type: "Discovery Response"
      - source: "FRCP 34(b)(2)(A)"
        trigger: "Discovery Request"
        trigger_subtype: "Requests for Production"
        offset_days: 30
        criticality: hard
        action: "Serve written responses to requests for production"
        result_doc_type: "Discovery Response"
      - source: "FRCP 36(a)(3)"
        trigger: "Discovery Request"
        trigger_subtype: "Requests for Admission"
        offset_days: 30
        criticality: hard
        action: "Serve answers or objections to requests for admission"
        result_doc_type: "Discovery Response"
      - source: "Local Rule 7-3"
        trigger: "Motion"
        offset_days: 14
        criticality: hard
        action: "File opposition to motion"
        result_doc_type: "Motion"
      - source: "Internal practice"
        trigger: "Order"
        offset_days: 7
        criticality: soft
        action: "Review order and advise client"
      - source: "Internal practice"
        trigger: "Notice"
        trigger_subtype: "Notice of Deposition"
        offset_days: 7
        criticality: soft
        action: "Prepare witness for deposition"

  california:
    court: "Superior Court of California"
    rules:
      - source: "CCP 412.20(a)(3)"
        trigger: "Complaint"
        offset_days: 30
        criticality: hard
        action: "File answer or demurrer"
        result_doc_type: "Answer"
      - source: "CCP 2030.260(a)"
        trigger: "Discovery Request"
        trigger_subtype: "Interrogatories"
        offset_days: 30
        criticality: hard
        action: "Serve responses to interrogatories"
        result_doc_type: "Discovery Response"
      - source: "CCP 2031.260(a)"
        trigger: "Discovery Request"
        trigger_subtype: "Requests for Production"
        offset_days: 30
        criticality: hard
        action: "Serve responses to inspection demands"
        result_doc_type: "Discovery Response"
      - source: "CCP 1005(b)"
        trigger: "Motion"
        offset_days: 9
        criticality: hard
        action: "File opposition papers"
        result_doc_type: "Motion"
      - source: "Internal practice"
        trigger: "Order"
        offset_days: 5
        criticality: soft
        action: "Review ruling and calendar follow-up"
`
