package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultTemplate is written by 'latensee init'. Keys mirror DefaultConfig.
const defaultTemplate = `# LatenSee dashboard configuration.
version: %d

# Websocket address of the probe.
socket_url: %s

# What the probe measures. Pushed to the probe every time the dashboard connects.
probe:
  target_url: %s
  # Milliseconds between measurements.
  interval: %d
  commands:
%s
dashboard:
  # Samples kept per command.
  max_intervals: %d
  reconnect_delay: %s
  ping_interval: %s
  dial_timeout: %s

output:
  # auto, always, never
  color: %s
`

// RenderDefault returns the commented default config file.
func RenderDefault(cfg *Config) string {
	var cmds strings.Builder
	for _, c := range cfg.Probe.Commands {
		cmds.WriteString("    - " + strconv.Quote(c) + "\n")
	}
	return fmt.Sprintf(defaultTemplate,
		cfg.Version,
		strconv.Quote(cfg.SocketURL),
		strconv.Quote(cfg.Probe.TargetURL),
		cfg.Probe.Interval,
		cmds.String(),
		cfg.Dashboard.MaxIntervals,
		cfg.Dashboard.ReconnectDelay,
		cfg.Dashboard.PingInterval,
		cfg.Dashboard.DialTimeout,
		cfg.Output.Color,
	)
}

// WriteDefault writes the default config to path. It refuses to overwrite an
// existing file unless force is set.
func WriteDefault(path string, cfg *Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	// Round-trip through yaml.v3 so a bad template never reaches disk.
	out := RenderDefault(cfg)
	var check Config
	if err := yaml.Unmarshal([]byte(out), &check); err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}

	if err := os.WriteFile(path, []byte(out), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// UpdateProbe rewrites the probe section of the config file at configPath.
// It preserves the existing YAML structure and comments, and creates the
// probe mapping or any of its keys when missing.
func UpdateProbe(configPath string, probe ProbeConfig) error {
	// Read the existing file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse as yaml.Node to preserve structure
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if root.Kind == 0 {
		// Empty file
		root = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{
			{Kind: yaml.MappingNode, Tag: "!!map"},
		}}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return fmt.Errorf("invalid YAML document structure")
	}

	docNode := root.Content[0]
	if docNode.Kind != yaml.MappingNode {
		return fmt.Errorf("expected mapping at document root")
	}

	probeNode := findMapValue(docNode, "probe")
	if probeNode == nil {
		probeNode = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		docNode.Content = append(docNode.Content, scalar("probe", "!!str"), probeNode)
	}
	if probeNode.Kind != yaml.MappingNode {
		return fmt.Errorf("'probe' must be a mapping")
	}

	setMapValue(probeNode, "target_url", scalar(probe.TargetURL, "!!str"))
	setMapValue(probeNode, "interval", scalar(strconv.FormatInt(probe.Interval, 10), "!!int"))

	cmds := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, c := range probe.Commands {
		cmds.Content = append(cmds.Content, scalar(c, "!!str"))
	}
	setMapValue(probeNode, "commands", cmds)

	// Write back to file
	var buf strings.Builder
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&root); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	encoder.Close()

	if err := os.WriteFile(configPath, []byte(buf.String()), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func scalar(value, tag string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

// setMapValue replaces the value under key, keeping the key node (and its
// comments), or appends the pair when key is absent.
func setMapValue(node *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i < len(node.Content)-1; i += 2 {
		if node.Content[i].Kind == yaml.ScalarNode && node.Content[i].Value == key {
			old := node.Content[i+1]
			value.LineComment = old.LineComment
			if value.Kind == yaml.SequenceNode && old.Kind == yaml.SequenceNode {
				value.Style = old.Style
			}
			node.Content[i+1] = value
			return
		}
	}
	node.Content = append(node.Content, scalar(key, "!!str"), value)
}

// findMapValue finds a value in a mapping node by key name.
func findMapValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}

	for i := 0; i < len(node.Content)-1; i += 2 {
		keyNode := node.Content[i]
		valueNode := node.Content[i+1]

		if keyNode.Kind == yaml.ScalarNode && keyNode.Value == key {
			return valueNode
		}
	}

	return nil
}
