package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/agentroom/core"
	"github.com/hupe1980/agentroom/model"
	"github.com/hupe1980/agentroom/room"
)

// RoomFile is the YAML shape of a room.
type RoomFile struct {
	Name          string     `yaml:"name"`
	Emoji         string     `yaml:"emoji"`
	Agents        AgentList  `yaml:"agents"`
	Strategies    Strategies `yaml:"strategies"`
	MaxIterations int        `yaml:"max-iterations"`

	// Path is the file the room was loaded from.
	Path string `yaml:"-"`
}

// AgentEntry is one agent of a room file.
type AgentEntry struct {
	Name         string `yaml:"-"`
	Instructions string `yaml:"instructions"`
	Emoji        string `yaml:"emoji"`
}

// AgentList keeps agents in file order.
type AgentList []AgentEntry

// UnmarshalYAML decodes the agents mapping preserving key order.
func (l *AgentList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: agents must be a mapping", node.Line)
	}

	out := make(AgentList, 0, len(node.Content)/2)

	for i := 0; i+1 < len(node.Content); i += 2 {
		var entry AgentEntry
		if err := node.Content[i+1].Decode(&entry); err != nil {
			return fmt.Errorf("agent %q: %w", node.Content[i].Value, err)
		}

		entry.Name = node.Content[i].Value
		out = append(out, entry)
	}

	*l = out

	return nil
}

// Strategies groups the two strategy blocks.
type Strategies struct {
	Selection   *StrategyConfig `yaml:"selection"`
	Termination *StrategyConfig `yaml:"termination"`
}

// StrategyConfig is the YAML shape of a strategy.
type StrategyConfig struct {
	Type             string   `yaml:"type"`
	Description      string   `yaml:"description"`
	PresetConditions []string `yaml:"preset-conditions"`
	Filter           string   `yaml:"filter"`
	Keywords         []string `yaml:"keywords"`
	MaxIterations    int      `yaml:"max-iterations"`
}

func (s *StrategyConfig) spec() room.StrategySpec {
	if s == nil {
		return room.StrategySpec{}
	}

	return room.StrategySpec{
		Type:          s.Type,
		Description:   strings.TrimSpace(s.Description),
		Preconditions: s.PresetConditions,
		Filter:        strings.TrimSpace(s.Filter),
		Keywords:      s.Keywords,
	}
}

// ParseRoom decodes a room from YAML.
func ParseRoom(data []byte) (*RoomFile, error) {
	var rf RoomFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("failed to parse room: %w", err)
	}

	return &rf, nil
}

// LoadRoomFile reads one room file. A room without a name is named after
// the file.
func LoadRoomFile(path string) (*RoomFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read room file: %w", err)
	}

	rf, err := ParseRoom(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	rf.Path = path
	if strings.TrimSpace(rf.Name) == "" {
		rf.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return rf, nil
}

// LoadRoomDir reads every *.yml and *.yaml file in dir, sorted by file name.
// Errors of individual files are joined; rooms that loaded are returned.
func LoadRoomDir(dir string) ([]*RoomFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read rooms dir: %w", err)
	}

	var names []string

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yml", ".yaml":
			names = append(names, e.Name())
		}
	}

	slices.Sort(names)

	var (
		rooms []*RoomFile
		errs  []error
	)

	for _, name := range names {
		rf, err := LoadRoomFile(filepath.Join(dir, name))
		if err != nil {
			errs = append(errs, err)
			continue
		}

		rooms = append(rooms, rf)
	}

	return rooms, errors.Join(errs...)
}

// Definition converts the file into a room definition whose agents all
// answer with m. Agents without instructions are skipped.
func (rf *RoomFile) Definition(m model.Model) room.Definition {
	agents := make([]*core.Agent, 0, len(rf.Agents))

	for _, a := range rf.Agents {
		if strings.TrimSpace(a.Instructions) == "" {
			continue
		}

		emoji := a.Emoji
		if emoji == "" {
			emoji = core.DefaultAgentEmoji
		}

		agents = append(agents, &core.Agent{
			Name:         a.Name,
			Instructions: strings.TrimSpace(a.Instructions),
			Emoji:        emoji,
			Model:        m,
		})
	}

	maxIterations := rf.MaxIterations
	if maxIterations == 0 && rf.Strategies.Termination != nil {
		maxIterations = rf.Strategies.Termination.MaxIterations
	}

	return room.Definition{
		Name:          strings.TrimSpace(rf.Name),
		Emoji:         rf.Emoji,
		Agents:        agents,
		Selection:     rf.Strategies.Selection.spec(),
		Termination:   rf.Strategies.Termination.spec(),
		MaxIterations: maxIterations,
	}
}
