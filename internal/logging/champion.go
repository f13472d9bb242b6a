package logging

import (
	"encoding/json"
	"os"
	"path/filepath"

	"asteroidsai/internal/ga"
	"asteroidsai/internal/nn"
)

// Champion is the on-disk form of a trained network
type Champion struct {
	Generation int     `json:"generation"`
	Fitness    float64 `json:"fitness"`
	Network    []byte  `json:"network"` // nn binary encoding
}

// Net decodes the stored network
func (c *Champion) Net() (*nn.MLP, error) {
	return nn.Decode(c.Network)
}

// SaveChampion saves the champion network to a file
func SaveChampion(path string, agent *ga.Agent, gen int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	blob, err := agent.Net.MarshalBinary()
	if err != nil {
		return err
	}
	data := Champion{
		Generation: gen,
		Fitness:    agent.Fitness,
		Network:    blob,
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, jsonData, 0644)
}

// LoadChampion loads a champion from a file
func LoadChampion(path string) (*Champion, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var saved Champion
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}
