package common

import (
	"fmt"
	"os"
	"path/filepath"

	"invest-settlement-go/internal/models"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

type LevelConfig struct {
	Level     int    `yaml:"level"`
	Name      string `yaml:"name"`
	MinAmount string `yaml:"min_amount"`
	MaxAmount string `yaml:"max_amount"`
	DailyRate string `yaml:"daily_rate"`
}

type WalletConfig struct {
	Bep20 string `yaml:"bep20"`
	Trc20 string `yaml:"trc20"`
}

type SeedConfig struct {
	Levels  []LevelConfig `yaml:"levels"`
	Wallets WalletConfig  `yaml:"wallets"`
}

// LoadSeedConfig reads the investment level ladder and platform wallet
// addresses used by cmd/setup to seed the database.
func LoadSeedConfig(levelsFile string) (*SeedConfig, error) {
	var levelsPath string
	if filepath.IsAbs(levelsFile) {
		levelsPath = levelsFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		levelsPath = filepath.Join(wd, levelsFile)
	}

	data, err := os.ReadFile(levelsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", levelsFile, err)
	}

	var config SeedConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", levelsFile, err)
	}

	for i, level := range config.Levels {
		if level.Level <= 0 {
			return nil, fmt.Errorf("level at index %d missing positive level number", i)
		}
		if level.Name == "" {
			return nil, fmt.Errorf("level %d missing name", level.Level)
		}
	}

	return &config, nil
}

// InvestmentLevels converts the YAML ladder into model rows, validating that
// every amount and rate parses as a decimal.
func (c *SeedConfig) InvestmentLevels() ([]models.InvestmentLevel, error) {
	levels := make([]models.InvestmentLevel, 0, len(c.Levels))
	for _, entry := range c.Levels {
		minAmount, err := decimal.NewFromString(entry.MinAmount)
		if err != nil {
			return nil, fmt.Errorf("level %d: invalid min_amount %q: %w", entry.Level, entry.MinAmount, err)
		}
		maxAmount, err := decimal.NewFromString(entry.MaxAmount)
		if err != nil {
			return nil, fmt.Errorf("level %d: invalid max_amount %q: %w", entry.Level, entry.MaxAmount, err)
		}
		dailyRate, err := decimal.NewFromString(entry.DailyRate)
		if err != nil {
			return nil, fmt.Errorf("level %d: invalid daily_rate %q: %w", entry.Level, entry.DailyRate, err)
		}
		if maxAmount.LessThan(minAmount) {
			return nil, fmt.Errorf("level %d: max_amount %s below min_amount %s", entry.Level, entry.MaxAmount, entry.MinAmount)
		}

		levels = append(levels, models.InvestmentLevel{
			Level:     entry.Level,
			Name:      entry.Name,
			MinAmount: minAmount,
			MaxAmount: maxAmount,
			DailyRate: dailyRate,
		})
	}
	return levels, nil
}
