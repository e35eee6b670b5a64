package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

const sampleSeedYaml = `levels:
  - level: 1
    name: Starter
    min_amount: "50"
    max_amount: "499"
    daily_rate: "0.5"
  - level: 2
    name: Silver
    min_amount: "500"
    max_amount: "4999"
    daily_rate: "0.8"
wallets:
  bep20: "0x52908400098527886E0F7030069857D2E4169EE7"
  trc20: "TN3W4H6rK2ce4vX9YnFQHwKENnHjoxb3m9"
`

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "levels.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write seed file: %v", err)
	}
	return path
}

func TestLoadSeedConfig(t *testing.T) {
	path := writeSeedFile(t, sampleSeedYaml)

	config, err := LoadSeedConfig(path)
	if err != nil {
		t.Fatalf("failed to load seed config: %v", err)
	}

	if len(config.Levels) != 2 {
		t.Fatalf("expected 2 levels, got %d", len(config.Levels))
	}
	if config.Wallets.Trc20 != "TN3W4H6rK2ce4vX9YnFQHwKENnHjoxb3m9" {
		t.Errorf("unexpected trc20 wallet %q", config.Wallets.Trc20)
	}

	levels, err := config.InvestmentLevels()
	if err != nil {
		t.Fatalf("failed to convert levels: %v", err)
	}
	if levels[1].Name != "Silver" {
		t.Errorf("expected Silver, got %s", levels[1].Name)
	}
	if !levels[1].DailyRate.Equal(decimal.RequireFromString("0.8")) {
		t.Errorf("expected rate 0.8, got %s", levels[1].DailyRate)
	}
}

func TestLoadSeedConfigRejectsBadLevels(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing name", "levels:\n  - level: 1\n    min_amount: \"50\"\n    max_amount: \"100\"\n    daily_rate: \"0.5\"\n"},
		{"zero level", "levels:\n  - level: 0\n    name: Bad\n    min_amount: \"50\"\n    max_amount: \"100\"\n    daily_rate: \"0.5\"\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeSeedFile(t, tc.yaml)
			if _, err := LoadSeedConfig(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestInvestmentLevelsRejectsInvertedRange(t *testing.T) {
	path := writeSeedFile(t, "levels:\n  - level: 1\n    name: Bad\n    min_amount: \"500\"\n    max_amount: \"100\"\n    daily_rate: \"0.5\"\n")

	config, err := LoadSeedConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if _, err := config.InvestmentLevels(); err == nil {
		t.Error("expected error for max below min")
	}
}
