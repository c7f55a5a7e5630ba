package config

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func validConfig() *Config {
	return &Config{
		App:      AppConfig{Env: "development"},
		Database: DatabaseConfig{Driver: "postgres"},
		Store:    StoreConfig{Driver: StoreDriverDatabase},
		JWT:      JWTConfig{Secret: "secret"},
		Checkout: CheckoutConfig{MaxAttempts: 3, DefaultTaxRate: decimal.Zero},
	}
}

func TestValidateRejectsMemoryStoreInProduction(t *testing.T) {
	cfg := validConfig()
	cfg.App.Env = "production"
	cfg.Store.Driver = StoreDriverMemory
	if err := cfg.Validate(); err == nil {
		t.Error("expected memory store to be refused in production")
	}

	cfg.Store.Driver = StoreDriverDatabase
	cfg.Store.FallbackToMemory = true
	if err := cfg.Validate(); err == nil {
		t.Error("expected memory fallback to be refused in production")
	}
}

func TestValidateAllowsMemoryStoreInDevelopment(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Driver = StoreDriverMemory
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestValidateRejectsUnknownDrivers(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "sqlite"
	if err := cfg.Validate(); err == nil {
		t.Error("expected unknown database driver to be rejected")
	}
}

func TestDSNPerDriver(t *testing.T) {
	db := DatabaseConfig{Driver: "mysql", Host: "db", Port: "3306", Name: "pos", User: "u", Password: "p"}
	if got := db.DSN(); !strings.HasPrefix(got, "u:p@tcp(db:3306)/pos?") {
		t.Errorf("unexpected mysql dsn %q", got)
	}
	db.Driver = "postgres"
	if got := db.DSN(); !strings.Contains(got, "dbname=pos") {
		t.Errorf("unexpected postgres dsn %q", got)
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" a:9092, ,b:9092 ")
	if len(got) != 2 || got[0] != "a:9092" || got[1] != "b:9092" {
		t.Errorf("expected two brokers, got %v", got)
	}
	if splitList("") != nil {
		t.Error("expected no brokers for an empty value")
	}
}

func TestValidateBoundsDefaultTaxRate(t *testing.T) {
	cfg := validConfig()
	cfg.Checkout.DefaultTaxRate = decimal.NewFromInt(101)
	if err := cfg.Validate(); err == nil {
		t.Error("expected a tax rate above 100 to be rejected")
	}
	cfg.Checkout.DefaultTaxRate = decimal.NewFromInt(16)
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}
