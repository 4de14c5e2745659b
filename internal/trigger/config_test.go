package trigger

import "testing"

func TestWithDefaults(t *testing.T) {
	cfg := Config{Event: CvxPriceAlert}.WithDefaults()

	if cfg.ApyThreshold != DefaultApyThreshold {
		t.Errorf("ApyThreshold = %v, want %v", cfg.ApyThreshold, DefaultApyThreshold)
	}
	if cfg.TvlThreshold != DefaultTvlThreshold {
		t.Errorf("TvlThreshold = %v, want %v", cfg.TvlThreshold, DefaultTvlThreshold)
	}
	if cfg.PriceCondition != PriceChange {
		t.Errorf("PriceCondition = %v, want %v", cfg.PriceCondition, PriceChange)
	}
	if cfg.PegThreshold != DefaultPegThreshold {
		t.Errorf("PegThreshold = %v, want %v", cfg.PegThreshold, DefaultPegThreshold)
	}
}

func TestWithDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := Config{Event: PoolApyChanged, ApyThreshold: 2.5, PriceCondition: PriceAbove}.WithDefaults()

	if cfg.ApyThreshold != 2.5 {
		t.Errorf("ApyThreshold = %v, want 2.5", cfg.ApyThreshold)
	}
	if cfg.PriceCondition != PriceAbove {
		t.Errorf("PriceCondition = %v, want above", cfg.PriceCondition)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid kind", Config{Event: PoolApyChanged}, false},
		{"valid with condition", Config{Event: CvxPriceAlert, PriceCondition: PriceBelow}, false},
		{"unknown kind", Config{Event: "poolsChanged"}, true},
		{"empty kind", Config{}, true},
		{"unknown condition", Config{Event: CvxPriceAlert, PriceCondition: "sideways"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
